// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dispatch maps a decoded resp.Message command to a cache or
// control operation and synthesizes the reply message.
package dispatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"

	"github.com/packetd/tinykv/cache"
	"github.com/packetd/tinykv/resp"
)

var tracer = otel.Tracer("github.com/packetd/tinykv/dispatch")

// Leader is the subset of election/controller behavior a SETLEADER command
// needs to trigger. It is satisfied by *controller.Controller.
type Leader interface {
	ServerID() string
	Promote(ctx context.Context) error
}

// Dispatcher holds the shared cache and leader hooks every connection
// handler dispatches commands against.
type Dispatcher struct {
	cache  *cache.Cache
	leader Leader
}

// New returns a Dispatcher backed by c, using leader for GETSERVERID and
// SETLEADER.
func New(c *cache.Cache, leader Leader) *Dispatcher {
	return &Dispatcher{cache: c, leader: leader}
}

// Dispatch resolves msg into a command and argument list, runs it, and
// returns the reply. Malformed commands never mutate state.
func (d *Dispatcher) Dispatch(ctx context.Context, msg resp.Message) resp.Message {
	name, args, err := resp.ToCommand(msg)
	if err != nil {
		return resp.Error("ERR " + err.Error())
	}

	cmd := strings.ToUpper(name)
	ctx, span := tracer.Start(ctx, "resp."+cmd)
	defer span.End()

	switch cmd {
	case "PING":
		return d.ping(args)
	case "ECHO":
		return d.echo(args)
	case "GET":
		return d.get(args)
	case "SET":
		return d.set(args)
	case "DEL":
		return d.del(args)
	case "GETSERVERID":
		return d.getServerID(args)
	case "SETLEADER":
		return d.setLeader(ctx, args)
	case "SYNC":
		return d.sync(args)
	default:
		return resp.Error("ERR unknown command '" + name + "'")
	}
}

func (d *Dispatcher) ping(args []resp.Message) resp.Message {
	if len(args) != 0 {
		return resp.Error("ERR wrong number of arguments for 'ping' command")
	}
	return resp.SimpleString("PONG")
}

func (d *Dispatcher) echo(args []resp.Message) resp.Message {
	if len(args) != 1 {
		return resp.Error("ERR wrong number of arguments for 'echo' command")
	}
	return args[0]
}

func (d *Dispatcher) get(args []resp.Message) resp.Message {
	if len(args) != 1 {
		return resp.Error("ERR wrong number of arguments for 'get' command")
	}
	key, err := resp.PackString(args[0])
	if err != nil {
		return resp.Error("ERR Invalid key")
	}

	value, ok := d.cache.Get(key)
	if !ok {
		return resp.Null
	}
	return resp.BulkStringFrom(value)
}

// argPX is the 0-based index of the milliseconds value in a
// "SET key value PX ms" request, counting only the arguments (i.e. after
// the command name itself). The reference server reads this position
// exactly; matching it is required for wire compatibility.
const argPX = 3

func (d *Dispatcher) set(args []resp.Message) resp.Message {
	if len(args) != 2 && len(args) != 4 {
		return resp.Error("ERR wrong number of arguments for 'set' command")
	}

	key, err := resp.PackString(args[0])
	if err != nil {
		return resp.Error("ERR Invalid key")
	}
	value, err := resp.PackString(args[1])
	if err != nil {
		return resp.Error("ERR Invalid key or value")
	}

	var ttlMillis int64
	if len(args) == 4 {
		opt, err := resp.PackString(args[2])
		if err != nil || !strings.EqualFold(opt, "PX") {
			return resp.Error("ERR syntax error")
		}
		pxArg, err := resp.PackString(args[argPX])
		if err != nil {
			return resp.Error("ERR syntax error")
		}
		ms, err := cast.ToInt64E(pxArg)
		if err != nil {
			return resp.Error("ERR value is not an integer or out of range")
		}
		ttlMillis = ms
	}

	d.cache.Set(key, value, ttlMillis)
	return resp.SimpleString("OK")
}

func (d *Dispatcher) del(args []resp.Message) resp.Message {
	if len(args) == 0 {
		return resp.Error("ERR wrong number of arguments for 'del' command")
	}

	var keys []string
	for _, a := range args {
		k, err := resp.PackString(a)
		if err != nil {
			return resp.Error("ERR Invalid key")
		}
		keys = append(keys, k)
	}

	n := d.cache.Remove(strings.Join(keys, " "))
	return resp.BulkStringFrom(strconv.Itoa(n))
}

func (d *Dispatcher) getServerID(args []resp.Message) resp.Message {
	if len(args) != 0 {
		return resp.Error("ERR wrong number of arguments for 'getserverid' command")
	}
	return resp.SimpleString(d.leader.ServerID())
}

func (d *Dispatcher) setLeader(ctx context.Context, args []resp.Message) resp.Message {
	if len(args) != 0 {
		return resp.Error("ERR wrong number of arguments for 'setleader' command")
	}
	if err := d.leader.Promote(ctx); err != nil {
		return resp.Error("ERR " + err.Error())
	}
	return resp.SimpleString("OK")
}

func (d *Dispatcher) sync(args []resp.Message) resp.Message {
	if len(args) != 0 {
		return resp.Error("ERR wrong number of arguments for 'sync' command")
	}

	d.cache.LogSnapshotChecksum()
	keys, values := d.cache.Snapshot()
	fields := make([]string, 0, len(keys)+len(values))
	fields = append(fields, keys...)
	fields = append(fields, values...)
	return resp.BulkStringFrom(strings.Join(fields, " "))
}

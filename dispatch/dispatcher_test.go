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

package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/packetd/tinykv/cache"
	"github.com/packetd/tinykv/resp"
)

type fakeLeader struct {
	id        string
	promoted  bool
	promoteFn func(ctx context.Context) error
}

func (f *fakeLeader) ServerID() string { return f.id }

func (f *fakeLeader) Promote(ctx context.Context) error {
	f.promoted = true
	if f.promoteFn != nil {
		return f.promoteFn(ctx)
	}
	return nil
}

func newDispatcher() (*Dispatcher, *fakeLeader) {
	fl := &fakeLeader{id: "42"}
	return New(cache.New(3), fl), fl
}

func cmd(name string, args ...string) resp.Message {
	elems := make([]resp.Message, 0, len(args)+1)
	elems = append(elems, resp.BulkStringFrom(name))
	for _, a := range args {
		elems = append(elems, resp.BulkStringFrom(a))
	}
	return resp.Array(elems...)
}

func TestPing(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("PING"))
	assert.Equal(t, resp.SimpleString("PONG"), got)
}

func TestEcho(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("ECHO", "hello"))
	assert.Equal(t, resp.BulkStringFrom("hello"), got)
}

func TestSetGet(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("SET", "one", "hello"))
	assert.Equal(t, resp.SimpleString("OK"), got)

	got = d.Dispatch(context.Background(), cmd("GET", "one"))
	assert.Equal(t, resp.BulkStringFrom("hello"), got)
}

func TestGetMissing(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("GET", "missing"))
	assert.Equal(t, resp.Null, got)
}

func TestSetWithPX(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("SET", "key-ttl", "value", "PX", "1000"))
	assert.Equal(t, resp.SimpleString("OK"), got)

	got = d.Dispatch(context.Background(), cmd("GET", "key-ttl"))
	assert.Equal(t, resp.BulkStringFrom("value"), got)
}

func TestDel(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(context.Background(), cmd("SET", "del2", "del2"))

	got := d.Dispatch(context.Background(), cmd("DEL", "del2 del3"))
	assert.Equal(t, resp.BulkStringFrom("1"), got)
}

func TestEviction(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(context.Background(), cmd("SET", "over1", "v1"))
	d.Dispatch(context.Background(), cmd("SET", "over2", "v2"))
	d.Dispatch(context.Background(), cmd("SET", "over3", "v3"))
	d.Dispatch(context.Background(), cmd("SET", "over4", "v4"))

	got := d.Dispatch(context.Background(), cmd("GET", "over4"))
	assert.Equal(t, resp.BulkStringFrom("v4"), got)

	got = d.Dispatch(context.Background(), cmd("GET", "over1"))
	assert.Equal(t, resp.Null, got)
}

func TestGetServerID(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("GETSERVERID"))
	assert.Equal(t, resp.SimpleString("42"), got)
}

func TestSetLeader(t *testing.T) {
	d, fl := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("SETLEADER"))
	assert.Equal(t, resp.SimpleString("OK"), got)
	assert.True(t, fl.promoted)
}

func TestSetLeaderPropagatesError(t *testing.T) {
	d, fl := newDispatcher()
	fl.promoteFn = func(ctx context.Context) error { return errors.New("bind failed") }

	got := d.Dispatch(context.Background(), cmd("SETLEADER"))
	assert.Equal(t, resp.TypeError, got.Type)
	assert.Contains(t, got.Str, "bind failed")
}

func TestSync(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(context.Background(), cmd("SET", "a", "1"))
	d.Dispatch(context.Background(), cmd("SET", "b", "2"))

	got := d.Dispatch(context.Background(), cmd("SYNC"))
	assert.Equal(t, resp.TypeBulkString, got.Type)
	fields := strings.Fields(string(got.Bulk))
	assert.Len(t, fields, 4)
}

func TestUnknownCommand(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("NOPE"))
	assert.Equal(t, resp.TypeError, got.Type)
}

func TestMalformedArityDoesNotMutate(t *testing.T) {
	d, _ := newDispatcher()
	got := d.Dispatch(context.Background(), cmd("SET", "onlykey"))
	assert.Equal(t, resp.TypeError, got.Type)

	got = d.Dispatch(context.Background(), cmd("GET", "onlykey"))
	assert.Equal(t, resp.Null, got)
}

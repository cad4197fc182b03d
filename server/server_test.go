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

package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/tinykv/cache"
	"github.com/packetd/tinykv/dispatch"
)

type fakeLeader struct{ id string }

func (f *fakeLeader) ServerID() string                      { return f.id }
func (f *fakeLeader) Promote(ctx context.Context) error      { return nil }

func startTestServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()
	d := dispatch.New(cache.New(16), &fakeLeader{id: "1"})
	s := New(d)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr = l.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = l.Close()
		_ = s.ListenAndServe(ctx, addr)
	}()

	// ListenAndServe re-binds the same address after we close our probe
	// listener; wait for it to come back up.
	require.Eventually(t, func() bool {
		c, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	return addr, func() {
		cancel()
		s.Shutdown()
	}
}

func dialAndExchange(t *testing.T, addr string, req, wantResp string) {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Write([]byte(req))
	require.NoError(t, err)

	_ = c.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(c).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, wantResp, line)
}

func TestServerPing(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	dialAndExchange(t, addr, "*1\r\n$4\r\nPING\r\n", "+PONG\r\n")
}

func TestServerSetGet(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	c, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	req := fmt.Sprintf("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")
	_, err = c.Write([]byte(req))
	require.NoError(t, err)

	_ = c.SetReadDeadline(time.Now().Add(time.Second))
	r := bufio.NewReader(c)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+OK\r\n", line)

	_, err = c.Write([]byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	require.NoError(t, err)
	typeLine, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "$3\r\n", typeLine)
	valLine, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "bar\r\n", valLine)
}

func TestServerProtocolErrorKeepsConnectionOpen(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	c, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Write([]byte("@garbage\r\n"))
	require.NoError(t, err)

	_ = c.SetReadDeadline(time.Now().Add(time.Second))
	r := bufio.NewReader(c)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "Protocol error")

	_, err = c.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+PONG\r\n", line)
}

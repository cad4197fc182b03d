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

// Package server accepts RESP connections and drives each one through the
// read/decode/dispatch/write cycle, plus an optional admin HTTP surface.
package server

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/packetd/tinykv/dispatch"
	"github.com/packetd/tinykv/logger"
)

// Server accepts TCP connections on a single address and serves the RESP
// protocol on each, goroutine-per-connection.
type Server struct {
	dispatcher *dispatch.Dispatcher

	mut      sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New returns a Server dispatching commands through dispatcher.
func New(dispatcher *dispatch.Dispatcher) *Server {
	return &Server{dispatcher: dispatcher}
}

// ListenAndServe binds address and accepts connections until ctx is
// canceled or Shutdown is called. It blocks until the accept loop exits.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", address)
	}

	s.mut.Lock()
	s.listener = l
	s.mut.Unlock()

	logger.Infof("server listening on %s", address)

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	for {
		nc, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return errors.Wrap(err, "accept")
			}
		}

		c := newConn(nc, s)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve(ctx)
		}()
	}
}

// Rebind closes the current listener and starts accepting on address
// instead, without restarting the process. It is used when this server
// transitions from follower to leader and must take over the canonical
// leader address in place.
func (s *Server) Rebind(ctx context.Context, address string) error {
	s.mut.Lock()
	l := s.listener
	s.mut.Unlock()
	if l != nil {
		_ = l.Close()
	}
	return s.ListenAndServe(ctx, address)
}

// Shutdown stops accepting new connections and waits for in-flight ones
// to finish.
func (s *Server) Shutdown() {
	s.mut.Lock()
	l := s.listener
	s.mut.Unlock()
	if l != nil {
		_ = l.Close()
	}
	s.wg.Wait()
}

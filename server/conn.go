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
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/packetd/tinykv/common"
	"github.com/packetd/tinykv/internal/rescue"
	"github.com/packetd/tinykv/logger"
	"github.com/packetd/tinykv/resp"
)

// conn runs the read/decode/dispatch/write state machine for one accepted
// connection. Commands are processed in arrival order and replies are
// written in the same order: within a connection there is no reordering,
// though across connections no ordering is guaranteed.
type conn struct {
	id  string
	nc  net.Conn
	srv *Server

	// buf holds bytes read from nc that have not yet formed a complete
	// message. It grows as needed instead of truncating oversized
	// requests against a fixed-size buffer.
	buf []byte
}

func newConn(nc net.Conn, srv *Server) *conn {
	return &conn{
		id:  uuid.NewString(),
		nc:  nc,
		srv: srv,
	}
}

// serve runs until the peer closes the socket or an unrecoverable I/O
// error occurs. A panic while decoding or dispatching is contained so it
// cannot take down the accept loop or any other connection.
func (c *conn) serve(ctx context.Context) {
	defer rescue.HandleCrash()
	defer c.nc.Close()
	defer connectionsActive.Dec()

	connectionsTotal.Inc()
	connectionsActive.Inc()
	logger.Debugf("conn %s: accepted from %s", c.id, c.nc.RemoteAddr())

	scratch := make([]byte, common.InitialReadBufferSize)
	for {
		msg, protoErr, err := c.nextMessage(scratch)
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debugf("conn %s: closed by peer", c.id)
			} else {
				logger.Errorf("conn %s: read error: %v", c.id, err)
			}
			return
		}

		reply := msg
		if !protoErr {
			reply = c.srv.dispatcher.Dispatch(ctx, msg)
		}
		if _, err := c.nc.Write(resp.Encode(reply)); err != nil {
			logger.Errorf("conn %s: write error: %v", c.id, err)
			return
		}
	}
}

// nextMessage reads from nc, accumulating into c.buf, until a complete
// message can be decoded. Protocol errors (an unrecognized leading byte, a
// malformed length prefix, a missing CRLF) never terminate the connection:
// per spec they are reported to the client as an Error reply and the
// unparseable buffer is discarded so the next read starts clean. Such a
// reply is returned with protoErr set, so serve writes it back instead of
// dispatching it. Only an I/O failure on nc (EOF or otherwise) is returned
// as a Go error, which tells serve to close the connection.
func (c *conn) nextMessage(scratch []byte) (resp.Message, bool, error) {
	for {
		msg, consumed, err := resp.Decode(c.buf)
		switch {
		case err == nil && consumed == 0 && msg.Type == resp.TypeError:
			c.buf = nil
			return resp.Error("ERR Protocol error: " + msg.Str), true, nil

		case err == nil:
			c.buf = c.buf[consumed:]
			return msg, false, nil

		case errors.Is(err, resp.ErrShortRead):
			n, readErr := c.nc.Read(scratch)
			if n > 0 {
				c.buf = append(c.buf, scratch[:n]...)
			}
			if readErr != nil {
				return resp.Message{}, false, readErr
			}

		default:
			logger.Debugf("conn %s: protocol error: %v", c.id, err)
			c.buf = nil
			return resp.Error("ERR Protocol error: " + err.Error()), true, nil
		}
	}
}

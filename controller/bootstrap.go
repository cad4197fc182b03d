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

package controller

import (
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/packetd/tinykv/logger"
	"github.com/packetd/tinykv/resp"
)

// syncDialTimeout bounds the whole SYNC bootstrap exchange, from dial
// through the final byte of the reply.
const syncDialTimeout = 5 * time.Second

// bootstrap dials the leader and issues SYNC, seeding the local cache from
// the reply before this node starts participating in elections. A leader
// that isn't up yet (e.g. this is the first node in a fresh cluster) is not
// an error: the node simply starts with an empty cache.
func (ctrl *Controller) bootstrap(leaderAddr string) {
	keys, values, err := fetchSnapshot(leaderAddr)
	if err != nil {
		logger.Debugf("bootstrap: no snapshot from %s: %v", leaderAddr, err)
		return
	}
	for i := range keys {
		ctrl.c.Set(keys[i], values[i], 0)
	}
	logger.Infof("bootstrap: seeded %d keys from %s", len(keys), leaderAddr)
}

// fetchSnapshot dials leaderAddr, sends SYNC, and decodes the BulkString
// reply into its parallel key/value halves, mirroring
// election.Elector.roundTrip's dial/write/decode pattern.
func fetchSnapshot(leaderAddr string) ([]string, []string, error) {
	deadline := time.Now().Add(syncDialTimeout)
	nc, err := net.DialTimeout("tcp", leaderAddr, syncDialTimeout)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dial leader %s", leaderAddr)
	}
	defer nc.Close()

	_ = nc.SetDeadline(deadline)

	if _, err := nc.Write(resp.Encode(resp.Array(resp.BulkStringFrom("SYNC")))); err != nil {
		return nil, nil, errors.Wrapf(err, "write SYNC to %s", leaderAddr)
	}

	buf := make([]byte, 0, 256)
	scratch := make([]byte, 256)
	var reply resp.Message
	for {
		msg, consumed, err := resp.Decode(buf)
		if err == nil && consumed > 0 {
			reply = msg
			break
		}
		if err != nil && !errors.Is(err, resp.ErrShortRead) {
			return nil, nil, err
		}

		n, readErr := nc.Read(scratch)
		if n > 0 {
			buf = append(buf, scratch[:n]...)
		}
		if readErr != nil {
			return nil, nil, errors.Wrapf(readErr, "read SYNC reply from %s", leaderAddr)
		}
	}

	if reply.Type != resp.TypeBulkString {
		return nil, nil, errors.Errorf("unexpected SYNC reply type %v from %s", reply.Type, leaderAddr)
	}

	fields := strings.Fields(string(reply.Bulk))
	if len(fields)%2 != 0 {
		return nil, nil, errors.Errorf("malformed SYNC reply from %s: odd field count", leaderAddr)
	}

	half := len(fields) / 2
	return fields[:half], fields[half:], nil
}

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

// Package election implements a bully-style leader election among a
// fixed set of peer addresses: a steady-state ping of the current leader,
// and a timeout-triggered round that polls every peer for its server id
// and promotes whichever one (including this process) holds the max.
package election

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/packetd/tinykv/internal/rescue"
	"github.com/packetd/tinykv/logger"
	"github.com/packetd/tinykv/resp"
)

const (
	defaultPingInterval = 10 * time.Second
	peerTimeout         = time.Second
)

// Promoter takes this process from follower to leader: rebinding the RESP
// listener onto the canonical leader address in place.
type Promoter interface {
	Rebind(ctx context.Context, address string) error
}

// Elector runs the ping/election loop for one server against a fixed peer
// list. serverID is this process's own id, compared against peers'
// GETSERVERID replies to decide who wins a round.
type Elector struct {
	serverID     int64
	leaderAddr   string
	peers        []string
	promoter     Promoter
	dialTimeout  time.Duration
	pingInterval time.Duration
}

// New returns an Elector for serverID, pinging leaderAddr every pingInterval
// in steady state and polling peers during an election round. A
// non-positive pingInterval falls back to defaultPingInterval.
func New(serverID int64, leaderAddr string, peers []string, promoter Promoter, pingInterval time.Duration) *Elector {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &Elector{
		serverID:     serverID,
		leaderAddr:   leaderAddr,
		peers:        peers,
		promoter:     promoter,
		dialTimeout:  peerTimeout,
		pingInterval: pingInterval,
	}
}

// Run pings the leader every pingInterval until ctx is canceled. A failed
// or non-PONG ping triggers an election round.
func (e *Elector) Run(ctx context.Context) {
	defer rescue.HandleCrash()

	ticker := time.NewTicker(e.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.pingLeader() {
				electionRoundsTotal.Inc()
				e.runElection(ctx)
			}
		}
	}
}

func (e *Elector) pingLeader() bool {
	reply, err := e.roundTrip(e.leaderAddr, resp.Array(resp.BulkStringFrom("PING")))
	if err != nil {
		return false
	}
	return reply.Type == resp.TypeSimpleString && reply.Str == "PONG"
}

// runElection polls every peer for its server id, picks the max id among
// the reachable peers and this process, and promotes the winner.
func (e *Elector) runElection(ctx context.Context) {
	maxID := e.serverID
	winner := "" // empty means this process wins

	for _, peer := range e.peers {
		id, err := e.getServerID(peer)
		if err != nil {
			logger.Debugf("election: peer %s unreachable: %v", peer, err)
			continue
		}
		if id > maxID {
			maxID = id
			winner = peer
		}
	}

	if winner == "" {
		logger.Infof("election: this server (id=%d) has the highest id, promoting self", e.serverID)
		if e.promoter != nil {
			if err := e.promoter.Rebind(ctx, e.leaderAddr); err != nil {
				logger.Errorf("election: self-promotion failed: %v", err)
				return
			}
		}
		electionPromotionsTotal.Inc()
		return
	}

	logger.Infof("election: peer %s has the highest id (%d), promoting it", winner, maxID)
	if _, err := e.roundTrip(winner, resp.Array(resp.BulkStringFrom("SETLEADER"))); err != nil {
		logger.Errorf("election: failed to promote %s: %v", winner, err)
		return
	}
	electionPromotionsTotal.Inc()
}

func (e *Elector) getServerID(peer string) (int64, error) {
	reply, err := e.roundTrip(peer, resp.Array(resp.BulkStringFrom("GETSERVERID")))
	if err != nil {
		return 0, err
	}
	if reply.Type != resp.TypeSimpleString {
		return 0, errors.Errorf("unexpected reply type %v from %s", reply.Type, peer)
	}
	return strconv.ParseInt(reply.Str, 10, 64)
}

// roundTrip dials peer, writes msg, and decodes exactly one reply message,
// bounding the whole exchange by dialTimeout so a dead or hung peer never
// stalls an election round.
func (e *Elector) roundTrip(peer string, msg resp.Message) (resp.Message, error) {
	deadline := time.Now().Add(e.dialTimeout)
	nc, err := net.DialTimeout("tcp", peer, e.dialTimeout)
	if err != nil {
		return resp.Message{}, errors.Wrapf(err, "dial %s", peer)
	}
	defer nc.Close()

	_ = nc.SetDeadline(deadline)

	if _, err := nc.Write(resp.Encode(msg)); err != nil {
		return resp.Message{}, errors.Wrapf(err, "write to %s", peer)
	}

	buf := make([]byte, 0, 256)
	scratch := make([]byte, 256)
	for {
		reply, consumed, err := resp.Decode(buf)
		if err == nil && consumed > 0 {
			return reply, nil
		}
		if err != nil && !errors.Is(err, resp.ErrShortRead) {
			return resp.Message{}, err
		}

		n, readErr := nc.Read(scratch)
		if n > 0 {
			buf = append(buf, scratch[:n]...)
		}
		if readErr != nil {
			return resp.Message{}, errors.Wrapf(readErr, "read from %s", peer)
		}
	}
}

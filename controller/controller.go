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

// Package controller owns the lifecycle of a single tinykv node: its
// cache, RESP server, leader election, and admin HTTP surface.
package controller

import (
	"context"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/packetd/tinykv/cache"
	"github.com/packetd/tinykv/common"
	"github.com/packetd/tinykv/confengine"
	"github.com/packetd/tinykv/dispatch"
	"github.com/packetd/tinykv/election"
	"github.com/packetd/tinykv/logger"
	"github.com/packetd/tinykv/server"
)

// Controller wires a Cache, Dispatcher, Server, Elector, and optional
// AdminServer together and runs them until Stop is called.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config

	serverID int64
	c        *cache.Cache
	svr      *server.Server
	admin    *server.AdminServer
	elector  *election.Elector
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}

	if opts.Filename == "" {
		opts.Filename = "tinykv.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}

	logger.SetOptions(opts)
	return nil
}

// New builds a Controller from conf's "controller" section. The process's
// own pid is used as its election server id, matching the bully algorithm
// this cluster's election round is grounded on.
func New(conf *confengine.Config) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChild("controller", &cfg); err != nil {
		return nil, err
	}
	if cfg.Address == "" {
		cfg.Address = ":0"
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1024
	}

	c := cache.New(cfg.Capacity)
	ctrl := &Controller{
		cfg:      cfg,
		serverID: int64(os.Getpid()),
		c:        c,
	}

	d := dispatch.New(c, ctrl)
	ctrl.svr = server.New(d)
	ctrl.admin = server.NewAdmin(server.AdminConfig(cfg.Admin))
	ctrl.elector = election.New(ctrl.serverID, common.CanonicalLeaderAddress, cfg.Peers, ctrl.svr, cfg.PingInterval)

	ctx, cancel := context.WithCancel(context.Background())
	ctrl.ctx = ctx
	ctrl.cancel = cancel
	return ctrl, nil
}

// Start launches the RESP server and the admin server (if enabled) in the
// background. A non-leader node then bootstraps its cache from the leader
// before Start returns, and launches the election loop if it has peers.
func (ctrl *Controller) Start() {
	address := ctrl.cfg.Address
	if ctrl.cfg.Leader {
		address = common.CanonicalLeaderAddress
	}

	go func() {
		if err := ctrl.svr.ListenAndServe(ctrl.ctx, address); err != nil {
			logger.Errorf("server exited: %v", err)
		}
	}()

	if ctrl.admin != nil {
		go func() {
			if err := ctrl.admin.ListenAndServe(); err != nil {
				logger.Errorf("admin server exited: %v", err)
			}
		}()
	}

	if !ctrl.cfg.Leader {
		ctrl.bootstrap(common.CanonicalLeaderAddress)
		if len(ctrl.cfg.Peers) > 0 {
			go ctrl.elector.Run(ctrl.ctx)
		}
	}
}

// Reload re-reads the "controller" section of conf, records its peers list
// and ping interval, and builds a new Elector from them. The new Elector is
// not started: an election loop already launched by Start keeps running
// with the peers and interval it started with. The listen address and
// leader flag are fixed at Start time and not reloadable.
func (ctrl *Controller) Reload(conf *confengine.Config) error {
	var cfg Config
	if err := conf.UnpackChild("controller", &cfg); err != nil {
		return err
	}
	ctrl.cfg.Peers = cfg.Peers
	ctrl.cfg.PingInterval = cfg.PingInterval
	ctrl.elector = election.New(ctrl.serverID, common.CanonicalLeaderAddress, cfg.Peers, ctrl.svr, cfg.PingInterval)
	return nil
}

// ServerID satisfies dispatch.Leader, identifying this process in
// GETSERVERID replies and election rounds.
func (ctrl *Controller) ServerID() string {
	return strconv.FormatInt(ctrl.serverID, 10)
}

// Promote satisfies dispatch.Leader: it rebinds this node's RESP server
// onto the canonical leader address in place, rather than spawning a
// replacement process.
func (ctrl *Controller) Promote(ctx context.Context) error {
	return ctrl.svr.Rebind(ctx, common.CanonicalLeaderAddress)
}

// Preload seeds the cache from a flat key,value,key,value... sequence,
// as supplied via positional command-line arguments at startup.
func (ctrl *Controller) Preload(pairs []string) error {
	if len(pairs)%2 != 0 {
		return errors.Errorf("preload requires an even number of key/value arguments, got %d", len(pairs))
	}
	for i := 0; i < len(pairs); i += 2 {
		value, err := cast.ToStringE(pairs[i+1])
		if err != nil {
			return errors.Wrapf(err, "preload value for key %q", pairs[i])
		}
		ctrl.c.Set(pairs[i], value, 0)
	}
	return nil
}

// Stop shuts down the RESP server and the admin server, aggregating any
// errors encountered.
func (ctrl *Controller) Stop() error {
	ctrl.cancel()

	var result *multierror.Error
	ctrl.svr.Shutdown()
	if ctrl.admin != nil {
		if err := ctrl.admin.Shutdown(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

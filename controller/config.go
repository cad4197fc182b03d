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

import "time"

// Config is the top-level tinykv configuration, unpacked from the
// "controller" section of the loaded YAML document.
type Config struct {
	// Address is the RESP listen address this process starts on before
	// any election takes place.
	Address string `config:"address"`

	// Capacity bounds the number of live cache entries.
	Capacity int `config:"capacity"`

	// Peers lists the other servers in the cluster, used for election
	// rounds and ping checks. Addresses are host:port.
	Peers []string `config:"peers"`

	// Leader marks this process as the initial leader, binding it
	// directly to the canonical leader address instead of waiting for
	// an election round to promote it.
	Leader bool `config:"leader"`

	// PingInterval overrides the steady-state leader ping cadence.
	PingInterval time.Duration `config:"pingInterval"`

	Admin AdminConfig `config:"admin"`
}

// AdminConfig mirrors server.AdminConfig for unpacking from YAML; New
// converts it with a plain server.AdminConfig(...) type conversion.
type AdminConfig struct {
	Enabled bool          `config:"enabled"`
	Address string        `config:"address"`
	Pprof   bool          `config:"pprof"`
	Timeout time.Duration `config:"timeout"`
}

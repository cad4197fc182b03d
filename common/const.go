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

package common

const (
	// App is the Prometheus metric namespace and log prefix shared by
	// every component.
	App = "tinykv"

	// Version is the application version string.
	Version = "v0.0.1"

	// CanonicalLeaderAddress is the well-known address the elected
	// leader binds the RESP listener to.
	CanonicalLeaderAddress = ":6379"

	// InitialReadBufferSize sizes each read from a connection into its
	// growable buffer. Larger requests simply grow the buffer rather
	// than truncate, correcting the reference implementation's fixed
	// 512-byte read limitation.
	InitialReadBufferSize = 512
)

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

// Package fasttime caches the current time so hot paths (every cache Get
// and Set) avoid a time.Now() syscall.
package fasttime

import (
	"sync/atomic"
	"time"
)

const resolution = 5 * time.Millisecond

func init() {
	go func() {
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()
		for tm := range ticker.C {
			atomic.StoreInt64(&currentMillis, tm.UnixMilli())
		}
	}()
}

var currentMillis = time.Now().UnixMilli()

// UnixMilli returns a recent (within one tick) unix millisecond timestamp.
func UnixMilli() int64 {
	return atomic.LoadInt64(&currentMillis)
}

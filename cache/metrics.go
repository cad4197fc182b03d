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

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/tinykv/common"
)

var (
	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "cache_entries",
			Help:      "current number of live entries in the cache",
		},
	)
	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "cache_evictions_total",
			Help:      "entries evicted on insert because the cache was at capacity",
		},
	)
	cacheExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "cache_expirations_total",
			Help:      "entries lazily removed on access because their TTL elapsed",
		},
	)
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "cache_hits_total",
			Help:      "Get calls that found a live entry",
		},
	)
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "cache_misses_total",
			Help:      "Get calls that found no entry or an expired one",
		},
	)
)

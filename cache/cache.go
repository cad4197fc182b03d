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
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/bytebufferpool"

	"github.com/packetd/tinykv/internal/fasttime"
	"github.com/packetd/tinykv/logger"
)

// Cache is a bounded, mutex-guarded key/value store with optional TTL,
// frequency/recency bookkeeping, and LRU eviction on insert. The zero value
// is not usable; construct with New.
type Cache struct {
	mut      sync.Mutex
	capacity int
	entries  map[string]*entry
}

// New returns a Cache bounded to capacity entries. A non-positive capacity
// is treated as 1, since a zero-capacity cache could never hold an entry
// and every Set would evict what it just inserted.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*entry, capacity),
	}
}

// Get looks up key. A present-but-expired entry is removed and treated as a
// miss. On a hit, key's recency resets to 1, every other entry's recency
// strictly increases, and key's frequency counter increments.
func (c *Cache) Get(key string) (string, bool) {
	c.mut.Lock()
	defer c.mut.Unlock()

	e, ok := c.entries[key]
	if !ok {
		cacheMisses.Inc()
		return "", false
	}

	now := fasttime.UnixMilli()
	if e.expired(now) {
		delete(c.entries, key)
		cacheExpirations.Inc()
		cacheEntries.Set(float64(len(c.entries)))
		cacheMisses.Inc()
		return "", false
	}

	e.frequency++
	c.touch(key, e)
	cacheHits.Inc()
	return e.value, true
}

// Set writes key=value, with an optional TTL expressed in milliseconds (0
// means no expiry). An existing key is overwritten in place: its frequency
// resets to 0 and its insertion time and recency reset as on a fresh
// insert. A new key that would exceed capacity triggers eviction of the
// current LRU victim first.
func (c *Cache) Set(key, value string, ttlMillis int64) {
	c.mut.Lock()
	defer c.mut.Unlock()

	now := fasttime.UnixMilli()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.ttlMillis = ttlMillis
		e.insertionTime = now
		e.frequency = 0
		c.touch(key, e)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evict()
	}

	e := &entry{
		value:         value,
		ttlMillis:     ttlMillis,
		insertionTime: now,
	}
	c.entries[key] = e
	c.touch(key, e)
	cacheEntries.Set(float64(len(c.entries)))
}

// touch resets key's recency to 1 and ages every other entry by +1. Caller
// must hold c.mut.
func (c *Cache) touch(key string, target *entry) {
	target.recency = 1
	for k, e := range c.entries {
		if k == key {
			continue
		}
		e.recency++
	}
}

// evict removes the LRU victim (largest recency). Ties break on Go's
// unspecified map iteration order, which the spec permits.
//
// The LFU candidate (smallest frequency) is computed alongside but never
// used to pick a victim — the reference implementation this cache is
// compatible with does the same unused computation, and the test suite
// assumes pure LRU semantics.
func (c *Cache) evict() {
	var lruKey string
	var lruRecency int64 = -1

	var lfuKey string
	var lfuFrequency int64 = -1

	for k, e := range c.entries {
		if e.recency > lruRecency {
			lruRecency = e.recency
			lruKey = k
		}
		if lfuFrequency == -1 || e.frequency < lfuFrequency {
			lfuFrequency = e.frequency
			lfuKey = k
		}
	}
	_ = lfuKey // computed, never used to choose a victim; see doc comment above

	if lruKey != "" {
		delete(c.entries, lruKey)
		cacheEvictions.Inc()
	}
}

// Remove deletes each whitespace-separated key in tokens that exists,
// returning the count actually removed.
func (c *Cache) Remove(tokens string) int {
	c.mut.Lock()
	defer c.mut.Unlock()

	var n int
	for _, key := range strings.Fields(tokens) {
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			n++
		}
	}
	cacheEntries.Set(float64(len(c.entries)))
	return n
}

// Snapshot returns a parallel pair of key/value sequences for replica
// bootstrap, in unspecified order. Expired entries are skipped rather than
// lazily removed, since Snapshot is a read-only operation.
func (c *Cache) Snapshot() ([]string, []string) {
	c.mut.Lock()
	defer c.mut.Unlock()

	now := fasttime.UnixMilli()
	keys := make([]string, 0, len(c.entries))
	values := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if e.expired(now) {
			continue
		}
		keys = append(keys, k)
		values = append(values, e.value)
	}
	return keys, values
}

// LogSnapshotChecksum hashes the current snapshot with xxhash and logs it.
// The checksum is a diagnostic aid only — it is never sent over the wire.
func (c *Cache) LogSnapshotChecksum() {
	keys, values := c.Snapshot()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for i := range keys {
		buf.WriteString(keys[i])
		buf.WriteByte(0xff)
		buf.WriteString(values[i])
		buf.WriteByte(0xff)
	}

	logger.Debugf("sync snapshot: %d keys, checksum=%x", len(keys), xxhash.Sum64(buf.Bytes()))
}

// Len returns the current entry count, including not-yet-expired entries.
func (c *Cache) Len() int {
	c.mut.Lock()
	defer c.mut.Unlock()
	return len(c.entries)
}

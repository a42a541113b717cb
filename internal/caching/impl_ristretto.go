// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package caching

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/setup/config"
)

// Single-byte prefixes keep the partitions distinct inside the shared
// ristretto keyspace.
const (
	roomDisplayNameCache byte = iota + 1
	redactedEventCache
)

// NewRistrettoCache creates a new cache instance with the given maximum size
// in bytes and maximum age for entries, with all partitions sharing the one
// budget.
func NewRistrettoCache(maxCost config.DataUnit, maxAge time.Duration, enablePrometheus bool) *Caches {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64((maxCost / 1024) * 10),
		BufferItems: 64,
		MaxCost:     int64(maxCost),
		Metrics:     true,
	})
	if err != nil {
		panic(err)
	}
	if enablePrometheus {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "matrixsdk",
			Subsystem: "caching_ristretto",
			Name:      "ratio",
		}, func() float64 {
			return float64(cache.Metrics.Ratio())
		})
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "matrixsdk",
			Subsystem: "caching_ristretto",
			Name:      "cost",
		}, func() float64 {
			return float64(cache.Metrics.CostAdded() - cache.Metrics.CostEvicted())
		})
	}
	return &Caches{
		RoomDisplayNames: &RistrettoCachePartition[id.RoomID, string]{
			cache:   cache,
			Prefix:  roomDisplayNameCache,
			Mutable: true,
			MaxAge:  maxAge,
		},
		RedactedEvents: &RistrettoCachePartition[id.EventID, id.EventID]{
			cache:  cache,
			Prefix: redactedEventCache,
			MaxAge: maxAge,
		},
	}
}

// RistrettoCachePartition is one partition of the shared ristretto cache. An
// immutable partition panics if an existing entry is overwritten with a
// different value, which catches callers caching things that are not as
// stable as they assumed.
type RistrettoCachePartition[K keyable, V comparable] struct {
	cache   *ristretto.Cache
	Prefix  byte
	Mutable bool
	MaxAge  time.Duration
}

func (c *RistrettoCachePartition[K, V]) Set(key K, value V) {
	bkey := fmt.Sprintf("%c%v", c.Prefix, key)
	if !c.Mutable {
		if entry, ok := c.cache.Get(bkey); ok {
			if existing, ok := entry.(V); ok && existing != value {
				panic(fmt.Sprintf("invalid use of immutable cache tries to replace value of %v", bkey))
			}
		}
	}
	cost := int64(len(bkey)) + int64(len(fmt.Sprintf("%v", value)))
	c.cache.SetWithTTL(bkey, value, cost, c.MaxAge)
}

func (c *RistrettoCachePartition[K, V]) Unset(key K) {
	bkey := fmt.Sprintf("%c%v", c.Prefix, key)
	if !c.Mutable {
		panic(fmt.Sprintf("invalid use of immutable cache tries to unset value of %v", bkey))
	}
	c.cache.Del(bkey)
}

func (c *RistrettoCachePartition[K, V]) Get(key K) (value V, ok bool) {
	bkey := fmt.Sprintf("%c%v", c.Prefix, key)
	entry, ok := c.cache.Get(bkey)
	if !ok {
		return value, false
	}
	value, ok = entry.(V)
	return value, ok
}

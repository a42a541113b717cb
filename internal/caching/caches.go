// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package caching keeps client-side derived data that is expensive to
// recompute but cheap to throw away: computed room display names and the
// record of which events have been redacted.
package caching

import "maunium.net/go/mautrix/id"

// Caches contains a set of named cache partitions sharing one underlying
// cache budget.
type Caches struct {
	// RoomDisplayNames caches the computed display name of a room, keyed
	// by room ID. Evicted whenever a state event that feeds the name
	// computation arrives.
	RoomDisplayNames Cache[id.RoomID, string]
	// RedactedEvents maps a redacted event ID to the redaction event that
	// removed it, so late-arriving copies of the event can be pruned.
	RedactedEvents Cache[id.EventID, id.EventID]
}

// Cache is the interface that an individual cache partition satisfies.
type Cache[K keyable, V any] interface {
	// Get the value at the given key, returning true if found.
	Get(key K) (value V, ok bool)
	// Set the value at the given key.
	Set(key K, value V)
	// Unset removes the key, if the partition allows mutation.
	Unset(key K)
}

type keyable interface {
	~string | ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

const (
	// EnableMetrics exports cache hit ratios to Prometheus.
	EnableMetrics = true
	// DisableMetrics keeps cache accounting internal.
	DisableMetrics = false
)

// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package caching

import "maunium.net/go/mautrix/id"

// RoomDisplayNameCache caches computed room display names.
type RoomDisplayNameCache interface {
	GetRoomDisplayName(roomID id.RoomID) (name string, ok bool)
	StoreRoomDisplayName(roomID id.RoomID, name string)
	// EvictRoomDisplayName discards the computed name after a state change
	// that feeds the name computation.
	EvictRoomDisplayName(roomID id.RoomID)
}

func (c Caches) GetRoomDisplayName(roomID id.RoomID) (string, bool) {
	return c.RoomDisplayNames.Get(roomID)
}

func (c Caches) StoreRoomDisplayName(roomID id.RoomID, name string) {
	c.RoomDisplayNames.Set(roomID, name)
}

func (c Caches) EvictRoomDisplayName(roomID id.RoomID) {
	c.RoomDisplayNames.Unset(roomID)
}

// RedactedEventCache remembers which events have been redacted within the
// cache window, keyed by the redacted event's ID.
type RedactedEventCache interface {
	GetEventRedactedBy(eventID id.EventID) (redactedBy id.EventID, ok bool)
	StoreEventRedactedBy(eventID, redactedBy id.EventID)
}

func (c Caches) GetEventRedactedBy(eventID id.EventID) (id.EventID, bool) {
	return c.RedactedEvents.Get(eventID)
}

func (c Caches) StoreEventRedactedBy(eventID, redactedBy id.EventID) {
	c.RedactedEvents.Set(eventID, redactedBy)
}

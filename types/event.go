// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package types

import (
	"encoding/json"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"maunium.net/go/mautrix/id"
)

// Event types that the room-level client state machine cares about but that
// gomatrixserverlib/spec does not export constants for. State event types
// that spec does export (spec.MRoomMember, spec.MRoomName, ...) are used
// directly.
const (
	MRoomMessage    = "m.room.message"
	MRoomTopic      = "m.room.topic"
	MRoomAliases    = "m.room.aliases"
	MRoomRedaction  = "m.room.redaction"
	MTyping         = "m.typing"
	MPresence       = "m.presence"
)

// Direction classifies an incoming event relative to the room timeline.
type Direction int

const (
	// DirectionForwards is for events coming down the live event stream.
	DirectionForwards Direction = iota
	// DirectionBackwards is for old events requested through pagination.
	DirectionBackwards
)

func (d Direction) String() string {
	if d == DirectionBackwards {
		return "backwards"
	}
	return "forwards"
}

// Event is a single client-server API event. The wire fields follow the
// room-level event format returned by /initialSync and /messages.
type Event struct {
	ID             id.EventID      `json:"event_id,omitempty"`
	RoomID         id.RoomID       `json:"room_id,omitempty"`
	Sender         id.UserID       `json:"user_id,omitempty"`
	Type           string          `json:"type"`
	StateKey       *string         `json:"state_key,omitempty"`
	Content        json.RawMessage `json:"content,omitempty"`
	Redacts        id.EventID      `json:"redacts,omitempty"`
	PrevContent    json.RawMessage `json:"prev_content,omitempty"`
	OriginServerTS spec.Timestamp  `json:"origin_server_ts,omitempty"`

	// Local bookkeeping for outgoing messages. These fields exist only on
	// locally synthesised or locally annotated events and are never
	// serialised to the wire.
	Unsent          bool              `json:"-"`
	Sending         bool              `json:"-"`
	SendError       error             `json:"-"`
	SendMatrixError *spec.MatrixError `json:"-"`
}

// IsState reports whether the event carries a state key, i.e. whether
// applying it replaces room-level state.
func (e *Event) IsState() bool {
	return e.StateKey != nil
}

// StateKeyOrEmpty returns the state key, or "" for non-state events.
func (e *Event) StateKeyOrEmpty() string {
	if e.StateKey == nil {
		return ""
	}
	return *e.StateKey
}

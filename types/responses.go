// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package types

import "maunium.net/go/mautrix/id"

// Message is the content of an outgoing m.room.message event.
type Message struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// TokensChunkResponse is a bounded slice of a room's timeline, as returned
// by a history request. Start and End are opaque pagination tokens issued by
// the server; End positions the next backward fetch.
type TokensChunkResponse struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Chunk []*Event `json:"chunk"`
}

// RoomResponse is the result of a room-level initial sync: the latest
// messages, the state events describing the current room state, and the
// pagination token to continue fetching history from.
type RoomResponse struct {
	RoomID     id.RoomID            `json:"room_id"`
	Messages   *TokensChunkResponse `json:"messages,omitempty"`
	State      []*Event             `json:"state,omitempty"`
	Visibility string               `json:"visibility,omitempty"`
	Membership string               `json:"membership,omitempty"`
}

// User carries the presence-level view of a user, delivered alongside
// m.presence events.
type User struct {
	UserID        id.UserID `json:"user_id"`
	DisplayName   string    `json:"displayname,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Presence      string    `json:"presence,omitempty"`
	LastActiveAgo int64     `json:"last_active_ago,omitempty"`
}

// BannedUser is the request body for banning a user from a room.
type BannedUser struct {
	UserID id.UserID `json:"user_id"`
	Reason string    `json:"reason,omitempty"`
}

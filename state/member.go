// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package state

import "maunium.net/go/mautrix/id"

// RoomMember is the room-level view of a user, built from m.room.member
// state events.
type RoomMember struct {
	UserID      id.UserID `json:"user_id"`
	DisplayName string    `json:"displayname,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Membership  string    `json:"membership"`
}

// Name returns the member's display name, falling back to their user ID.
func (m *RoomMember) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.UserID.String()
}

// DeepCopy returns an independent copy of the member record.
func (m *RoomMember) DeepCopy() *RoomMember {
	if m == nil {
		return nil
	}
	copied := *m
	return &copied
}

// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package test contains fixtures and collaborator fakes shared by the
// package tests.
package test

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/types"
)

var eventIDCounter uint64

func nextEventID() id.EventID {
	return id.EventID(fmt.Sprintf("$ev%d:test", atomic.AddUint64(&eventIDCounter, 1)))
}

// NewMessageEvent builds an m.room.message text event.
func NewMessageEvent(roomID id.RoomID, sender id.UserID, body string) *types.Event {
	content, _ := json.Marshal(types.Message{MsgType: "m.text", Body: body})
	return &types.Event{
		ID:             nextEventID(),
		RoomID:         roomID,
		Sender:         sender,
		Type:           types.MRoomMessage,
		Content:        content,
		OriginServerTS: spec.AsTimestamp(time.Now()),
	}
}

// NewStateEvent builds a state event with raw JSON content.
func NewStateEvent(roomID id.RoomID, eventType, stateKey string, sender id.UserID, content string) *types.Event {
	return &types.Event{
		ID:             nextEventID(),
		RoomID:         roomID,
		Sender:         sender,
		Type:           eventType,
		StateKey:       &stateKey,
		Content:        json.RawMessage(content),
		OriginServerTS: spec.AsTimestamp(time.Now()),
	}
}

// NewMemberEvent builds an m.room.member event for the given user.
func NewMemberEvent(roomID id.RoomID, userID id.UserID, membership, displayName string) *types.Event {
	content, _ := json.Marshal(map[string]string{
		"membership":  membership,
		"displayname": displayName,
	})
	return NewStateEvent(roomID, spec.MRoomMember, string(userID), userID, string(content))
}

// NewTypingEvent builds an m.typing event listing the given users.
func NewTypingEvent(roomID id.RoomID, userIDs ...id.UserID) *types.Event {
	content, _ := json.Marshal(map[string][]id.UserID{"user_ids": userIDs})
	return &types.Event{
		ID:             nextEventID(),
		RoomID:         roomID,
		Type:           types.MTyping,
		Content:        content,
		OriginServerTS: spec.AsTimestamp(time.Now()),
	}
}

// NewRedactionEvent builds an m.room.redaction event pointing at target.
func NewRedactionEvent(roomID id.RoomID, sender id.UserID, target id.EventID) *types.Event {
	return &types.Event{
		ID:             nextEventID(),
		RoomID:         roomID,
		Sender:         sender,
		Type:           types.MRoomRedaction,
		Redacts:        target,
		Content:        json.RawMessage(`{}`),
		OriginServerTS: spec.AsTimestamp(time.Now()),
	}
}

// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package api

import (
	"context"
	"time"

	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/state"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// Transport is the room-level slice of the client-server REST API. Every
// call returns immediately; the outcome is reported later through the
// callback. The context bounds the underlying request, so a caller can
// cancel a fetch that would otherwise hang forever.
type Transport interface {
	// SendMessage sends an m.room.message event. The transaction ID makes
	// retries of the same logical message idempotent server-side.
	SendMessage(ctx context.Context, roomID id.RoomID, txnID string, message types.Message, cb *Callback[*types.Event])

	// RequestRoomHistory fetches a page of older events, walking backwards
	// from the given pagination token. An empty token starts from the live
	// frontier.
	RequestRoomHistory(ctx context.Context, roomID id.RoomID, fromToken string, cb *Callback[*types.TokensChunkResponse])

	JoinRoom(ctx context.Context, roomID id.RoomID, cb *Callback[Void])
	InitialSync(ctx context.Context, roomID id.RoomID, cb *Callback[*types.RoomResponse])
	InviteToRoom(ctx context.Context, roomID id.RoomID, userID id.UserID, cb *Callback[Void])
	LeaveRoom(ctx context.Context, roomID id.RoomID, cb *Callback[Void])
	KickFromRoom(ctx context.Context, roomID id.RoomID, userID id.UserID, cb *Callback[Void])
	BanFromRoom(ctx context.Context, roomID id.RoomID, banned types.BannedUser, cb *Callback[Void])
	UpdatePowerLevels(ctx context.Context, roomID id.RoomID, powerLevels *state.PowerLevels, cb *Callback[Void])
	UpdateName(ctx context.Context, roomID id.RoomID, name string, cb *Callback[Void])
	UpdateTopic(ctx context.Context, roomID id.RoomID, topic string, cb *Callback[Void])
	Redact(ctx context.Context, roomID id.RoomID, eventID id.EventID, cb *Callback[*types.Event])
	SendTypingNotification(ctx context.Context, roomID id.RoomID, userID id.UserID, typing bool, timeout time.Duration, cb *Callback[Void])
}

// Store persists events and answers the one query the delivery pipeline
// needs: which events for a room are still waiting to be sent. The unsent
// and sending flags on returned events are live records, not snapshots:
// flag changes made by the caller must be visible to later queries within
// the same process, since the mid-send flag is the guard against concurrent
// resend passes.
type Store interface {
	StoreLiveEvent(event *types.Event) error
	DeleteEvent(event *types.Event) error
	// Event returns a stored event by ID, or nil without error when the
	// store has never seen it.
	Event(roomID id.RoomID, eventID id.EventID) (*types.Event, error)
	// LatestUnsentEvents returns the room's unsent events in their original
	// send order.
	LatestUnsentEvents(roomID id.RoomID) ([]*types.Event, error)
}

// EventListener receives the protocol events a client cares about. Implement
// it directly, or embed ListenerFuncs for the callbacks you need.
type EventListener interface {
	OnPresenceUpdate(event *types.Event, user *types.User)
	OnLiveEvent(event *types.Event, roomState *state.RoomState)
	OnBackEvent(event *types.Event, roomState *state.RoomState)
	OnDeletedEvent(event *types.Event)
}

// ListenerFuncs is an EventListener built from optional funcs. Nil funcs
// drop the corresponding callback.
type ListenerFuncs struct {
	PresenceUpdate func(event *types.Event, user *types.User)
	LiveEvent      func(event *types.Event, roomState *state.RoomState)
	BackEvent      func(event *types.Event, roomState *state.RoomState)
	DeletedEvent   func(event *types.Event)
}

func (l *ListenerFuncs) OnPresenceUpdate(event *types.Event, user *types.User) {
	if l.PresenceUpdate != nil {
		l.PresenceUpdate(event, user)
	}
}

func (l *ListenerFuncs) OnLiveEvent(event *types.Event, roomState *state.RoomState) {
	if l.LiveEvent != nil {
		l.LiveEvent(event, roomState)
	}
}

func (l *ListenerFuncs) OnBackEvent(event *types.Event, roomState *state.RoomState) {
	if l.BackEvent != nil {
		l.BackEvent(event, roomState)
	}
}

func (l *ListenerFuncs) OnDeletedEvent(event *types.Event) {
	if l.DeletedEvent != nil {
		l.DeletedEvent(event)
	}
}

// RoomProcessor is the part of a room the router drives when applying the
// result of a room-level initial sync.
type RoomProcessor interface {
	ProcessLiveState(events []*types.Event)
	SetLiveToken(token string)
	SetVisibility(visibility string)
	LiveStateCopy() *state.RoomState
}

// Router is the global event router shared across all rooms. It owns the
// listener set: rooms register wrapped, room-scoped listeners with it and
// deregister them when the room goes away. The On* methods fan incoming
// events out to every registered listener.
type Router interface {
	AddListener(listener EventListener)
	RemoveListener(listener EventListener)

	OnPresenceUpdate(event *types.Event, user *types.User)
	OnLiveEvent(event *types.Event, roomState *state.RoomState)
	OnBackEvent(event *types.Event, roomState *state.RoomState)
	OnDeletedEvent(event *types.Event)

	HandleInitialRoomResponse(response *types.RoomResponse, room RoomProcessor)
}

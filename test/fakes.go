// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package test

import (
	"context"
	"sync"
	"time"

	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/state"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// Transport is a scriptable api.Transport. Only the funcs a test sets are
// live; calls to unset funcs are swallowed, so their callbacks never fire.
// Calls are done synchronously on the caller's goroutine, which keeps test
// assertions sequential.
type Transport struct {
	SendMessageFunc        func(roomID id.RoomID, txnID string, message types.Message, cb *api.Callback[*types.Event])
	RequestRoomHistoryFunc func(roomID id.RoomID, fromToken string, cb *api.Callback[*types.TokensChunkResponse])
	JoinRoomFunc           func(roomID id.RoomID, cb *api.Callback[api.Void])
	InitialSyncFunc        func(roomID id.RoomID, cb *api.Callback[*types.RoomResponse])
	InviteToRoomFunc       func(roomID id.RoomID, userID id.UserID, cb *api.Callback[api.Void])
	LeaveRoomFunc          func(roomID id.RoomID, cb *api.Callback[api.Void])
	KickFromRoomFunc       func(roomID id.RoomID, userID id.UserID, cb *api.Callback[api.Void])
	BanFromRoomFunc        func(roomID id.RoomID, banned types.BannedUser, cb *api.Callback[api.Void])
	UpdatePowerLevelsFunc  func(roomID id.RoomID, powerLevels *state.PowerLevels, cb *api.Callback[api.Void])
	UpdateNameFunc         func(roomID id.RoomID, name string, cb *api.Callback[api.Void])
	UpdateTopicFunc        func(roomID id.RoomID, topic string, cb *api.Callback[api.Void])
	RedactFunc             func(roomID id.RoomID, eventID id.EventID, cb *api.Callback[*types.Event])
	SendTypingFunc         func(roomID id.RoomID, userID id.UserID, typing bool, timeout time.Duration, cb *api.Callback[api.Void])

	// LastHistoryContext records the context of the most recent history
	// request, so tests can inspect the deadline placed on it.
	LastHistoryContext context.Context
}

func (t *Transport) SendMessage(_ context.Context, roomID id.RoomID, txnID string, message types.Message, cb *api.Callback[*types.Event]) {
	if t.SendMessageFunc != nil {
		t.SendMessageFunc(roomID, txnID, message, cb)
	}
}

func (t *Transport) RequestRoomHistory(ctx context.Context, roomID id.RoomID, fromToken string, cb *api.Callback[*types.TokensChunkResponse]) {
	t.LastHistoryContext = ctx
	if t.RequestRoomHistoryFunc != nil {
		t.RequestRoomHistoryFunc(roomID, fromToken, cb)
	}
}

func (t *Transport) JoinRoom(_ context.Context, roomID id.RoomID, cb *api.Callback[api.Void]) {
	if t.JoinRoomFunc != nil {
		t.JoinRoomFunc(roomID, cb)
	}
}

func (t *Transport) InitialSync(_ context.Context, roomID id.RoomID, cb *api.Callback[*types.RoomResponse]) {
	if t.InitialSyncFunc != nil {
		t.InitialSyncFunc(roomID, cb)
	}
}

func (t *Transport) InviteToRoom(_ context.Context, roomID id.RoomID, userID id.UserID, cb *api.Callback[api.Void]) {
	if t.InviteToRoomFunc != nil {
		t.InviteToRoomFunc(roomID, userID, cb)
	}
}

func (t *Transport) LeaveRoom(_ context.Context, roomID id.RoomID, cb *api.Callback[api.Void]) {
	if t.LeaveRoomFunc != nil {
		t.LeaveRoomFunc(roomID, cb)
	}
}

func (t *Transport) KickFromRoom(_ context.Context, roomID id.RoomID, userID id.UserID, cb *api.Callback[api.Void]) {
	if t.KickFromRoomFunc != nil {
		t.KickFromRoomFunc(roomID, userID, cb)
	}
}

func (t *Transport) BanFromRoom(_ context.Context, roomID id.RoomID, banned types.BannedUser, cb *api.Callback[api.Void]) {
	if t.BanFromRoomFunc != nil {
		t.BanFromRoomFunc(roomID, banned, cb)
	}
}

func (t *Transport) UpdatePowerLevels(_ context.Context, roomID id.RoomID, powerLevels *state.PowerLevels, cb *api.Callback[api.Void]) {
	if t.UpdatePowerLevelsFunc != nil {
		t.UpdatePowerLevelsFunc(roomID, powerLevels, cb)
	}
}

func (t *Transport) UpdateName(_ context.Context, roomID id.RoomID, name string, cb *api.Callback[api.Void]) {
	if t.UpdateNameFunc != nil {
		t.UpdateNameFunc(roomID, name, cb)
	}
}

func (t *Transport) UpdateTopic(_ context.Context, roomID id.RoomID, topic string, cb *api.Callback[api.Void]) {
	if t.UpdateTopicFunc != nil {
		t.UpdateTopicFunc(roomID, topic, cb)
	}
}

func (t *Transport) Redact(_ context.Context, roomID id.RoomID, eventID id.EventID, cb *api.Callback[*types.Event]) {
	if t.RedactFunc != nil {
		t.RedactFunc(roomID, eventID, cb)
	}
}

func (t *Transport) SendTypingNotification(_ context.Context, roomID id.RoomID, userID id.UserID, typing bool, timeout time.Duration, cb *api.Callback[api.Void]) {
	if t.SendTypingFunc != nil {
		t.SendTypingFunc(roomID, userID, typing, timeout, cb)
	}
}

// Router is a recording api.Router. It fans events out to registered
// listeners like the real router and additionally keeps every event it saw,
// in order.
type Router struct {
	mu        sync.Mutex
	listeners map[api.EventListener]struct{}

	LiveEvents    []*types.Event
	BackEvents    []*types.Event
	DeletedEvents []*types.Event
}

func NewRouter() *Router {
	return &Router{listeners: map[api.EventListener]struct{}{}}
}

func (r *Router) AddListener(listener api.EventListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[listener] = struct{}{}
}

func (r *Router) RemoveListener(listener api.EventListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, listener)
}

// ListenerCount reports how many listeners are currently registered.
func (r *Router) ListenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func (r *Router) snapshot() []api.EventListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	listeners := make([]api.EventListener, 0, len(r.listeners))
	for listener := range r.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}

func (r *Router) OnPresenceUpdate(event *types.Event, user *types.User) {
	for _, listener := range r.snapshot() {
		listener.OnPresenceUpdate(event, user)
	}
}

func (r *Router) OnLiveEvent(event *types.Event, roomState *state.RoomState) {
	r.mu.Lock()
	r.LiveEvents = append(r.LiveEvents, event)
	r.mu.Unlock()
	for _, listener := range r.snapshot() {
		listener.OnLiveEvent(event, roomState)
	}
}

func (r *Router) OnBackEvent(event *types.Event, roomState *state.RoomState) {
	r.mu.Lock()
	r.BackEvents = append(r.BackEvents, event)
	r.mu.Unlock()
	for _, listener := range r.snapshot() {
		listener.OnBackEvent(event, roomState)
	}
}

func (r *Router) OnDeletedEvent(event *types.Event) {
	r.mu.Lock()
	r.DeletedEvents = append(r.DeletedEvents, event)
	r.mu.Unlock()
	for _, listener := range r.snapshot() {
		listener.OnDeletedEvent(event)
	}
}

// HandleInitialRoomResponse mirrors the production router: state first,
// then the messages chunk as live events.
func (r *Router) HandleInitialRoomResponse(response *types.RoomResponse, room api.RoomProcessor) {
	if response == nil {
		return
	}
	room.SetVisibility(response.Visibility)
	room.ProcessLiveState(response.State)
	if response.Messages == nil {
		return
	}
	room.SetLiveToken(response.Messages.Start)
	for _, event := range response.Messages.Chunk {
		if event.IsState() {
			room.ProcessLiveState([]*types.Event{event})
		}
		r.OnLiveEvent(event, room.LiveStateCopy())
	}
}

// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package room implements the synchronisation core for a single room: the
// dual live/back state model, history pagination, room-scoped event
// filtering, and the outgoing-message delivery pipeline.
//
// State mutation is single-writer per room: the live state is written only
// by the reconciler as events come down the live stream, the back state only
// by the pagination engine. The router is expected to deliver inbound events
// for one room sequentially. Everything handed to listeners is a deep copy,
// so readers never observe a state mid-mutation.
package room

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/internal/caching"
	"github.com/andresMoreno96/matrix-android-sdk/setup/config"
	"github.com/andresMoreno96/matrix-android-sdk/state"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// Room is a room and the interactions we have with it.
type Room struct {
	roomID   id.RoomID
	myUserID id.UserID

	transport api.Transport
	store     api.Store
	router    api.Router
	caches    caching.RoomDisplayNameCache

	// historyTimeout bounds a single history request. Zero disables the
	// client-side bound.
	historyTimeout time.Duration

	stateMu   sync.Mutex
	liveState *state.RoomState
	backState *state.RoomState

	// ready blocks live events and history requests until the initial
	// state snapshot has been fully applied.
	ready       atomic.Bool
	paginating  atomic.Bool
	canPaginate atomic.Bool

	typingMu    sync.RWMutex
	typingUsers []id.UserID

	// listeners tracks the caller's listeners against the room-scoped
	// wrappers actually registered with the router, so removal can find
	// the right wrapper to deregister.
	listenersMu sync.Mutex
	listeners   map[api.EventListener]api.EventListener

	// txnResults remembers completed send transactions so a duplicate
	// resend pass cannot send the same unsent event twice.
	txnResults *cache.Cache

	sentryEnabled bool
}

// NewRoom creates the synchronisation core for one room. The transport,
// store and router collaborators are shared across rooms and owned by the
// caller.
func NewRoom(cfg *config.Client, roomID id.RoomID, transport api.Transport, store api.Store, router api.Router, caches caching.RoomDisplayNameCache) *Room {
	r := &Room{
		roomID:         roomID,
		myUserID:       cfg.UserID,
		transport:      transport,
		store:          store,
		router:         router,
		caches:         caches,
		historyTimeout: cfg.PaginationRequestTimeout,
		liveState:      state.NewRoomState(roomID),
		backState:      state.NewRoomState(roomID),
		listeners:      map[api.EventListener]api.EventListener{},
		txnResults:     cache.New(cfg.TransactionIDLifetime, time.Minute*5),
		sentryEnabled:  cfg.Sentry.Enabled,
	}
	r.canPaginate.Store(true)
	return r
}

// ID returns the room identifier.
func (r *Room) ID() id.RoomID {
	return r.roomID
}

// LiveState returns the room's live state. The returned value is the
// internal instance: callers that hold onto it across callbacks should take
// a DeepCopy.
func (r *Room) LiveState() *state.RoomState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.liveState
}

// LiveStateCopy returns an independent snapshot of the live state.
func (r *Room) LiveStateCopy() *state.RoomState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.liveState.DeepCopy()
}

// Topic returns the room's topic from live state.
func (r *Room) Topic() string {
	return r.LiveState().Topic
}

// Visibility returns the room's published visibility.
func (r *Room) Visibility() string {
	return r.LiveState().Visibility
}

// SetVisibility records the room's published visibility on live state.
func (r *Room) SetVisibility(visibility string) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.liveState.Visibility = visibility
}

// Name returns a display name for the room from the perspective of the
// given user. The name computed for the client's own user is cached until a
// state change that feeds the computation evicts it.
func (r *Room) Name(selfUserID id.UserID) string {
	if selfUserID != r.myUserID {
		return r.LiveState().DisplayName(selfUserID)
	}
	if name, ok := r.caches.GetRoomDisplayName(r.roomID); ok {
		return name
	}
	name := r.LiveState().DisplayName(selfUserID)
	r.caches.StoreRoomDisplayName(r.roomID, name)
	return name
}

// Member returns the live member record for a user, or nil.
func (r *Room) Member(userID id.UserID) *state.RoomMember {
	return r.LiveState().Member(userID)
}

// Members returns the room's current members.
func (r *Room) Members() []*state.RoomMember {
	return r.LiveState().Members()
}

// SetMember stores a member record on live state.
func (r *Room) SetMember(userID id.UserID, member *state.RoomMember) {
	r.LiveState().SetMember(userID, member)
}

// IsReady reports whether the initial state snapshot has been applied.
func (r *Room) IsReady() bool {
	return r.ready.Load()
}

// IsPaginating reports whether a history request is in flight.
func (r *Room) IsPaginating() bool {
	return r.paginating.Load()
}

// CanStillPaginate reports whether the server may have more history for
// this room.
func (r *Room) CanStillPaginate() bool {
	return r.canPaginate.Load()
}

// TypingUsers returns the users currently typing, as of the last typing
// notification. Never nil.
func (r *Room) TypingUsers() []id.UserID {
	r.typingMu.RLock()
	defer r.typingMu.RUnlock()
	return append([]id.UserID{}, r.typingUsers...)
}

// ProcessStateEvent applies a single state event to the live or back state,
// depending on the direction the event arrived from.
func (r *Room) ProcessStateEvent(event *types.Event, direction types.Direction) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	affected := r.liveState
	if direction == types.DirectionBackwards {
		affected = r.backState
	}
	affected.ApplyState(event, direction)
}

// ProcessLiveState applies the initial batch of state events describing the
// room. Only once the whole batch has been applied is the room considered
// ready to pass live events on to listeners.
func (r *Room) ProcessLiveState(events []*types.Event) {
	for _, event := range events {
		r.ProcessStateEvent(event, types.DirectionForwards)
	}
	r.ready.Store(true)
	log.WithFields(log.Fields{
		"room_id":      r.roomID,
		"state_events": len(events),
	}).Debug("Room state processed, room is ready")
}

// InitHistory resets the back state so that future history requests start
// over from the live frontier. Call it when opening a room if interested in
// history.
func (r *Room) InitHistory() {
	r.stateMu.Lock()
	r.backState = r.liveState.DeepCopy()
	r.stateMu.Unlock()
	r.canPaginate.Store(true)
}

// SetLiveToken seeds the live state's pagination token, typically from the
// initial sync response. InitHistory copies it into the back state.
func (r *Room) SetLiveToken(token string) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.liveState.Token = token
}

// backToken returns the token to resume backward pagination from.
func (r *Room) backToken() string {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.backState.Token
}

// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package room

import (
	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/internal/eventutil"
	"github.com/andresMoreno96/matrix-android-sdk/state"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// AddEventListener registers a listener for this room. Only events relative
// to the room come down: the listener is wrapped in a room-scoped filter and
// the wrapper is what gets registered with the shared router.
func (r *Room) AddEventListener(listener api.EventListener) {
	wrapped := &roomEventListener{room: r, inner: listener}
	r.listenersMu.Lock()
	r.listeners[listener] = wrapped
	r.listenersMu.Unlock()
	r.router.AddListener(wrapped)
}

// RemoveEventListener deregisters a listener previously passed to
// AddEventListener.
func (r *Room) RemoveEventListener(listener api.EventListener) {
	r.listenersMu.Lock()
	wrapped, ok := r.listeners[listener]
	delete(r.listeners, listener)
	r.listenersMu.Unlock()
	if ok {
		r.router.RemoveListener(wrapped)
	}
}

// roomEventListener filters the global event stream down to one room before
// forwarding to the caller's listener.
type roomEventListener struct {
	room  *Room
	inner api.EventListener
}

func (l *roomEventListener) OnPresenceUpdate(event *types.Event, user *types.User) {
	// Only pass the update through if the user is a member of the room,
	// checked against live membership at delivery time.
	if l.room.Member(user.UserID) == nil {
		return
	}
	l.inner.OnPresenceUpdate(event, user)
}

func (l *roomEventListener) OnLiveEvent(event *types.Event, roomState *state.RoomState) {
	// Filter out events for other rooms, and all live events until the
	// room has finished being set up.
	if event.RoomID != l.room.roomID || !l.room.ready.Load() {
		return
	}
	if event.Type == types.MTyping {
		// Typing notifications are neither room messages nor state,
		// just volatile information. Update local typing state, then
		// forward the raw event as usual.
		l.room.replaceTypingUsers(event)
	}
	l.inner.OnLiveEvent(event, roomState)
}

func (l *roomEventListener) OnBackEvent(event *types.Event, roomState *state.RoomState) {
	if event.RoomID != l.room.roomID {
		return
	}
	l.inner.OnBackEvent(event, roomState)
}

func (l *roomEventListener) OnDeletedEvent(event *types.Event) {
	if event.RoomID != l.room.roomID {
		return
	}
	l.inner.OnDeletedEvent(event)
}

// replaceTypingUsers swaps the typing list wholesale for the user_ids of a
// typing notification. Malformed or missing payloads reset the list to
// empty, never nil.
func (r *Room) replaceTypingUsers(event *types.Event) {
	users := eventutil.UserIDs(event.Content)
	r.typingMu.Lock()
	r.typingUsers = users
	r.typingMu.Unlock()
}

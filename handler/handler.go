// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package handler provides the shared event router sitting between the
// event stream and the per-room synchronisation cores. It owns the global
// listener set, persists events as they arrive, and applies the cross-event
// bookkeeping (redactions, display name invalidation) that individual rooms
// do not see enough of the stream to do themselves.
package handler

import (
	"sync"

	"github.com/matrix-org/gomatrixserverlib/spec"
	log "github.com/sirupsen/logrus"

	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/internal/caching"
	"github.com/andresMoreno96/matrix-android-sdk/internal/eventutil"
	"github.com/andresMoreno96/matrix-android-sdk/state"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// Handler implements api.Router.
type Handler struct {
	store  api.Store
	caches *caching.Caches

	listenersMu sync.RWMutex
	listeners   map[api.EventListener]struct{}
}

func NewHandler(store api.Store, caches *caching.Caches) *Handler {
	return &Handler{
		store:     store,
		caches:    caches,
		listeners: map[api.EventListener]struct{}{},
	}
}

// AddListener registers a listener. Registering the same listener twice is
// a no-op.
func (h *Handler) AddListener(listener api.EventListener) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners[listener] = struct{}{}
}

// RemoveListener deregisters a listener. Unknown listeners are ignored.
func (h *Handler) RemoveListener(listener api.EventListener) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	delete(h.listeners, listener)
}

// forEachListener calls fn for every registered listener, against a
// snapshot of the set so listeners may add or remove themselves from
// within a callback.
func (h *Handler) forEachListener(fn func(api.EventListener)) {
	h.listenersMu.RLock()
	listeners := make([]api.EventListener, 0, len(h.listeners))
	for listener := range h.listeners {
		listeners = append(listeners, listener)
	}
	h.listenersMu.RUnlock()
	for _, listener := range listeners {
		fn(listener)
	}
}

func (h *Handler) OnPresenceUpdate(event *types.Event, user *types.User) {
	h.forEachListener(func(l api.EventListener) {
		l.OnPresenceUpdate(event, user)
	})
}

// OnLiveEvent persists a live event, applies its cross-event effects, and
// fans it out. Ephemeral events (typing, presence-shaped) are fanned out
// but never stored.
func (h *Handler) OnLiveEvent(event *types.Event, roomState *state.RoomState) {
	switch event.Type {
	case types.MTyping, types.MPresence:
	// A state change that feeds the room name computation invalidates
	// the cached display name.
	case spec.MRoomMember, spec.MRoomName, spec.MRoomCanonicalAlias, types.MRoomAliases:
		h.caches.EvictRoomDisplayName(event.RoomID)
		h.storeEvent(event)
	case types.MRoomRedaction:
		h.applyRedaction(event)
		h.storeEvent(event)
	default:
		h.storeEvent(event)
	}

	h.forEachListener(func(l api.EventListener) {
		l.OnLiveEvent(event, roomState)
	})
}

func (h *Handler) OnBackEvent(event *types.Event, roomState *state.RoomState) {
	h.forEachListener(func(l api.EventListener) {
		l.OnBackEvent(event, roomState)
	})
}

func (h *Handler) OnDeletedEvent(event *types.Event) {
	h.forEachListener(func(l api.EventListener) {
		l.OnDeletedEvent(event)
	})
}

// HandleInitialRoomResponse applies the result of a room-level initial
// sync: visibility and state snapshot first so the room becomes ready, then
// the latest messages, which are stored and fanned out like any other live
// events.
func (h *Handler) HandleInitialRoomResponse(response *types.RoomResponse, room api.RoomProcessor) {
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
		h.OnLiveEvent(event, room.LiveStateCopy())
	}
}

func (h *Handler) storeEvent(event *types.Event) {
	if event.ID == "" {
		return
	}
	if err := h.store.StoreLiveEvent(event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"room_id":  event.RoomID,
			"event_id": event.ID,
		}).Error("Failed to store live event")
	}
}

// applyRedaction prunes the content of the event a redaction points at,
// both in the store and for anyone who fetches it later in this process.
// Seeing the same redaction twice does nothing the second time.
func (h *Handler) applyRedaction(redaction *types.Event) {
	if redaction.Redacts == "" {
		return
	}
	if _, already := h.caches.GetEventRedactedBy(redaction.Redacts); already {
		return
	}
	h.caches.StoreEventRedactedBy(redaction.Redacts, redaction.ID)

	target, err := h.store.Event(redaction.RoomID, redaction.Redacts)
	if err != nil {
		log.WithError(err).WithField("event_id", redaction.Redacts).Error("Failed to look up redacted event")
		return
	}
	if target == nil {
		return
	}
	target.Content = eventutil.PruneContent(target.Type, target.Content)
	if err := h.store.StoreLiveEvent(target); err != nil {
		log.WithError(err).WithField("event_id", target.ID).Error("Failed to store redacted event")
	}
}

// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package memory is an in-memory event store. Nothing survives a restart,
// which is fine for tests and for clients that resync on startup.
package memory

import (
	"sync"

	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// Store implements api.Store with per-room ordered event lists. Events are
// held by pointer: flag updates made by the caller on a returned event are
// visible to later queries, which the delivery pipeline's mid-send guard
// relies on.
type Store struct {
	mu    sync.Mutex
	rooms map[id.RoomID]*roomEvents
}

type roomEvents struct {
	order  []id.EventID
	events map[id.EventID]*types.Event
}

func NewStore() *Store {
	return &Store{
		rooms: map[id.RoomID]*roomEvents{},
	}
}

func (s *Store) room(roomID id.RoomID) *roomEvents {
	room, ok := s.rooms[roomID]
	if !ok {
		room = &roomEvents{events: map[id.EventID]*types.Event{}}
		s.rooms[roomID] = room
	}
	return room
}

// StoreLiveEvent stores an event, or replaces it in place when an event
// with the same ID is already stored. Replacement keeps the original
// timeline position.
func (s *Store) StoreLiveEvent(event *types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.room(event.RoomID)
	if _, exists := room.events[event.ID]; !exists {
		room.order = append(room.order, event.ID)
	}
	room.events[event.ID] = event
	return nil
}

// DeleteEvent removes an event. Deleting an unknown event is a no-op.
func (s *Store) DeleteEvent(event *types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[event.RoomID]
	if !ok {
		return nil
	}
	if _, exists := room.events[event.ID]; !exists {
		return nil
	}
	delete(room.events, event.ID)
	for i, eventID := range room.order {
		if eventID == event.ID {
			room.order = append(room.order[:i], room.order[i+1:]...)
			break
		}
	}
	return nil
}

// Event returns a stored event by ID, or nil when unknown.
func (s *Store) Event(roomID id.RoomID, eventID id.EventID) (*types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return room.events[eventID], nil
}

// LatestUnsentEvents returns the room's unsent events in storage order,
// which for locally synthesised echoes is their original send order.
func (s *Store) LatestUnsentEvents(roomID id.RoomID) ([]*types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsent := []*types.Event{}
	room, ok := s.rooms[roomID]
	if !ok {
		return unsent, nil
	}
	for _, eventID := range room.order {
		if event := room.events[eventID]; event != nil && event.Unsent {
			unsent = append(unsent, event)
		}
	}
	return unsent, nil
}

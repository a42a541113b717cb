// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package sqlite3 is a SQLite-backed event store for clients that keep
// their timeline across restarts.
package sqlite3

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// Store implements api.Store on a SQLite database.
//
// The unsent and sending flags on events returned from queries must behave
// as live in-process records, so unsent events are additionally pinned in
// an in-memory cache by ID: repeated queries for the same unsent event hand
// back the same pointer until the event is deleted. Only the unsent flag
// itself is persisted; mid-send state and failure annotations do not
// survive a restart, which resets half-sent events to plain unsent ones.
type Store struct {
	db     *sql.DB
	events *eventsStatements
	unsent *cache.Cache
}

// Open opens or creates the database at path and prepares the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// go-sqlite3 handles are not safe for concurrent writes.
	db.SetMaxOpenConns(1)
	events, err := newEventsTable(db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare events table")
	}
	return &Store{
		db:     db,
		events: events,
		unsent: cache.New(cache.NoExpiration, 0),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) StoreLiveEvent(event *types.Event) error {
	if err := s.events.insertEvent(event); err != nil {
		return errors.Wrapf(err, "failed to store event %s", event.ID)
	}
	if event.Unsent {
		s.unsent.Set(string(event.ID), event, cache.NoExpiration)
	} else {
		s.unsent.Delete(string(event.ID))
	}
	return nil
}

func (s *Store) DeleteEvent(event *types.Event) error {
	if err := s.events.deleteEvent(event.ID); err != nil {
		return errors.Wrapf(err, "failed to delete event %s", event.ID)
	}
	s.unsent.Delete(string(event.ID))
	return nil
}

func (s *Store) Event(roomID id.RoomID, eventID id.EventID) (*types.Event, error) {
	if pinned, ok := s.unsent.Get(string(eventID)); ok {
		return pinned.(*types.Event), nil
	}
	event, err := s.events.selectEvent(roomID, eventID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select event %s", eventID)
	}
	return event, nil
}

func (s *Store) LatestUnsentEvents(roomID id.RoomID) ([]*types.Event, error) {
	rows, err := s.events.selectUnsentEvents(roomID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select unsent events")
	}
	events := make([]*types.Event, 0, len(rows))
	for _, event := range rows {
		// Hand back the pinned instance when there is one, so flag
		// changes made by the caller stick across queries.
		if pinned, ok := s.unsent.Get(string(event.ID)); ok {
			events = append(events, pinned.(*types.Event))
			continue
		}
		s.unsent.Set(string(event.ID), event, cache.NoExpiration)
		events = append(events, event)
	}
	return events, nil
}

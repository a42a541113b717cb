// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package sqlite3

import (
	"database/sql"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/types"
)

const eventsSchema = `
-- Room timeline events, live and locally synthesised. The position column
-- records insertion order, which is what "latest unsent events in send
-- order" is computed from.
CREATE TABLE IF NOT EXISTS matrixsdk_room_events (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id TEXT NOT NULL,
	event_id TEXT NOT NULL UNIQUE,
	sender TEXT NOT NULL,
	type TEXT NOT NULL,
	state_key TEXT,
	content TEXT NOT NULL,
	prev_content TEXT,
	redacts TEXT NOT NULL DEFAULT '',
	origin_server_ts INTEGER NOT NULL,
	unsent INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS matrixsdk_room_events_room_id_idx ON matrixsdk_room_events(room_id);
CREATE INDEX IF NOT EXISTS matrixsdk_room_events_unsent_idx ON matrixsdk_room_events(room_id, unsent);
`

const insertEventSQL = "" +
	"INSERT INTO matrixsdk_room_events" +
	" (room_id, event_id, sender, type, state_key, content, prev_content, redacts, origin_server_ts, unsent)" +
	" VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)" +
	" ON CONFLICT (event_id) DO UPDATE SET content = $6, prev_content = $7, unsent = $10"

const deleteEventSQL = "" +
	"DELETE FROM matrixsdk_room_events WHERE event_id = $1"

const selectEventSQL = "" +
	"SELECT event_id, room_id, sender, type, state_key, content, prev_content, redacts, origin_server_ts, unsent" +
	" FROM matrixsdk_room_events WHERE room_id = $1 AND event_id = $2"

const selectUnsentEventsSQL = "" +
	"SELECT event_id, room_id, sender, type, state_key, content, prev_content, redacts, origin_server_ts, unsent" +
	" FROM matrixsdk_room_events WHERE room_id = $1 AND unsent = 1 ORDER BY position ASC"

type eventsStatements struct {
	db                     *sql.DB
	insertEventStmt        *sql.Stmt
	deleteEventStmt        *sql.Stmt
	selectEventStmt        *sql.Stmt
	selectUnsentEventsStmt *sql.Stmt
}

func newEventsTable(db *sql.DB) (*eventsStatements, error) {
	_, err := db.Exec(eventsSchema)
	if err != nil {
		return nil, err
	}
	s := &eventsStatements{db: db}
	for _, prep := range []struct {
		stmt **sql.Stmt
		sql  string
	}{
		{&s.insertEventStmt, insertEventSQL},
		{&s.deleteEventStmt, deleteEventSQL},
		{&s.selectEventStmt, selectEventSQL},
		{&s.selectUnsentEventsStmt, selectUnsentEventsSQL},
	} {
		if *prep.stmt, err = db.Prepare(prep.sql); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *eventsStatements) insertEvent(event *types.Event) error {
	var stateKey sql.NullString
	if event.StateKey != nil {
		stateKey = sql.NullString{String: *event.StateKey, Valid: true}
	}
	var prevContent sql.NullString
	if event.PrevContent != nil {
		prevContent = sql.NullString{String: string(event.PrevContent), Valid: true}
	}
	_, err := s.insertEventStmt.Exec(
		event.RoomID, event.ID, event.Sender, event.Type, stateKey,
		string(event.Content), prevContent, event.Redacts,
		int64(event.OriginServerTS), event.Unsent,
	)
	return err
}

func (s *eventsStatements) deleteEvent(eventID id.EventID) error {
	_, err := s.deleteEventStmt.Exec(eventID)
	return err
}

func (s *eventsStatements) selectEvent(roomID id.RoomID, eventID id.EventID) (*types.Event, error) {
	event, err := scanEvent(s.selectEventStmt.QueryRow(roomID, eventID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

func (s *eventsStatements) selectUnsentEvents(roomID id.RoomID) ([]*types.Event, error) {
	rows, err := s.selectUnsentEventsStmt.Query(roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint: errcheck
	events := []*types.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scanner) (*types.Event, error) {
	var (
		event       types.Event
		stateKey    sql.NullString
		content     string
		prevContent sql.NullString
		timestamp   int64
	)
	err := row.Scan(
		&event.ID, &event.RoomID, &event.Sender, &event.Type, &stateKey,
		&content, &prevContent, &event.Redacts, &timestamp, &event.Unsent,
	)
	if err != nil {
		return nil, err
	}
	if stateKey.Valid {
		event.StateKey = &stateKey.String
	}
	event.Content = []byte(content)
	if prevContent.Valid {
		event.PrevContent = []byte(prevContent.String)
	}
	event.OriginServerTS = spec.Timestamp(timestamp)
	return &event, nil
}

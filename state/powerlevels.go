// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package state

import "maunium.net/go/mautrix/id"

// PowerLevels is the parsed content of an m.room.power_levels state event.
// It is only ever mutated through a full replace-and-diff cycle: deep copy
// the live instance, patch it, submit the whole record to the server.
type PowerLevels struct {
	Ban           int               `json:"ban"`
	Kick          int               `json:"kick"`
	Redact        int               `json:"redact"`
	Invite        int               `json:"invite"`
	EventsDefault int               `json:"events_default"`
	StateDefault  int               `json:"state_default"`
	UsersDefault  int               `json:"users_default"`
	Events        map[string]int    `json:"events,omitempty"`
	Users         map[id.UserID]int `json:"users,omitempty"`
}

// NewPowerLevels returns a power-levels record with the protocol defaults.
func NewPowerLevels() *PowerLevels {
	return &PowerLevels{
		Ban:          50,
		Kick:         50,
		Redact:       50,
		Invite:       50,
		StateDefault: 50,
		Events:       map[string]int{},
		Users:        map[id.UserID]int{},
	}
}

// UserPowerLevel returns the effective power level of a user.
func (p *PowerLevels) UserPowerLevel(userID id.UserID) int {
	if level, ok := p.Users[userID]; ok {
		return level
	}
	return p.UsersDefault
}

// SetUserPowerLevel sets the power level of a single user.
func (p *PowerLevels) SetUserPowerLevel(userID id.UserID, level int) {
	if p.Users == nil {
		p.Users = map[id.UserID]int{}
	}
	p.Users[userID] = level
}

// EventPowerLevel returns the level required to send an event of the given
// type, distinguishing state events from message-like events.
func (p *PowerLevels) EventPowerLevel(eventType string, isState bool) int {
	if level, ok := p.Events[eventType]; ok {
		return level
	}
	if isState {
		return p.StateDefault
	}
	return p.EventsDefault
}

// DeepCopy returns an independent copy that shares no mutable substructure
// with the original.
func (p *PowerLevels) DeepCopy() *PowerLevels {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Events = make(map[string]int, len(p.Events))
	for eventType, level := range p.Events {
		copied.Events[eventType] = level
	}
	copied.Users = make(map[id.UserID]int, len(p.Users))
	for userID, level := range p.Users {
		copied.Users[userID] = level
	}
	return &copied
}

// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package state holds the client-side model of a room's state and the logic
// for mutating it one state event at a time. A room keeps two independent
// instances of RoomState: the live state at the forward edge of the event
// stream, and the back state at the oldest point reached by pagination. The
// two evolve independently, so every copy handed across that boundary must
// be a full deep copy.
package state

import (
	"encoding/json"
	"sync"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// RoomState is the state of a room at a single point in its timeline.
type RoomState struct {
	RoomID         id.RoomID
	Name           string
	Topic          string
	Visibility     string
	Creator        id.UserID
	JoinRule       string
	CanonicalAlias string
	Aliases        []string

	// Token is the opaque pagination token identifying this point in the
	// room's history. Empty means "start from the live frontier".
	Token string

	powerLevels *PowerLevels

	membersMu sync.RWMutex
	members   map[id.UserID]*RoomMember
}

// NewRoomState returns an empty state for the given room.
func NewRoomState(roomID id.RoomID) *RoomState {
	return &RoomState{
		RoomID:  roomID,
		members: map[id.UserID]*RoomMember{},
	}
}

// Member returns the member record for a user, or nil if the user is not
// currently a member of the room.
func (s *RoomState) Member(userID id.UserID) *RoomMember {
	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	return s.members[userID]
}

// Members returns the current member records in no particular order.
func (s *RoomState) Members() []*RoomMember {
	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	members := make([]*RoomMember, 0, len(s.members))
	for _, member := range s.members {
		members = append(members, member)
	}
	return members
}

// SetMember stores or replaces the member record for a user.
func (s *RoomState) SetMember(userID id.UserID, member *RoomMember) {
	s.membersMu.Lock()
	defer s.membersMu.Unlock()
	if s.members == nil {
		s.members = map[id.UserID]*RoomMember{}
	}
	s.members[userID] = member
}

// PowerLevels returns the room's power levels, or spec defaults if the room
// has no m.room.power_levels state yet.
func (s *RoomState) PowerLevels() *PowerLevels {
	if s.powerLevels == nil {
		return NewPowerLevels()
	}
	return s.powerLevels
}

// ApplyState mutates the state with a single state event. Events of unknown
// type are ignored. For events applied in the backwards direction the
// prev_content is used when the server included one, since the older state
// is the one being reconstructed.
func (s *RoomState) ApplyState(event *types.Event, direction types.Direction) {
	content := event.Content
	if direction == types.DirectionBackwards && len(event.PrevContent) > 0 {
		content = event.PrevContent
	}
	if len(content) == 0 {
		return
	}

	switch event.Type {
	case spec.MRoomName:
		var parsed struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(content, &parsed); err == nil {
			s.Name = parsed.Name
		}
	case types.MRoomTopic:
		var parsed struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(content, &parsed); err == nil {
			s.Topic = parsed.Topic
		}
	case spec.MRoomCreate:
		var parsed struct {
			Creator id.UserID `json:"creator"`
		}
		if err := json.Unmarshal(content, &parsed); err == nil {
			s.Creator = parsed.Creator
		}
	case spec.MRoomJoinRules:
		var parsed struct {
			JoinRule string `json:"join_rule"`
		}
		if err := json.Unmarshal(content, &parsed); err == nil {
			s.JoinRule = parsed.JoinRule
		}
	case spec.MRoomCanonicalAlias:
		var parsed struct {
			Alias string `json:"alias"`
		}
		if err := json.Unmarshal(content, &parsed); err == nil {
			s.CanonicalAlias = parsed.Alias
		}
	case types.MRoomAliases:
		var parsed struct {
			Aliases []string `json:"aliases"`
		}
		if err := json.Unmarshal(content, &parsed); err == nil {
			s.Aliases = parsed.Aliases
		}
	case spec.MRoomPowerLevels:
		var parsed PowerLevels
		if err := json.Unmarshal(content, &parsed); err == nil {
			s.powerLevels = &parsed
		}
	case spec.MRoomMember:
		s.applyMember(event, content)
	}
}

func (s *RoomState) applyMember(event *types.Event, content json.RawMessage) {
	userID := id.UserID(event.StateKeyOrEmpty())
	if userID == "" {
		return
	}
	var parsed struct {
		Membership  string `json:"membership"`
		DisplayName string `json:"displayname"`
		AvatarURL   string `json:"avatar_url"`
	}
	if err := json.Unmarshal(content, &parsed); err != nil || parsed.Membership == "" {
		return
	}

	s.membersMu.Lock()
	defer s.membersMu.Unlock()
	if s.members == nil {
		s.members = map[id.UserID]*RoomMember{}
	}
	switch parsed.Membership {
	case spec.Leave, spec.Ban:
		delete(s.members, userID)
	default:
		s.members[userID] = &RoomMember{
			UserID:      userID,
			DisplayName: parsed.DisplayName,
			AvatarURL:   parsed.AvatarURL,
			Membership:  parsed.Membership,
		}
	}
}

// DisplayName computes a human-readable name for the room from the
// perspective of selfUserID: the room name, then an alias, then the other
// member of a 1:1 chat, then the room ID.
func (s *RoomState) DisplayName(selfUserID id.UserID) string {
	if s.Name != "" {
		return s.Name
	}
	if s.CanonicalAlias != "" {
		return s.CanonicalAlias
	}
	if len(s.Aliases) > 0 {
		return s.Aliases[0]
	}

	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	if len(s.members) <= 2 {
		for userID, member := range s.members {
			if userID != selfUserID {
				return member.Name()
			}
		}
	}
	return s.RoomID.String()
}

// DeepCopy returns an independent copy of the state. The copy shares no
// mutable substructure with the original: live and back state evolve
// concurrently, and notification payloads outlive the state they were taken
// from.
func (s *RoomState) DeepCopy() *RoomState {
	copied := &RoomState{
		RoomID:         s.RoomID,
		Name:           s.Name,
		Topic:          s.Topic,
		Visibility:     s.Visibility,
		Creator:        s.Creator,
		JoinRule:       s.JoinRule,
		CanonicalAlias: s.CanonicalAlias,
		Token:          s.Token,
		powerLevels:    s.powerLevels.DeepCopy(),
	}
	if len(s.Aliases) > 0 {
		copied.Aliases = append([]string(nil), s.Aliases...)
	}

	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	copied.members = make(map[id.UserID]*RoomMember, len(s.members))
	for userID, member := range s.members {
		copied.members[userID] = member.DeepCopy()
	}
	return copied
}

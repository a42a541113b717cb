// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package state

import (
	"encoding/json"
	"testing"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/types"
)

const testRoomID = id.RoomID("!abc:test")

func stateEvent(eventType, stateKey, content string) *types.Event {
	return &types.Event{
		ID:       "$state:test",
		RoomID:   testRoomID,
		Type:     eventType,
		StateKey: &stateKey,
		Content:  json.RawMessage(content),
	}
}

func TestApplyState(t *testing.T) {
	tests := []struct {
		name   string
		event  *types.Event
		verify func(t *testing.T, s *RoomState)
	}{
		{
			name:  "room name",
			event: stateEvent(spec.MRoomName, "", `{"name":"Snappy room"}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, "Snappy room", s.Name)
			},
		},
		{
			name:  "topic",
			event: stateEvent(types.MRoomTopic, "", `{"topic":"All things snappy"}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, "All things snappy", s.Topic)
			},
		},
		{
			name:  "create",
			event: stateEvent(spec.MRoomCreate, "", `{"creator":"@alice:test"}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, id.UserID("@alice:test"), s.Creator)
			},
		},
		{
			name:  "join rules",
			event: stateEvent(spec.MRoomJoinRules, "", `{"join_rule":"invite"}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, "invite", s.JoinRule)
			},
		},
		{
			name:  "canonical alias",
			event: stateEvent(spec.MRoomCanonicalAlias, "", `{"alias":"#snappy:test"}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, "#snappy:test", s.CanonicalAlias)
			},
		},
		{
			name:  "aliases",
			event: stateEvent(types.MRoomAliases, "test", `{"aliases":["#a:test","#b:test"]}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, []string{"#a:test", "#b:test"}, s.Aliases)
			},
		},
		{
			name:  "power levels",
			event: stateEvent(spec.MRoomPowerLevels, "", `{"ban":75,"users":{"@alice:test":100}}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, 75, s.PowerLevels().Ban)
				assert.Equal(t, 100, s.PowerLevels().UserPowerLevel("@alice:test"))
			},
		},
		{
			name:  "member join",
			event: stateEvent(spec.MRoomMember, "@bob:test", `{"membership":"join","displayname":"Bob"}`),
			verify: func(t *testing.T, s *RoomState) {
				member := s.Member("@bob:test")
				require.NotNil(t, member)
				assert.Equal(t, "Bob", member.DisplayName)
				assert.Equal(t, spec.Join, member.Membership)
			},
		},
		{
			name:  "unknown type ignored",
			event: stateEvent("m.room.pinned_events", "", `{"pinned":["$x:test"]}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, "", s.Name)
				assert.Empty(t, s.Members())
			},
		},
		{
			name:  "malformed content ignored",
			event: stateEvent(spec.MRoomName, "", `{"name":42}`),
			verify: func(t *testing.T, s *RoomState) {
				assert.Equal(t, "", s.Name)
			},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := NewRoomState(testRoomID)
			s.ApplyState(tc.event, types.DirectionForwards)
			tc.verify(t, s)
		})
	}
}

func TestApplyStateMemberLeaveAndBanRemove(t *testing.T) {
	s := NewRoomState(testRoomID)
	s.ApplyState(stateEvent(spec.MRoomMember, "@bob:test", `{"membership":"join"}`), types.DirectionForwards)
	s.ApplyState(stateEvent(spec.MRoomMember, "@eve:test", `{"membership":"join"}`), types.DirectionForwards)
	require.Len(t, s.Members(), 2)

	s.ApplyState(stateEvent(spec.MRoomMember, "@bob:test", `{"membership":"leave"}`), types.DirectionForwards)
	assert.Nil(t, s.Member("@bob:test"))

	s.ApplyState(stateEvent(spec.MRoomMember, "@eve:test", `{"membership":"ban"}`), types.DirectionForwards)
	assert.Nil(t, s.Member("@eve:test"))
	assert.Empty(t, s.Members())
}

func TestApplyStateBackwardsPrefersPrevContent(t *testing.T) {
	s := NewRoomState(testRoomID)
	event := stateEvent(spec.MRoomName, "", `{"name":"New name"}`)
	event.PrevContent = json.RawMessage(`{"name":"Old name"}`)

	s.ApplyState(event, types.DirectionBackwards)
	assert.Equal(t, "Old name", s.Name, "walking backwards should reconstruct the older state")

	// Without a prev_content the current content is all there is.
	s2 := NewRoomState(testRoomID)
	s2.ApplyState(stateEvent(spec.MRoomName, "", `{"name":"New name"}`), types.DirectionBackwards)
	assert.Equal(t, "New name", s2.Name)
}

func TestApplyStateConvergence(t *testing.T) {
	// Applying a batch of state events one at a time must land on the same
	// state regardless of which instance they are applied to.
	events := []*types.Event{
		stateEvent(spec.MRoomCreate, "", `{"creator":"@alice:test"}`),
		stateEvent(spec.MRoomName, "", `{"name":"Room"}`),
		stateEvent(spec.MRoomMember, "@alice:test", `{"membership":"join","displayname":"Alice"}`),
		stateEvent(spec.MRoomMember, "@bob:test", `{"membership":"join"}`),
		stateEvent(spec.MRoomPowerLevels, "", `{"kick":25}`),
		stateEvent(spec.MRoomMember, "@bob:test", `{"membership":"leave"}`),
	}

	a := NewRoomState(testRoomID)
	b := NewRoomState(testRoomID)
	for _, event := range events {
		a.ApplyState(event, types.DirectionForwards)
		b.ApplyState(event, types.DirectionForwards)
	}

	assert.Equal(t, a.Name, b.Name)
	assert.Equal(t, a.Creator, b.Creator)
	assert.Equal(t, a.PowerLevels(), b.PowerLevels())
	assert.ElementsMatch(t, a.Members(), b.Members())
	assert.Nil(t, a.Member("@bob:test"))
}

func TestDeepCopyIsIndependent(t *testing.T) {
	s := NewRoomState(testRoomID)
	s.ApplyState(stateEvent(spec.MRoomName, "", `{"name":"Before"}`), types.DirectionForwards)
	s.ApplyState(stateEvent(spec.MRoomMember, "@alice:test", `{"membership":"join","displayname":"Alice"}`), types.DirectionForwards)
	s.ApplyState(stateEvent(spec.MRoomPowerLevels, "", `{"users":{"@alice:test":100}}`), types.DirectionForwards)
	s.Aliases = []string{"#a:test"}
	s.Token = "t42"

	copied := s.DeepCopy()

	// Mutate the original in every way that shares memory if the copy is
	// shallow.
	s.ApplyState(stateEvent(spec.MRoomName, "", `{"name":"After"}`), types.DirectionForwards)
	s.ApplyState(stateEvent(spec.MRoomMember, "@alice:test", `{"membership":"leave"}`), types.DirectionForwards)
	s.PowerLevels().Users["@alice:test"] = 0
	s.Aliases[0] = "#changed:test"
	s.Token = "t43"

	assert.Equal(t, "Before", copied.Name)
	assert.Equal(t, "t42", copied.Token)
	assert.Equal(t, []string{"#a:test"}, copied.Aliases)
	require.NotNil(t, copied.Member("@alice:test"))
	assert.Equal(t, "Alice", copied.Member("@alice:test").DisplayName)
	assert.Equal(t, 100, copied.PowerLevels().UserPowerLevel("@alice:test"))
}

func TestDisplayName(t *testing.T) {
	self := id.UserID("@me:test")

	t.Run("prefers explicit name", func(t *testing.T) {
		s := NewRoomState(testRoomID)
		s.Name = "Named"
		s.CanonicalAlias = "#alias:test"
		assert.Equal(t, "Named", s.DisplayName(self))
	})

	t.Run("falls back to canonical alias", func(t *testing.T) {
		s := NewRoomState(testRoomID)
		s.CanonicalAlias = "#alias:test"
		assert.Equal(t, "#alias:test", s.DisplayName(self))
	})

	t.Run("falls back to first alias", func(t *testing.T) {
		s := NewRoomState(testRoomID)
		s.Aliases = []string{"#first:test", "#second:test"}
		assert.Equal(t, "#first:test", s.DisplayName(self))
	})

	t.Run("names a 1:1 after the other member", func(t *testing.T) {
		s := NewRoomState(testRoomID)
		s.SetMember(self, &RoomMember{UserID: self, Membership: spec.Join})
		s.SetMember("@other:test", &RoomMember{UserID: "@other:test", DisplayName: "Other", Membership: spec.Join})
		assert.Equal(t, "Other", s.DisplayName(self))
	})

	t.Run("falls back to the room ID", func(t *testing.T) {
		s := NewRoomState(testRoomID)
		assert.Equal(t, testRoomID.String(), s.DisplayName(self))
	})
}

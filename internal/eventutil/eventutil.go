// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package eventutil works on raw event content without fully deserialising
// it, since most content only ever has one or two fields read from it.
package eventutil

import (
	"encoding/json"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// ToMessage extracts a message from raw m.room.message content. Missing
// fields are left empty; a nil result never occurs.
func ToMessage(content json.RawMessage) types.Message {
	return types.Message{
		MsgType:       gjson.GetBytes(content, "msgtype").String(),
		Body:          gjson.GetBytes(content, "body").String(),
		Format:        gjson.GetBytes(content, "format").String(),
		FormattedBody: gjson.GetBytes(content, "formatted_body").String(),
	}
}

// MessageContent serialises a message into event content.
func MessageContent(message types.Message) json.RawMessage {
	content, err := json.Marshal(message)
	if err != nil {
		return json.RawMessage("{}")
	}
	return content
}

// UserIDs parses the user_ids field of m.typing content. It returns an
// empty, non-nil slice when the field is absent or malformed: typing state
// is replaced wholesale, never left dangling.
func UserIDs(content json.RawMessage) []id.UserID {
	userIDs := []id.UserID{}
	parsed := gjson.GetBytes(content, "user_ids")
	if !parsed.IsArray() {
		return userIDs
	}
	for _, entry := range parsed.Array() {
		if entry.Type == gjson.String {
			userIDs = append(userIDs, id.UserID(entry.String()))
		}
	}
	return userIDs
}

// redactionAllowedKeys lists, per event type, the content keys that survive
// redaction.
var redactionAllowedKeys = map[string][]string{
	spec.MRoomMember:      {"membership"},
	spec.MRoomCreate:      {"creator"},
	spec.MRoomJoinRules:   {"join_rule"},
	types.MRoomAliases:    {"aliases"},
	spec.MRoomPowerLevels: {"ban", "events", "events_default", "kick", "redact", "state_default", "users", "users_default"},
}

// PruneContent strips redacted content down to the keys the redaction
// algorithm allows for the event type. For most event types that is nothing
// at all.
func PruneContent(eventType string, content json.RawMessage) json.RawMessage {
	pruned := []byte("{}")
	for _, key := range redactionAllowedKeys[eventType] {
		value := gjson.GetBytes(content, key)
		if !value.Exists() {
			continue
		}
		var err error
		pruned, err = sjson.SetRawBytes(pruned, key, []byte(value.Raw))
		if err != nil {
			return json.RawMessage("{}")
		}
	}
	return pruned
}

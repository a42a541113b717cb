// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package room

import (
	"context"
	"time"

	"github.com/matrix-org/util"
	"github.com/sirupsen/logrus"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// Join joins the room, then runs a room-level initial sync so the room's
// state is populated before cb fires. Failures from either step land on
// cb's failure callbacks.
func (r *Room) Join(ctx context.Context, cb *api.Callback[api.Void]) {
	r.transport.JoinRoom(ctx, r.roomID, api.Forward(cb, func(api.Void) {
		r.InitialSync(ctx, api.Forward(cb, func(*types.RoomResponse) {
			cb.Success(api.Void{})
		}))
	}))
}

// InitialSync fetches the room's current state and latest messages and
// applies them through the router, leaving the room ready for live events.
func (r *Room) InitialSync(ctx context.Context, cb *api.Callback[*types.RoomResponse]) {
	r.transport.InitialSync(ctx, r.roomID, api.Forward(cb, func(response *types.RoomResponse) {
		r.router.HandleInitialRoomResponse(response, r)
		cb.Success(response)
	}))
}

// Invite invites a user to the room.
func (r *Room) Invite(ctx context.Context, userID id.UserID, cb *api.Callback[api.Void]) {
	r.transport.InviteToRoom(ctx, r.roomID, userID, cb)
}

// Leave leaves the room.
func (r *Room) Leave(ctx context.Context, cb *api.Callback[api.Void]) {
	r.transport.LeaveRoom(ctx, r.roomID, cb)
}

// Kick removes a user from the room.
func (r *Room) Kick(ctx context.Context, userID id.UserID, cb *api.Callback[api.Void]) {
	r.transport.KickFromRoom(ctx, r.roomID, userID, cb)
}

// Ban bans a user from the room. The reason may be empty.
func (r *Room) Ban(ctx context.Context, userID id.UserID, reason string, cb *api.Callback[api.Void]) {
	r.transport.BanFromRoom(ctx, r.roomID, types.BannedUser{
		UserID: userID,
		Reason: reason,
	}, cb)
}

// Unban lifts a ban. The client-server API has no dedicated unban
// endpoint at this version; kicking a banned user resets their membership
// to leave, which is exactly what lifting the ban means.
func (r *Room) Unban(ctx context.Context, userID id.UserID, cb *api.Callback[api.Void]) {
	r.transport.KickFromRoom(ctx, r.roomID, userID, cb)
}

// UpdateUserPowerLevel sets one user's power level. The full power levels
// event is replaced server-side, so the update is built from a snapshot of
// the current levels with just that user changed.
func (r *Room) UpdateUserPowerLevel(ctx context.Context, userID id.UserID, powerLevel int, cb *api.Callback[api.Void]) {
	levels := r.LiveState().PowerLevels().DeepCopy()
	levels.SetUserPowerLevel(userID, powerLevel)
	r.transport.UpdatePowerLevels(ctx, r.roomID, levels, cb)
}

// UpdateName sets the room's name.
func (r *Room) UpdateName(ctx context.Context, name string, cb *api.Callback[api.Void]) {
	r.transport.UpdateName(ctx, r.roomID, name, cb)
}

// UpdateTopic sets the room's topic.
func (r *Room) UpdateTopic(ctx context.Context, topic string, cb *api.Callback[api.Void]) {
	r.transport.UpdateTopic(ctx, r.roomID, topic, cb)
}

// Redact strips an event of its content.
func (r *Room) Redact(ctx context.Context, eventID id.EventID, cb *api.Callback[*types.Event]) {
	util.GetLogger(ctx).WithFields(logrus.Fields{
		"room_id":  r.roomID,
		"event_id": eventID,
	}).Debug("Redacting event")
	r.transport.Redact(ctx, r.roomID, eventID, cb)
}

// SendTypingNotification tells the room whether we are typing. The timeout
// bounds how long the server keeps the notification alive without a
// refresh.
func (r *Room) SendTypingNotification(ctx context.Context, typing bool, timeout time.Duration, cb *api.Callback[api.Void]) {
	r.transport.SendTypingNotification(ctx, r.roomID, r.myUserID, typing, timeout, cb)
}

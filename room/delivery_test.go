// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/test"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// succeedingTransport makes every send succeed with a fresh server event ID.
func succeedingTransport(transport *test.Transport) *[]string {
	txnIDs := &[]string{}
	transport.SendMessageFunc = func(roomID id.RoomID, txnID string, message types.Message, cb *api.Callback[*types.Event]) {
		*txnIDs = append(*txnIDs, txnID)
		cb.Success(&types.Event{
			ID:      id.EventID(fmt.Sprintf("$server%d:test", len(*txnIDs))),
			RoomID:  roomID,
			Type:    types.MRoomMessage,
			Content: []byte(fmt.Sprintf(`{"msgtype":%q,"body":%q}`, message.MsgType, message.Body)),
		})
	}
	return txnIDs
}

func TestSendMessageSuccess(t *testing.T) {
	r, transport, store, _ := newTestRoom(t)
	succeedingTransport(transport)

	var sent *types.Event
	r.SendMessage(context.Background(), types.Message{MsgType: "m.text", Body: "hello"}, &api.Callback[*types.Event]{
		OnSuccess: func(event *types.Event) { sent = event },
	})

	require.NotNil(t, sent)
	assert.False(t, sent.Unsent)

	unsent, err := store.LatestUnsentEvents(testRoomID)
	require.NoError(t, err)
	assert.Empty(t, unsent, "a confirmed send leaves nothing behind")
}

func TestSendMessageFailureStoresUnsentEcho(t *testing.T) {
	tests := []struct {
		name   string
		fail   func(cb *api.Callback[*types.Event])
		verify func(t *testing.T, echo *types.Event)
	}{
		{
			name: "network error",
			fail: func(cb *api.Callback[*types.Event]) { cb.NetworkError(errors.New("offline")) },
			verify: func(t *testing.T, echo *types.Event) {
				assert.EqualError(t, echo.SendError, "offline")
				assert.Nil(t, echo.SendMatrixError)
			},
		},
		{
			name: "matrix error",
			fail: func(cb *api.Callback[*types.Event]) {
				cb.MatrixError(&spec.MatrixError{ErrCode: spec.ErrorForbidden, Err: "not in room"})
			},
			verify: func(t *testing.T, echo *types.Event) {
				require.NotNil(t, echo.SendMatrixError)
				assert.Equal(t, spec.ErrorForbidden, echo.SendMatrixError.ErrCode)
			},
		},
		{
			name: "unexpected error",
			fail: func(cb *api.Callback[*types.Event]) { cb.UnexpectedError(errors.New("mangled response")) },
			verify: func(t *testing.T, echo *types.Event) {
				assert.EqualError(t, echo.SendError, "mangled response")
			},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r, transport, store, _ := newTestRoom(t)
			transport.SendMessageFunc = func(_ id.RoomID, _ string, _ types.Message, cb *api.Callback[*types.Event]) {
				tc.fail(cb)
			}

			var echo *types.Event
			failureCallbackFired := false
			r.SendMessage(context.Background(), types.Message{MsgType: "m.text", Body: "hello"}, &api.Callback[*types.Event]{
				OnSuccess:         func(event *types.Event) { echo = event },
				OnNetworkError:    func(error) { failureCallbackFired = true },
				OnMatrixError:     func(*spec.MatrixError) { failureCallbackFired = true },
				OnUnexpectedError: func(error) { failureCallbackFired = true },
			})

			require.NotNil(t, echo, "failures surface as a stored echo on the success path")
			assert.False(t, failureCallbackFired)
			assert.True(t, echo.Unsent)
			assert.Equal(t, testRoomID, echo.RoomID)
			assert.Equal(t, testUserID, echo.Sender)
			assert.Equal(t, types.MRoomMessage, echo.Type)
			assert.True(t, strings.HasPrefix(string(echo.ID), string(testRoomID)+"-"),
				"local echo IDs derive from the room and timestamp")
			assert.Equal(t, "hello", eventBody(t, echo))
			tc.verify(t, echo)

			unsent, err := store.LatestUnsentEvents(testRoomID)
			require.NoError(t, err)
			require.Len(t, unsent, 1)
			assert.Same(t, echo, unsent[0])
		})
	}
}

func eventBody(t *testing.T, event *types.Event) string {
	t.Helper()
	msg := struct {
		Body string `json:"body"`
	}{}
	require.NoError(t, json.Unmarshal(event.Content, &msg))
	return msg.Body
}

// storeUnsent seeds the room's store with unsent echoes. IDs are derived
// from the body rather than a timestamp so they stay distinct within the
// same millisecond.
func storeUnsent(t *testing.T, r *Room, bodies ...string) []*types.Event {
	t.Helper()
	echoes := make([]*types.Event, 0, len(bodies))
	for _, body := range bodies {
		echo := &types.Event{
			ID:        id.EventID(fmt.Sprintf("%s-%s", testRoomID, body)),
			RoomID:    testRoomID,
			Sender:    testUserID,
			Type:      types.MRoomMessage,
			Content:   []byte(fmt.Sprintf(`{"msgtype":"m.text","body":%q}`, body)),
			Unsent:    true,
			SendError: errors.New("offline"),
		}
		require.NoError(t, r.store.StoreLiveEvent(echo))
		echoes = append(echoes, echo)
	}
	return echoes
}

func TestResendUnsentEventsSequential(t *testing.T) {
	r, transport, store, router := newTestRoom(t)
	r.ProcessLiveState(nil)
	echoes := storeUnsent(t, r, "first", "second")

	txnIDs := succeedingTransport(transport)
	r.ResendUnsentEvents(context.Background())

	// Resends reuse the stored event ID as the transaction ID and run in
	// the original send order.
	assert.Equal(t, []string{string(echoes[0].ID), string(echoes[1].ID)}, *txnIDs)

	unsent, err := store.LatestUnsentEvents(testRoomID)
	require.NoError(t, err)
	assert.Empty(t, unsent)

	// Each success removes the local echo and delivers the confirmed
	// event in its place.
	require.Len(t, router.DeletedEvents, 2)
	assert.Same(t, echoes[0], router.DeletedEvents[0])
	assert.Same(t, echoes[1], router.DeletedEvents[1])
	require.Len(t, router.LiveEvents, 2)
	assert.False(t, router.LiveEvents[0].Unsent)
}

func TestResendSkipsEventsAlreadySending(t *testing.T) {
	r, transport, _, _ := newTestRoom(t)
	r.ProcessLiveState(nil)
	storeUnsent(t, r, "first", "second")

	var pending []*api.Callback[*types.Event]
	var txnIDs []string
	transport.SendMessageFunc = func(_ id.RoomID, txnID string, _ types.Message, cb *api.Callback[*types.Event]) {
		txnIDs = append(txnIDs, txnID)
		pending = append(pending, cb)
	}

	r.ResendUnsentEvents(context.Background())
	require.Len(t, txnIDs, 1, "the second event waits for the first to complete")

	// A second pass while the first is still mid-send must not touch
	// either event: both are flagged as sending.
	r.ResendUnsentEvents(context.Background())
	assert.Len(t, txnIDs, 1)

	// Completing the first send lets the chain continue to the second.
	pending[0].Success(&types.Event{ID: "$server1:test", RoomID: testRoomID, Type: types.MRoomMessage})
	require.Len(t, txnIDs, 2)
	pending[1].Success(&types.Event{ID: "$server2:test", RoomID: testRoomID, Type: types.MRoomMessage})

	// Everything went out, nothing left to resend.
	r.ResendUnsentEvents(context.Background())
	assert.Len(t, txnIDs, 2)
}

func TestResendFailureKeepsMessageQueued(t *testing.T) {
	r, transport, store, router := newTestRoom(t)
	r.ProcessLiveState(nil)
	echoes := storeUnsent(t, r, "doomed")

	transport.SendMessageFunc = func(_ id.RoomID, _ string, _ types.Message, cb *api.Callback[*types.Event]) {
		cb.NetworkError(errors.New("still offline"))
	}
	r.ResendUnsentEvents(context.Background())

	// The failed resend replaced the old echo with a fresh one, so the
	// message is still queued for the next attempt.
	unsent, err := store.LatestUnsentEvents(testRoomID)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.NotEqual(t, echoes[0].ID, unsent[0].ID)
	assert.Equal(t, "doomed", eventBody(t, unsent[0]))
	assert.False(t, unsent[0].Sending)

	require.Len(t, router.DeletedEvents, 1)
	assert.Same(t, echoes[0], router.DeletedEvents[0])
}

func TestResendWithNothingQueuedIsANoOp(t *testing.T) {
	r, transport, _, _ := newTestRoom(t)
	called := false
	transport.SendMessageFunc = func(id.RoomID, string, types.Message, *api.Callback[*types.Event]) {
		called = true
	}
	r.ResendUnsentEvents(context.Background())
	assert.False(t, called)
}

func TestSendMessageFailuresInSameInstantStoreDistinctEchoes(t *testing.T) {
	r, transport, store, _ := newTestRoom(t)
	transport.SendMessageFunc = func(_ id.RoomID, _ string, _ types.Message, cb *api.Callback[*types.Event]) {
		cb.NetworkError(errors.New("offline"))
	}

	r.SendMessage(context.Background(), types.Message{MsgType: "m.text", Body: "first"}, nil)
	r.SendMessage(context.Background(), types.Message{MsgType: "m.text", Body: "second"}, nil)

	unsent, err := store.LatestUnsentEvents(testRoomID)
	require.NoError(t, err)
	require.Len(t, unsent, 2, "echoes stored within the same millisecond must not collide")
	assert.NotEqual(t, unsent[0].ID, unsent[1].ID)
	assert.Equal(t, "first", eventBody(t, unsent[0]))
	assert.Equal(t, "second", eventBody(t, unsent[1]))
}

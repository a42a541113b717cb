// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/matrix-org/gomatrix"
	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/internal/eventutil"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// SendMessage sends a message to the room. The failure callbacks of cb are
// never invoked: on any failure the message is recorded in the store as a
// local unsent event annotated with the captured failure, and cb's success
// callback fires with that event instead. The UI layer therefore always has
// a persisted, retry-capable representation of every attempted send.
func (r *Room) SendMessage(ctx context.Context, message types.Message, cb *api.Callback[*types.Event]) {
	r.sendMessageTxn(ctx, uuid.NewString(), message, cb)
}

// sendMessageTxn is SendMessage with an explicit transaction ID. Resends
// reuse the unsent event's local ID as the transaction ID so that replaying
// the same event twice is idempotent.
func (r *Room) sendMessageTxn(ctx context.Context, txnID string, message types.Message, cb *api.Callback[*types.Event]) {
	r.transport.SendMessage(ctx, r.roomID, txnID, message, &api.Callback[*types.Event]{
		OnSuccess: func(event *types.Event) {
			r.txnResults.Set(txnID, event.ID, cache.DefaultExpiration)
			sendAttemptsTotal.WithLabelValues(outcomeSent).Inc()
			cb.Success(event)
		},
		OnNetworkError: func(err error) {
			cb.Success(r.storeUnsentMessage(txnID, message, err, nil))
		},
		OnMatrixError: func(mxErr *spec.MatrixError) {
			cb.Success(r.storeUnsentMessage(txnID, message, nil, mxErr))
		},
		OnUnexpectedError: func(err error) {
			if r.sentryEnabled {
				sentry.CaptureException(err)
			}
			cb.Success(r.storeUnsentMessage(txnID, message, err, nil))
		},
	})
}

// storeUnsentMessage synthesises and stores the local echo of a message
// that could not be confirmed sent. The event identifier carries the room,
// the local timestamp and the transaction ID, so two failures in the same
// millisecond still store distinct echoes; the server will assign a real
// identifier when the resend eventually succeeds.
func (r *Room) storeUnsentMessage(txnID string, message types.Message, cause error, mxErr *spec.MatrixError) *types.Event {
	now := spec.AsTimestamp(time.Now())
	event := &types.Event{
		ID:              id.EventID(fmt.Sprintf("%s-%d-%s", r.roomID, now, txnID)),
		RoomID:          r.roomID,
		Sender:          r.myUserID,
		Type:            types.MRoomMessage,
		Content:         eventutil.MessageContent(message),
		OriginServerTS:  now,
		Unsent:          true,
		SendError:       cause,
		SendMatrixError: mxErr,
	}
	if err := r.store.StoreLiveEvent(event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"room_id":  r.roomID,
			"event_id": event.ID,
		}).Error("Failed to store unsent event")
	}
	fields := log.Fields{
		"room_id":  r.roomID,
		"event_id": event.ID,
	}
	var httpErr gomatrix.HTTPError
	if errors.As(cause, &httpErr) {
		fields["code"] = httpErr.Code
	}
	if mxErr != nil {
		fields["errcode"] = mxErr.ErrCode
	}
	log.WithFields(fields).Info("Stored outgoing message as unsent")
	sendAttemptsTotal.WithLabelValues(outcomeStoredUnsent).Inc()
	return event
}

// ResendUnsentEvents replays this room's pending unsent events, strictly
// sequentially and in their original send order: each resend waits for the
// previous one's completion callback before starting.
func (r *Room) ResendUnsentEvents(ctx context.Context) {
	events, err := r.store.LatestUnsentEvents(r.roomID)
	if err != nil {
		log.WithError(err).WithField("room_id", r.roomID).Error("Failed to load unsent events")
		return
	}

	// Skip events already mid-send, so two overlapping resend passes
	// cannot send the same event twice. That happens in practice: come
	// back online, start resending, drop offline partway, come back
	// online again.
	pending := make([]*types.Event, 0, len(events))
	for _, event := range events {
		if event.Sending {
			continue
		}
		if _, done := r.txnResults.Get(string(event.ID)); done {
			continue
		}
		event.Sending = true
		pending = append(pending, event)
	}
	if len(pending) == 0 {
		return
	}

	log.WithFields(log.Fields{
		"room_id": r.roomID,
		"pending": len(pending),
	}).Info("Resending unsent events")
	r.resendNext(ctx, pending, 0)
}

func (r *Room) resendNext(ctx context.Context, events []*types.Event, index int) {
	if index >= len(events) {
		return
	}
	oldEvent := events[index]
	resendsTotal.Inc()

	r.sendMessageTxn(ctx, string(oldEvent.ID), eventutil.ToMessage(oldEvent.Content), &api.Callback[*types.Event]{
		OnSuccess: func(sentEvent *types.Event) {
			oldEvent.Sending = false
			if err := r.store.DeleteEvent(oldEvent); err != nil {
				log.WithError(err).WithField("event_id", oldEvent.ID).Error("Failed to delete resent event")
			}
			r.router.OnDeletedEvent(oldEvent)
			r.router.OnLiveEvent(sentEvent, r.LiveStateCopy())

			r.resendNext(ctx, events, index+1)
		},
		// The failure callbacks never fire here: a failed resend falls
		// through sendMessageTxn's normal unsent handling and comes back
		// as a stored echo on the success path.
	})
}

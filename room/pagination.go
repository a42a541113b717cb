// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package room

import (
	"context"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/matrix-org/util"
	"github.com/sirupsen/logrus"

	"github.com/andresMoreno96/matrix-android-sdk/api"
	"github.com/andresMoreno96/matrix-android-sdk/state"
	"github.com/andresMoreno96/matrix-android-sdk/types"
)

// RequestHistory requests a page of older messages. The events come down
// the OnBackEvent callbacks of the room's listeners; cb, which may be nil,
// is told how many events the page contained.
//
// The return value reports whether a request was started at all: false when
// a page is already in flight, when the end of history has been reached, or
// when the room is not yet ready. These are guard conditions, not errors.
// The request is bounded by the configured pagination timeout on top of
// whatever deadline ctx already carries, so a hung fetch cannot leave the
// room stuck paginating.
func (r *Room) RequestHistory(ctx context.Context, cb *api.Callback[int]) bool {
	if !r.canPaginate.Load() || !r.ready.Load() {
		return false
	}
	// One page at a time please.
	if !r.paginating.CompareAndSwap(false, true) {
		return false
	}

	cancel := context.CancelFunc(func() {})
	if r.historyTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.historyTimeout)
	}

	logger := util.GetLogger(ctx).WithFields(logrus.Fields{
		"room_id": r.roomID,
	})

	r.transport.RequestRoomHistory(ctx, r.roomID, r.backToken(), &api.Callback[*types.TokensChunkResponse]{
		OnSuccess: func(response *types.TokensChunkResponse) {
			cancel()
			r.onHistoryPage(response, cb)
		},
		OnMatrixError: func(mxErr *spec.MatrixError) {
			cancel()
			// Once all messages have been retrieved, the pagination
			// token is some invalid value and the server reports
			// M_UNKNOWN. That is terminal; everything else leaves the
			// room retryable.
			if mxErr.ErrCode == spec.ErrorUnknown {
				r.canPaginate.Store(false)
				historyRequestsTotal.WithLabelValues(outcomeExhausted).Inc()
				logger.Debug("Back-pagination reached the end of history")
			} else {
				historyRequestsTotal.WithLabelValues(outcomeFailed).Inc()
				logger.WithField("errcode", mxErr.ErrCode).Warn("History request rejected by server")
			}
			r.paginating.Store(false)
			cb.MatrixError(mxErr)
		},
		OnNetworkError: func(err error) {
			cancel()
			historyRequestsTotal.WithLabelValues(outcomeFailed).Inc()
			logger.WithError(err).Warn("History request failed")
			r.paginating.Store(false)
			cb.NetworkError(err)
		},
		OnUnexpectedError: func(err error) {
			cancel()
			historyRequestsTotal.WithLabelValues(outcomeFailed).Inc()
			logger.WithError(err).Warn("History request failed unexpectedly")
			r.paginating.Store(false)
			cb.UnexpectedError(err)
		},
	})
	return true
}

// onHistoryPage advances the back state over one page of history. Events
// are applied and forwarded in the exact order received, each paired with a
// snapshot of the back state taken after that event's application.
func (r *Room) onHistoryPage(response *types.TokensChunkResponse, cb *api.Callback[int]) {
	type backNotification struct {
		event    *types.Event
		snapshot *state.RoomState
	}

	r.stateMu.Lock()
	r.backState.Token = response.End
	notifications := make([]backNotification, 0, len(response.Chunk))
	for _, event := range response.Chunk {
		if event.IsState() {
			r.backState.ApplyState(event, types.DirectionBackwards)
		}
		notifications = append(notifications, backNotification{
			event:    event,
			snapshot: r.backState.DeepCopy(),
		})
	}
	r.stateMu.Unlock()

	for _, notification := range notifications {
		r.router.OnBackEvent(notification.event, notification.snapshot)
	}

	// An empty page means the server has nothing older for us.
	if len(response.Chunk) == 0 {
		r.canPaginate.Store(false)
	}

	historyRequestsTotal.WithLabelValues(outcomeSuccess).Inc()
	cb.Success(len(response.Chunk))
	r.paginating.Store(false)
}

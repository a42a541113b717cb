// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package room

import "github.com/prometheus/client_golang/prometheus"

var (
	sendAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matrixsdk",
			Subsystem: "room",
			Name:      "send_attempts_total",
			Help:      "Outgoing message sends by outcome.",
		},
		[]string{"outcome"},
	)
	resendsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "matrixsdk",
			Subsystem: "room",
			Name:      "resends_total",
			Help:      "Previously unsent events replayed through the delivery pipeline.",
		},
	)
	historyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matrixsdk",
			Subsystem: "room",
			Name:      "history_requests_total",
			Help:      "Backward pagination requests by outcome.",
		},
		[]string{"outcome"},
	)
)

const (
	outcomeSent         = "sent"
	outcomeStoredUnsent = "stored_unsent"

	outcomeSuccess   = "success"
	outcomeExhausted = "exhausted"
	outcomeFailed    = "failed"
)

func init() {
	prometheus.MustRegister(
		sendAttemptsTotal,
		resendsTotal,
		historyRequestsTotal,
	)
}

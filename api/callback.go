// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package api defines the contracts between a room's synchronisation core
// and its three collaborators: the REST transport that talks to the
// homeserver, the store that persists events, and the router that owns
// listener registration across all rooms.
package api

import "github.com/matrix-org/gomatrixserverlib/spec"

// Void is the result type for calls that complete without a payload.
type Void = struct{}

// Callback receives the outcome of an asynchronous client-server API call.
// Any of the funcs may be nil, and the callback itself may be nil: delivery
// through the methods below is a no-op in either case.
type Callback[T any] struct {
	// OnSuccess is called with the result of the call.
	OnSuccess func(result T)
	// OnNetworkError is called when the request never produced a
	// well-formed response, e.g. connection failures and timeouts.
	OnNetworkError func(err error)
	// OnMatrixError is called when the server returned a standard error
	// response with a machine-readable errcode.
	OnMatrixError func(mxErr *spec.MatrixError)
	// OnUnexpectedError is called for failures in neither category.
	OnUnexpectedError func(err error)
}

// Success delivers a result, if a success func is set.
func (cb *Callback[T]) Success(result T) {
	if cb != nil && cb.OnSuccess != nil {
		cb.OnSuccess(result)
	}
}

// NetworkError delivers a network failure, if a handler is set.
func (cb *Callback[T]) NetworkError(err error) {
	if cb != nil && cb.OnNetworkError != nil {
		cb.OnNetworkError(err)
	}
}

// MatrixError delivers a protocol-level failure, if a handler is set.
func (cb *Callback[T]) MatrixError(mxErr *spec.MatrixError) {
	if cb != nil && cb.OnMatrixError != nil {
		cb.OnMatrixError(mxErr)
	}
}

// UnexpectedError delivers an unclassified failure, if a handler is set.
func (cb *Callback[T]) UnexpectedError(err error) {
	if cb != nil && cb.OnUnexpectedError != nil {
		cb.OnUnexpectedError(err)
	}
}

// Forward builds a callback whose failure paths are routed to next while the
// success path is replaced. It is the usual shape for chained calls, where an
// intermediate step handles its own success but failures belong to the
// original caller.
func Forward[T, U any](next *Callback[U], onSuccess func(result T)) *Callback[T] {
	return &Callback[T]{
		OnSuccess:         onSuccess,
		OnNetworkError:    next.NetworkError,
		OnMatrixError:     next.MatrixError,
		OnUnexpectedError: next.UnexpectedError,
	}
}

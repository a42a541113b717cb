// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package api

import (
	"errors"
	"testing"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/stretchr/testify/assert"
)

func TestCallbackNilSafety(t *testing.T) {
	// Neither a nil callback nor nil funcs may panic on delivery.
	var nilCB *Callback[int]
	nilCB.Success(1)
	nilCB.NetworkError(errors.New("down"))
	nilCB.MatrixError(&spec.MatrixError{ErrCode: spec.ErrorUnknown})
	nilCB.UnexpectedError(errors.New("odd"))

	empty := &Callback[int]{}
	empty.Success(1)
	empty.NetworkError(errors.New("down"))
	empty.MatrixError(&spec.MatrixError{ErrCode: spec.ErrorUnknown})
	empty.UnexpectedError(errors.New("odd"))
}

func TestCallbackDelivery(t *testing.T) {
	var got int
	cb := &Callback[int]{OnSuccess: func(result int) { got = result }}
	cb.Success(42)
	assert.Equal(t, 42, got)
}

func TestForwardRoutesFailuresToNext(t *testing.T) {
	var (
		networkErr error
		matrixErr  *spec.MatrixError
		oddErr     error
		nextResult string
	)
	next := &Callback[string]{
		OnSuccess:         func(result string) { nextResult = result },
		OnNetworkError:    func(err error) { networkErr = err },
		OnMatrixError:     func(mxErr *spec.MatrixError) { matrixErr = mxErr },
		OnUnexpectedError: func(err error) { oddErr = err },
	}

	forwarded := Forward(next, func(result int) { nextResult = "from success" })

	forwarded.NetworkError(errors.New("down"))
	assert.EqualError(t, networkErr, "down")

	forwarded.MatrixError(&spec.MatrixError{ErrCode: spec.ErrorForbidden, Err: "no"})
	assert.Equal(t, spec.ErrorForbidden, matrixErr.ErrCode)

	forwarded.UnexpectedError(errors.New("odd"))
	assert.EqualError(t, oddErr, "odd")

	forwarded.Success(7)
	assert.Equal(t, "from success", nextResult)
}

func TestForwardFromNilNext(t *testing.T) {
	// A nil next callback still yields a usable forwarded callback.
	forwarded := Forward[int, Void](nil, func(int) {})
	forwarded.NetworkError(errors.New("down"))
	forwarded.Success(1)
}

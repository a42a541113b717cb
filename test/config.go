// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package test

import (
	"maunium.net/go/mautrix/id"

	"github.com/andresMoreno96/matrix-android-sdk/setup/config"
)

// ClientConfig returns a ready-to-use configuration for the given user.
func ClientConfig(userID id.UserID) *config.Client {
	cfg := &config.Client{
		UserID:        userID,
		HomeserverURL: "https://matrix.example.com",
	}
	cfg.Defaults()
	return cfg
}

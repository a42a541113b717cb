// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DataUnit is a size in bytes that config files can express with a tb, gb,
// mb or kb suffix.
type DataUnit int64

func (d *DataUnit) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	multiplier := DataUnit(1)
	switch {
	case strings.HasSuffix(raw, "tb"):
		multiplier = 1024 * 1024 * 1024 * 1024
	case strings.HasSuffix(raw, "gb"):
		multiplier = 1024 * 1024 * 1024
	case strings.HasSuffix(raw, "mb"):
		multiplier = 1024 * 1024
	case strings.HasSuffix(raw, "kb"):
		multiplier = 1024
	}
	if multiplier > 1 {
		raw = strings.TrimSpace(raw[:len(raw)-2])
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid data unit %q: %w", raw, err)
	}
	*d = DataUnit(value) * multiplier
	return nil
}

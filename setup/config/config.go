// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package config carries the client SDK configuration: who we are, where
// the homeserver is, and the knobs for caching and delivery behaviour.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"maunium.net/go/mautrix/id"
)

// Client is the top-level SDK configuration.
type Client struct {
	// The user this client acts as.
	UserID id.UserID `yaml:"user_id"`

	// Base URL of the homeserver's client-server API.
	HomeserverURL string `yaml:"homeserver_url"`

	// Upper bound for a single history request before the caller's context
	// should cancel it. Zero means no client-side bound.
	PaginationRequestTimeout time.Duration `yaml:"pagination_request_timeout"`

	// How long completed send transactions are remembered for duplicate
	// suppression.
	TransactionIDLifetime time.Duration `yaml:"transaction_id_lifetime"`

	Cache  CacheOptions `yaml:"cache"`
	Sentry Sentry       `yaml:"sentry"`
}

// CacheOptions bounds the in-memory caches of derived data.
type CacheOptions struct {
	EstimatedMaxSize DataUnit      `yaml:"max_size_estimated"`
	MaxAge           time.Duration `yaml:"max_age"`
	EnablePrometheus bool          `yaml:"enable_prometheus"`
}

// Sentry configures the reporting of unexpected errors to a Sentry server.
type Sentry struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Defaults sets sensible values for everything the config file left out.
func (c *Client) Defaults() {
	if c.PaginationRequestTimeout == 0 {
		c.PaginationRequestTimeout = time.Second * 30
	}
	if c.TransactionIDLifetime == 0 {
		c.TransactionIDLifetime = time.Minute * 30
	}
	if c.Cache.EstimatedMaxSize == 0 {
		c.Cache.EstimatedMaxSize = 1024 * 1024 * 8
	}
	if c.Cache.MaxAge == 0 {
		c.Cache.MaxAge = time.Hour
	}
}

// Verify checks the configuration and adds anything wrong with it to
// configErrs.
func (c *Client) Verify(configErrs *ConfigErrors) {
	checkNotEmpty(configErrs, "user_id", string(c.UserID))
	checkNotEmpty(configErrs, "homeserver_url", c.HomeserverURL)
	if c.HomeserverURL != "" {
		if _, err := url.Parse(c.HomeserverURL); err != nil {
			configErrs.Add(fmt.Sprintf("invalid value for config key %q: %s", "homeserver_url", err))
		}
	}
	if c.Sentry.Enabled {
		checkNotEmpty(configErrs, "sentry.dsn", c.Sentry.DSN)
	}
}

// Load reads and verifies a YAML configuration file.
func Load(path string) (*Client, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var client Client
	if err = yaml.Unmarshal(contents, &client); err != nil {
		return nil, err
	}
	client.Defaults()
	var configErrs ConfigErrors
	client.Verify(&configErrs)
	if len(configErrs) > 0 {
		return nil, configErrs
	}
	if client.Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              client.Sentry.DSN,
			AttachStacktrace: true,
		}); err != nil {
			return nil, err
		}
	}
	return &client, nil
}

// ConfigErrors stores the messages of all errors encountered while verifying
// a config, so they can be reported together rather than one restart at a
// time.
type ConfigErrors []string

// Add appends an error to the list.
func (errs *ConfigErrors) Add(str string) {
	*errs = append(*errs, str)
}

func (errs ConfigErrors) Error() string {
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Sprintf("%s (and %d other problems)", errs[0], len(errs)-1)
}

func checkNotEmpty(configErrs *ConfigErrors, key, value string) {
	if value == "" {
		configErrs.Add(fmt.Sprintf("missing config key %q", key))
	}
}

/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package config binds the library's environment-driven defaults.
// Learn more through the documentation of the envconfig package:
// https://github.com/kelseyhightower/envconfig
package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jvmattach/attachcore/internal/attachlog"
)

// AdvertisementDirEnv is the canonical OpenJ9 override variable. It
// is read directly (not through envconfig, which cannot express dots
// in a struct tag env name) and takes priority over
// Specification.AdvertisementDir.
const AdvertisementDirEnv = "com.ibm.tools.attach.directory"

// DefaultAdvertisementDir is the fallback advertisement directory
// when neither AdvertisementDirEnv nor Specification.AdvertisementDir
// is set.
const DefaultAdvertisementDir = "/tmp/.com_ibm_tools_attach"

// Specification is the configuration specification for the
// attachment core. Values can be applied through environment
// variables prefixed ATTACHCORE_.
type Specification struct {
	AdvertisementDir  string        `split_words:"true" required:"false"`
	RetryAttempts     int           `split_words:"true" required:"false" default:"10"`
	RetryPause        time.Duration `split_words:"true" required:"false" default:"200ms"`
	RendezvousTimeout time.Duration `split_words:"true" required:"false" default:"5s"`
}

var Config Specification

// Load parses Specification from the environment. It never fails the
// caller's operation: a malformed environment falls back to defaults
// and is logged, matching this library's policy of never letting
// ambient configuration abort an attach attempt.
func Load() {
	if err := envconfig.Process("attachcore", &Config); err != nil {
		attachlog.Log.Warn().Err(err).Msg("could not parse attachcore configuration from environment, using defaults")
		Config = Specification{RetryAttempts: 10, RetryPause: 200 * time.Millisecond, RendezvousTimeout: 5 * time.Second}
	}
}

// ResolvedAdvertisementDir returns the OpenJ9 advertisement directory,
// honoring com.ibm.tools.attach.directory first, then
// ATTACHCORE_ADVERTISEMENT_DIR, then the built-in default.
func ResolvedAdvertisementDir() string {
	if dir := os.Getenv(AdvertisementDirEnv); dir != "" {
		return dir
	}
	if Config.AdvertisementDir != "" {
		return Config.AdvertisementDir
	}
	return DefaultAdvertisementDir
}

func init() {
	Load()
}

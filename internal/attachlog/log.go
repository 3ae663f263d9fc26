/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package attachlog provides the package-level structured logger used
// for best-effort diagnostics. Nothing in this package affects control
// flow: cleanup failures are logged at most, never surfaced as errors.
package attachlog

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the shared package-level logger. Callers may replace it
// (e.g. in tests, or to redirect into a host application's own
// logger) by assigning a new zerolog.Logger.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the plumbing shared by the mould commands: config
// loading with flag overrides, the command logger, payload input, and
// construction of a websocket-backed [mould.Client] from configuration.
//
// Commands return errors from a run function; main passes them to
// [Exit], which honors [ExitError] so a command that has already
// reported its outcome can exit non-zero without a second message.
package cli

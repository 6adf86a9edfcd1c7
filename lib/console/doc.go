// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console is a terminal UI for a mould client, built on
// bubbletea.
//
// The console has three views. One is the start page. Two sends the
// configured request and shows its result. Three shows the connection
// settings. The header carries two navigation buttons, "Two" and
// "Three", and the button of the current view is drawn selected. A
// status bar shows the connection status (fed by [StatusMsg] from the
// client's status callback) and the most recent log record routed
// through [LogHandler], falling back to key help.
//
// Requests go through a [Caller]; [ClientCaller] adapts a
// *mould.Client. Pages are written in markdown and rendered with
// goldmark, with JSON results highlighted by Chroma.
package console

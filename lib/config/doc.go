// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the mould
// command-line tools.
//
// Configuration is loaded from a single file specified by either the
// MOULD_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search. Command-line
// flags given alongside a config file take precedence over it.
//
// The file supports environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Without a production section,
// production switches logging to JSON and bounds requests to 30
// seconds.
//
// ${VAR} and ${VAR:-default} patterns are expanded in the server URL
// and metrics address after loading.
//
// This package depends on no other mould packages.
package config

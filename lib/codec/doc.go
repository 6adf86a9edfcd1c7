// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides mould's standard CBOR encoding configuration.
//
// Mould speaks two wire formats over the same envelope shape:
//
//   - JSON in text frames: the default, and what browser-facing
//     servers speak. JSON is handled with encoding/json directly.
//   - CBOR in binary frames: for servers that prefer a compact,
//     self-delimiting binary encoding.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// Envelope and payload types carry `json` tags only. fxamacker/cbor v2
// reads `json` tags as fallback when `cbor` tags are absent, so a
// single tag controls field naming and omitempty for both formats.
// Never use both `cbor` and `json` tags on the same field.
package codec

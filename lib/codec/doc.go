// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the deterministic CBOR configuration used for
// flashfs snapshot images.
//
// The reference engine (lib/lfs/lfsmock) serializes its directory tree
// into the device as a CBOR payload whose checksum is stored in the
// superblock. Determinism matters there: the same logical tree must
// always produce identical bytes, so an unchanged filesystem written
// twice yields an identical image and checksum. The encoder therefore
// uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items.
//
// Usage:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Snapshot types use `cbor` struct tags: they are only ever serialized
// as CBOR, never as JSON, and the tag documents that contract.
package codec

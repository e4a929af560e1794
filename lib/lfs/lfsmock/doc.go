// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package lfsmock provides an in-memory reference implementation of
// the lfs.Engine contract for tests and development tooling.
//
// The engine keeps the directory tree in memory and persists it as a
// snapshot image written through the configured BlockOps callbacks, so
// the flashfs shim and the underlying block device are exercised end
// to end: block 0 holds a superblock (magic, version, compression
// tag, payload length, BLAKE3 checksum) and the remaining blocks hold
// a zstd-compressed deterministic-CBOR encoding of the tree. The
// snapshot is rewritten on format, file sync, file close, and
// unmount.
//
// This is a reference engine, not littlefs: the snapshot format is
// not littlefs's on-disk format and the engine makes none of its
// power-loss guarantees (the superblock is programmed after the
// payload, so a torn write is detected as corruption at the next
// mount rather than silently read). Wear leveling and block
// allocation are likewise absent. What it does honor, exactly, is the
// contract surface: the numeric result codes, the open-flag and
// whence semantics, DirRead's 1/0/negative protocol, and the fact
// that operations on an unmounted engine or a closed handle fail
// rather than misbehave.
package lfsmock

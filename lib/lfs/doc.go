// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package lfs declares the contract between the flashfs adapter and a
// littlefs-style log-structured filesystem engine.
//
// The engine is an external collaborator: this package defines only
// the numeric constants it speaks (error codes, open flags, seek
// whence values, entry types — all littlefs wire values), the storage
// callback interface it drives (BlockOps), the geometry record it is
// configured with (Config), and the operation surface the adapter
// calls (Engine). It deliberately says nothing about the on-disk
// format, wear leveling, or the commit protocol; those live entirely
// behind the Engine interface.
//
// All Engine methods return C-style result codes: zero or a positive
// count on success, a negative ErrXxx constant on failure. The adapter
// (package flashfs) is responsible for translating these into Go
// errors; engine implementations must not invent codes outside this
// package except where littlefs itself would.
package lfs

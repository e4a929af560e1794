// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package blockdevice defines the abstract flash block device the
// flashfs adapter runs against, plus two implementations: a RAM-backed
// simulated flash (Mem) for tests and development, and a fixed-size
// image file (File) for persistent filesystem images.
//
// Devices are addressed by linear byte offset. Read, Program, and
// Erase honor the device's respective granularities; callers are
// expected to align accordingly (the flashfs adapter derives its
// geometry from these granularities, so aligned access falls out of
// correct configuration). A device must be initialized with Init
// before any I/O and released with Deinit. Initializing an already
// initialized device is a no-op; I/O against an uninitialized device
// is an error, not a panic.
package blockdevice

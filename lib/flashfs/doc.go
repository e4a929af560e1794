// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package flashfs adapts a littlefs-style log-structured filesystem
// engine (lib/lfs) onto an abstract block device (lib/blockdevice),
// exposing a generic file/directory surface with POSIX-flavored
// errors.
//
// The adapter owns three responsibilities the engine assumes but does
// not enforce:
//
//   - Configuration derivation: the engine's geometry is computed from
//     the device's reported capabilities plus caller hints, clamped so
//     that the block size is never smaller than the hardware erase
//     unit, the cache holds at least one program operation, and the
//     lookahead bitmap never exceeds what the block count needs.
//
//   - The mount/unmount/format/reformat state machine, serialized by a
//     per-instance lock, with resource cleanup on every failure path.
//
//   - Translation between the engine's numeric result codes and Go
//     errors, and between POSIX open flags / seek whence values and
//     their engine equivalents.
//
// Every operation that touches engine state — lifecycle transitions,
// path operations, handle operations, statistics — acquires the same
// instance-wide lock. The lock is deliberately coarse: the engine is
// not internally thread-safe, and one lock per mounted filesystem is
// the simplest arrangement that cannot corrupt it. Two goroutines
// working on different files of the same instance are serialized, not
// parallelized.
package flashfs

// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package blockdevice

import "errors"

// Common device errors.
var (
	// ErrNotInitialized is returned by I/O operations on a device
	// that has not been initialized (or has been deinitialized).
	ErrNotInitialized = errors.New("blockdevice: device not initialized")

	// ErrOutOfRange is returned when an access extends past the end
	// of the device.
	ErrOutOfRange = errors.New("blockdevice: access out of range")

	// ErrUnaligned is returned when an erase is not aligned to the
	// device's erase size.
	ErrUnaligned = errors.New("blockdevice: unaligned access")
)

// Device is an abstract flash block device addressed by linear byte
// offset. Implementations report three granularities: the minimum
// read unit, the minimum program unit, and the erase unit. Program
// may only target erased regions; Erase spans must be erase-size
// aligned.
//
// Device implementations are not required to be safe for concurrent
// use. The flashfs adapter serializes all access behind its instance
// lock.
type Device interface {
	// Init prepares the device for I/O. No-op if already initialized.
	Init() error

	// Deinit releases the device. I/O after Deinit fails with
	// ErrNotInitialized until the next Init.
	Deinit() error

	// Read reads len(p) bytes starting at addr.
	Read(p []byte, addr uint64) error

	// Program writes len(p) bytes starting at addr. The target
	// region must have been erased.
	Program(p []byte, addr uint64) error

	// Erase erases size bytes starting at addr. Both must be
	// multiples of EraseSize.
	Erase(addr uint64, size uint64) error

	// Sync flushes any buffered writes to stable storage.
	Sync() error

	// ReadSize returns the minimum read unit in bytes.
	ReadSize() uint32

	// ProgramSize returns the minimum program unit in bytes.
	ProgramSize() uint32

	// EraseSize returns the erase unit in bytes.
	EraseSize() uint32

	// Size returns the total device capacity in bytes.
	Size() uint64
}

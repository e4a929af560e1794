// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package blockdevice

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FileGeometry describes the flash geometry a File device presents.
// The image file itself is flat bytes; the granularities only shape
// how flashfs derives its configuration.
type FileGeometry struct {
	// ReadSize is the minimum read unit. Defaults to 1.
	ReadSize uint32

	// ProgramSize is the minimum program unit. Defaults to 1.
	ProgramSize uint32

	// EraseSize is the erase unit. Defaults to 4096.
	EraseSize uint32

	// Size is the image capacity in bytes. Must be a positive
	// multiple of EraseSize.
	Size uint64
}

// File is a fixed-size image file presented as a flash block device.
// If the file does not exist it is created at the requested size,
// filled with the erased pattern (0xFF). If it exists at a different
// size, opening fails — delete the image to resize, so that a stale
// image is never silently reinterpreted under a new geometry.
//
// Reads and writes use pread/pwrite; Sync is fsync. Erase writes the
// 0xFF pattern over the span, matching what a NOR part would read
// back.
type File struct {
	path string
	geo  FileGeometry

	fd          int
	initialized bool
}

// NewFile prepares an image file device at path. The file is created
// or validated during Init, not here, so that constructing a device
// for a not-yet-present image is cheap and error-free.
func NewFile(path string, geo FileGeometry) (*File, error) {
	if geo.ReadSize == 0 {
		geo.ReadSize = 1
	}
	if geo.ProgramSize == 0 {
		geo.ProgramSize = 1
	}
	if geo.EraseSize == 0 {
		geo.EraseSize = 4096
	}
	if geo.Size == 0 || geo.Size%uint64(geo.EraseSize) != 0 {
		return nil, fmt.Errorf("blockdevice: size %d is not a positive multiple of erase size %d", geo.Size, geo.EraseSize)
	}
	return &File{path: path, geo: geo, fd: -1}, nil
}

// Init implements Device: opens or creates the image file and
// validates its size.
func (f *File) Init() error {
	if f.initialized {
		return nil
	}

	fd, err := unix.Open(f.path, unix.O_CREAT|unix.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening image %s: %w", f.path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return fmt.Errorf("stating image %s: %w", f.path, err)
	}

	switch {
	case stat.Size == 0:
		// New image — size it and fill with the erased pattern.
		if err := unix.Ftruncate(fd, int64(f.geo.Size)); err != nil {
			unix.Close(fd)
			return fmt.Errorf("sizing new image to %d bytes: %w", f.geo.Size, err)
		}
		erased := make([]byte, f.geo.EraseSize)
		for i := range erased {
			erased[i] = 0xFF
		}
		for off := uint64(0); off < f.geo.Size; off += uint64(f.geo.EraseSize) {
			if _, err := unix.Pwrite(fd, erased, int64(off)); err != nil {
				unix.Close(fd)
				return fmt.Errorf("initializing image: %w", err)
			}
		}
	case uint64(stat.Size) != f.geo.Size:
		unix.Close(fd)
		return fmt.Errorf("image %s is %d bytes but %d was requested; delete the image to resize",
			f.path, stat.Size, f.geo.Size)
	}

	f.fd = fd
	f.initialized = true
	return nil
}

// Deinit implements Device.
func (f *File) Deinit() error {
	if !f.initialized {
		return nil
	}
	f.initialized = false
	fd := f.fd
	f.fd = -1
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("closing image %s: %w", f.path, err)
	}
	return nil
}

func (f *File) check(addr uint64, length int) error {
	if !f.initialized {
		return ErrNotInitialized
	}
	if addr+uint64(length) > f.geo.Size {
		return ErrOutOfRange
	}
	return nil
}

// Read implements Device.
func (f *File) Read(p []byte, addr uint64) error {
	if err := f.check(addr, len(p)); err != nil {
		return err
	}
	for len(p) > 0 {
		n, err := unix.Pread(f.fd, p, int64(addr))
		if err != nil {
			return fmt.Errorf("reading image at %d: %w", addr, err)
		}
		if n == 0 {
			return ErrOutOfRange
		}
		p = p[n:]
		addr += uint64(n)
	}
	return nil
}

// Program implements Device.
func (f *File) Program(p []byte, addr uint64) error {
	if err := f.check(addr, len(p)); err != nil {
		return err
	}
	for len(p) > 0 {
		n, err := unix.Pwrite(f.fd, p, int64(addr))
		if err != nil {
			return fmt.Errorf("writing image at %d: %w", addr, err)
		}
		p = p[n:]
		addr += uint64(n)
	}
	return nil
}

// Erase implements Device.
func (f *File) Erase(addr uint64, size uint64) error {
	if err := f.check(addr, int(size)); err != nil {
		return err
	}
	es := uint64(f.geo.EraseSize)
	if addr%es != 0 || size%es != 0 {
		return ErrUnaligned
	}
	erased := make([]byte, f.geo.EraseSize)
	for i := range erased {
		erased[i] = 0xFF
	}
	for off := addr; off < addr+size; off += es {
		if err := f.Program(erased, off); err != nil {
			return err
		}
	}
	return nil
}

// Sync implements Device.
func (f *File) Sync() error {
	if !f.initialized {
		return ErrNotInitialized
	}
	if err := unix.Fsync(f.fd); err != nil {
		return fmt.Errorf("syncing image %s: %w", f.path, err)
	}
	return nil
}

// ReadSize implements Device.
func (f *File) ReadSize() uint32 { return f.geo.ReadSize }

// ProgramSize implements Device.
func (f *File) ProgramSize() uint32 { return f.geo.ProgramSize }

// EraseSize implements Device.
func (f *File) EraseSize() uint32 { return f.geo.EraseSize }

// Size implements Device.
func (f *File) Size() uint64 { return f.geo.Size }

var _ Device = (*File)(nil)

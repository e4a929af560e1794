// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package blockdevice

import "fmt"

// MemGeometry describes the simulated flash geometry of a Mem device.
type MemGeometry struct {
	// ReadSize is the minimum read unit. Defaults to 1.
	ReadSize uint32

	// ProgramSize is the minimum program unit. Defaults to 1.
	ProgramSize uint32

	// EraseSize is the erase unit. Defaults to 4096.
	EraseSize uint32

	// Size is the total capacity in bytes. Must be a positive
	// multiple of EraseSize.
	Size uint64
}

// Mem is a RAM-backed simulated flash device. Erased regions read as
// 0xFF, matching NOR flash behavior, and out-of-range or unaligned
// accesses fail instead of clamping so that geometry bugs in callers
// surface immediately.
//
// The failure hooks (FailInit, FailDeinit, FailProgram) inject device
// errors for exercising error paths; they are plain fields rather
// than options because Mem's audience is tests and development
// tooling.
type Mem struct {
	geo  MemGeometry
	data []byte

	initialized bool

	// InitCalls and DeinitCalls count lifecycle transitions, for
	// asserting that mount/unmount sequences balance.
	InitCalls   int
	DeinitCalls int

	// FailInit, when non-nil, is returned by the next Init call.
	FailInit error

	// FailDeinit, when non-nil, is returned by Deinit calls. The
	// device is still torn down.
	FailDeinit error

	// FailProgram, when non-nil, is returned by Program calls.
	FailProgram error
}

// NewMem creates a simulated flash device with the given geometry.
// Zero-valued granularities get defaults (1/1/4096).
func NewMem(geo MemGeometry) (*Mem, error) {
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

	data := make([]byte, geo.Size)
	for i := range data {
		data[i] = 0xFF
	}
	return &Mem{geo: geo, data: data}, nil
}

// Init implements Device.
func (m *Mem) Init() error {
	m.InitCalls++
	if err := m.FailInit; err != nil {
		m.FailInit = nil
		return err
	}
	m.initialized = true
	return nil
}

// Deinit implements Device.
func (m *Mem) Deinit() error {
	m.DeinitCalls++
	m.initialized = false
	return m.FailDeinit
}

func (m *Mem) check(addr uint64, length int) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if addr+uint64(length) > m.geo.Size {
		return ErrOutOfRange
	}
	return nil
}

// Read implements Device.
func (m *Mem) Read(p []byte, addr uint64) error {
	if err := m.check(addr, len(p)); err != nil {
		return err
	}
	copy(p, m.data[addr:])
	return nil
}

// Program implements Device.
func (m *Mem) Program(p []byte, addr uint64) error {
	if err := m.check(addr, len(p)); err != nil {
		return err
	}
	if m.FailProgram != nil {
		return m.FailProgram
	}
	copy(m.data[addr:], p)
	return nil
}

// Erase implements Device.
func (m *Mem) Erase(addr uint64, size uint64) error {
	if err := m.check(addr, int(size)); err != nil {
		return err
	}
	es := uint64(m.geo.EraseSize)
	if addr%es != 0 || size%es != 0 {
		return ErrUnaligned
	}
	for i := addr; i < addr+size; i++ {
		m.data[i] = 0xFF
	}
	return nil
}

// Sync implements Device. RAM has nothing to flush.
func (m *Mem) Sync() error {
	if !m.initialized {
		return ErrNotInitialized
	}
	return nil
}

// ReadSize implements Device.
func (m *Mem) ReadSize() uint32 { return m.geo.ReadSize }

// ProgramSize implements Device.
func (m *Mem) ProgramSize() uint32 { return m.geo.ProgramSize }

// EraseSize implements Device.
func (m *Mem) EraseSize() uint32 { return m.geo.EraseSize }

// Size implements Device.
func (m *Mem) Size() uint64 { return m.geo.Size }

var _ Device = (*Mem)(nil)

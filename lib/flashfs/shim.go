// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"errors"

	"github.com/flashfs-foundation/flashfs/lib/blockdevice"
	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// deviceOps satisfies the engine's storage callback contract by
// delegating to a block device, converting the engine's block-relative
// addressing into the device's linear byte addressing. The four
// methods are pure trampolines: no caching, no retries, no state
// beyond the device reference and the block size the addresses are
// scaled by.
//
// The device speaks Go errors while the engine speaks negative codes.
// Addressing errors (out of range, unaligned) indicate a bad request
// and map to lfs.ErrInval; every other device failure is reported as
// lfs.ErrIO, the engine's code for "the storage layer failed".
type deviceOps struct {
	dev       blockdevice.Device
	blockSize uint32
}

var _ lfs.BlockOps = (*deviceOps)(nil)

func (o *deviceOps) addr(block, off uint32) uint64 {
	return uint64(block)*uint64(o.blockSize) + uint64(off)
}

func opsCode(err error) int {
	if errors.Is(err, blockdevice.ErrOutOfRange) || errors.Is(err, blockdevice.ErrUnaligned) {
		return lfs.ErrInval
	}
	return lfs.ErrIO
}

func (o *deviceOps) Read(block, off uint32, p []byte) int {
	if err := o.dev.Read(p, o.addr(block, off)); err != nil {
		return opsCode(err)
	}
	return 0
}

func (o *deviceOps) Prog(block, off uint32, p []byte) int {
	if err := o.dev.Program(p, o.addr(block, off)); err != nil {
		return opsCode(err)
	}
	return 0
}

func (o *deviceOps) Erase(block uint32) int {
	if err := o.dev.Erase(o.addr(block, 0), uint64(o.blockSize)); err != nil {
		return opsCode(err)
	}
	return 0
}

func (o *deviceOps) Sync() int {
	if err := o.dev.Sync(); err != nil {
		return opsCode(err)
	}
	return 0
}

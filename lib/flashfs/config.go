// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"github.com/flashfs-foundation/flashfs/lib/blockdevice"
	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// Hints are caller-supplied geometry preferences. They are exactly
// that — preferences: the deriver clamps each one against the device's
// reported capabilities, so a hint can request more than the hardware
// minimum but never less.
type Hints struct {
	// BlockSize is the requested erase unit. Raised to the device's
	// erase size when smaller. Zero means DefaultBlockSize.
	BlockSize uint32

	// BlockCycles is the erase-cycle budget per metadata block
	// before the engine relocates it. Zero means
	// DefaultBlockCycles; negative disables wear leveling.
	BlockCycles int32

	// CacheSize is the requested engine cache size. Raised to the
	// device's program size when smaller. Zero means
	// DefaultCacheSize.
	CacheSize uint32

	// LookaheadSize is the requested free-block lookahead bitmap
	// size. Capped to the bits the block count actually needs. Zero
	// means DefaultLookaheadSize.
	LookaheadSize uint32
}

// Default hint values, applied to zero Hints fields.
const (
	DefaultBlockSize     = 512
	DefaultBlockCycles   = 512
	DefaultCacheSize     = 64
	DefaultLookaheadSize = 64
)

// withDefaults returns h with zero fields replaced by the defaults.
func (h Hints) withDefaults() Hints {
	if h.BlockSize == 0 {
		h.BlockSize = DefaultBlockSize
	}
	if h.BlockCycles == 0 {
		h.BlockCycles = DefaultBlockCycles
	}
	if h.CacheSize == 0 {
		h.CacheSize = DefaultCacheSize
	}
	if h.LookaheadSize == 0 {
		h.LookaheadSize = DefaultLookaheadSize
	}
	return h
}

// deriveConfig computes the engine configuration for a device from
// its capability queries plus the caller's hints. The derivation is
// pure — no persisted state is consulted — and idempotent: feeding
// the derived values back in as hints against the same device
// reproduces the configuration exactly, which is what makes reformat
// safe to re-derive from the last mounted configuration.
//
// Structural invariants enforced here, which the engine assumes but
// never checks:
//
//   - BlockSize ≥ device erase size: the filesystem's erase unit can
//     never be smaller than the hardware's.
//   - CacheSize ≥ device program size: the cache must hold at least
//     one program operation.
//   - LookaheadSize ≤ 8*ceil(BlockCount/64): the lookahead bitmap is
//     packed 8 bytes per 64-block group; anything beyond that is
//     over-allocation the engine may assert on for tiny devices.
//   - BlockCount = device size / BlockSize: trailing bytes that do
//     not fill a whole block are unusable and excluded.
func deriveConfig(dev blockdevice.Device, hints Hints) lfs.Config {
	blockSize := max(hints.BlockSize, dev.EraseSize())
	blockCount := uint32(dev.Size() / uint64(blockSize))

	return lfs.Config{
		Ops:           &deviceOps{dev: dev, blockSize: blockSize},
		ReadSize:      dev.ReadSize(),
		ProgSize:      dev.ProgramSize(),
		BlockSize:     blockSize,
		BlockCount:    blockCount,
		BlockCycles:   hints.BlockCycles,
		CacheSize:     max(hints.CacheSize, dev.ProgramSize()),
		LookaheadSize: min(hints.LookaheadSize, 8*((blockCount+63)/64)),
	}
}

// hintsFromConfig recovers the hint record that reproduces cfg against
// the same device. Used by Reformat to re-derive the last mounted
// geometry.
func hintsFromConfig(cfg lfs.Config) Hints {
	return Hints{
		BlockSize:     cfg.BlockSize,
		BlockCycles:   cfg.BlockCycles,
		CacheSize:     cfg.CacheSize,
		LookaheadSize: cfg.LookaheadSize,
	}
}

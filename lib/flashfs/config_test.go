// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"testing"

	"github.com/flashfs-foundation/flashfs/lib/blockdevice"
)

// testDevice returns an uninitialized simulated device with the given
// geometry. Derivation only queries capabilities, so the device does
// not need Init.
func testDevice(t *testing.T, geo blockdevice.MemGeometry) *blockdevice.Mem {
	t.Helper()
	dev, err := blockdevice.NewMem(geo)
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}
	return dev
}

func TestDeriveConfigClampsToDevice(t *testing.T) {
	dev := testDevice(t, blockdevice.MemGeometry{
		ReadSize:    16,
		ProgramSize: 256,
		EraseSize:   4096,
		Size:        1024 * 1024,
	})

	// Hints below the hardware minimums get raised.
	cfg := deriveConfig(dev, Hints{
		BlockSize:     512,
		BlockCycles:   500,
		CacheSize:     64,
		LookaheadSize: 32,
	})

	if cfg.ReadSize != 16 {
		t.Errorf("ReadSize = %d, want 16", cfg.ReadSize)
	}
	if cfg.ProgSize != 256 {
		t.Errorf("ProgSize = %d, want 256", cfg.ProgSize)
	}
	if cfg.BlockSize != 4096 {
		t.Errorf("BlockSize = %d, want 4096 (device erase size)", cfg.BlockSize)
	}
	if cfg.BlockCount != 256 {
		t.Errorf("BlockCount = %d, want 256", cfg.BlockCount)
	}
	if cfg.CacheSize != 256 {
		t.Errorf("CacheSize = %d, want 256 (device program size)", cfg.CacheSize)
	}
	if cfg.BlockCycles != 500 {
		t.Errorf("BlockCycles = %d, want 500", cfg.BlockCycles)
	}
	if cfg.Ops == nil {
		t.Error("Ops is nil")
	}
}

func TestDeriveConfigHonorsLargerHints(t *testing.T) {
	dev := testDevice(t, blockdevice.MemGeometry{
		EraseSize: 4096,
		Size:      1024 * 1024,
	})

	cfg := deriveConfig(dev, Hints{
		BlockSize:     8192,
		BlockCycles:   512,
		CacheSize:     1024,
		LookaheadSize: 64,
	})

	if cfg.BlockSize != 8192 {
		t.Errorf("BlockSize = %d, want 8192", cfg.BlockSize)
	}
	if cfg.BlockCount != 128 {
		t.Errorf("BlockCount = %d, want 128", cfg.BlockCount)
	}
	if cfg.CacheSize != 1024 {
		t.Errorf("CacheSize = %d, want 1024", cfg.CacheSize)
	}
}

func TestDeriveConfigLookaheadCap(t *testing.T) {
	tests := []struct {
		name string
		size uint64
		hint uint32
		want uint32
	}{
		// 128 blocks need 8*ceil(128/64) = 16 bytes of bitmap.
		{"small device caps hint", 64 * 1024, 64, 16},
		{"oversized hint capped", 64 * 1024, 4096, 16},
		// 16384 blocks allow up to 2048 bytes; the hint stands.
		{"large device keeps hint", 8 * 1024 * 1024, 64, 64},
		// 100 blocks: ceil(100/64) = 2 groups, 16 bytes.
		{"partial group rounds up", 51200, 64, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := testDevice(t, blockdevice.MemGeometry{
				EraseSize: 512,
				Size:      tt.size,
			})
			cfg := deriveConfig(dev, Hints{
				BlockSize:     512,
				LookaheadSize: tt.hint,
			})
			if cfg.LookaheadSize != tt.want {
				t.Errorf("LookaheadSize = %d, want %d", cfg.LookaheadSize, tt.want)
			}
		})
	}
}

func TestDeriveConfigBlockCountExcludesRemainder(t *testing.T) {
	dev := testDevice(t, blockdevice.MemGeometry{
		EraseSize: 512,
		Size:      4096,
	})

	// 4096 / 1536 = 2 whole blocks; the trailing 1024 bytes are
	// unusable and must not be counted.
	cfg := deriveConfig(dev, Hints{BlockSize: 1536})
	if cfg.BlockCount != 2 {
		t.Errorf("BlockCount = %d, want 2", cfg.BlockCount)
	}
}

// TestDeriveIdempotent pins the property reformat depends on: feeding
// the derived values back in as hints reproduces the configuration.
func TestDeriveIdempotent(t *testing.T) {
	devices := []blockdevice.MemGeometry{
		{EraseSize: 512, Size: 256 * 1024},
		{ReadSize: 16, ProgramSize: 256, EraseSize: 4096, Size: 2 * 1024 * 1024},
		{EraseSize: 512, Size: 51200},
	}
	hints := []Hints{
		{},
		{BlockSize: 1, CacheSize: 1, LookaheadSize: 1, BlockCycles: -1},
		{BlockSize: 8192, CacheSize: 4096, LookaheadSize: 65536, BlockCycles: 100},
	}

	for _, geo := range devices {
		for _, h := range hints {
			dev := testDevice(t, geo)
			first := deriveConfig(dev, h.withDefaults())
			second := deriveConfig(dev, hintsFromConfig(first))

			if first.BlockSize != second.BlockSize ||
				first.BlockCount != second.BlockCount ||
				first.BlockCycles != second.BlockCycles ||
				first.CacheSize != second.CacheSize ||
				first.LookaheadSize != second.LookaheadSize {
				t.Errorf("derivation not a fixed point for geo %+v hints %+v:\n first %+v\nsecond %+v",
					geo, h, first, second)
			}
		}
	}
}

func TestHintsWithDefaults(t *testing.T) {
	got := Hints{}.withDefaults()
	want := Hints{
		BlockSize:     DefaultBlockSize,
		BlockCycles:   DefaultBlockCycles,
		CacheSize:     DefaultCacheSize,
		LookaheadSize: DefaultLookaheadSize,
	}
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}

	// Negative cycles disable wear leveling and must survive.
	if h := (Hints{BlockCycles: -1}).withDefaults(); h.BlockCycles != -1 {
		t.Errorf("BlockCycles = %d, want -1", h.BlockCycles)
	}
}

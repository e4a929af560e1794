// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package blockdevice

import (
	"bytes"
	"errors"
	"testing"
)

func newTestMem(t *testing.T) *Mem {
	t.Helper()
	dev, err := NewMem(MemGeometry{
		EraseSize: 512,
		Size:      8 * 512,
	})
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}
	return dev
}

func TestNewMemValidatesGeometry(t *testing.T) {
	if _, err := NewMem(MemGeometry{EraseSize: 512, Size: 0}); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := NewMem(MemGeometry{EraseSize: 512, Size: 1000}); err == nil {
		t.Error("expected error for size not a multiple of erase size")
	}
}

func TestNewMemDefaults(t *testing.T) {
	dev, err := NewMem(MemGeometry{Size: 8192})
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}
	if dev.ReadSize() != 1 || dev.ProgramSize() != 1 || dev.EraseSize() != 4096 {
		t.Errorf("defaults = %d/%d/%d, want 1/1/4096",
			dev.ReadSize(), dev.ProgramSize(), dev.EraseSize())
	}
	if dev.Size() != 8192 {
		t.Errorf("Size = %d, want 8192", dev.Size())
	}
}

func TestMemRequiresInit(t *testing.T) {
	dev := newTestMem(t)

	buffer := make([]byte, 4)
	if err := dev.Read(buffer, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Read before Init = %v, want ErrNotInitialized", err)
	}
	if err := dev.Program([]byte{1}, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Program before Init = %v, want ErrNotInitialized", err)
	}
	if err := dev.Sync(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Sync before Init = %v, want ErrNotInitialized", err)
	}
}

func TestMemReadsErasedPattern(t *testing.T) {
	dev := newTestMem(t)
	if err := dev.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got := make([]byte, 16)
	if err := dev.Read(got, 512); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, b := range got {
		if b != 0xFF {
			t.Fatalf("byte %d = %#x, want 0xFF", i, b)
		}
	}
}

func TestMemProgramReadEraseCycle(t *testing.T) {
	dev := newTestMem(t)
	if err := dev.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	content := []byte("flash content")
	if err := dev.Program(content, 512); err != nil {
		t.Fatalf("Program: %v", err)
	}

	got := make([]byte, len(content))
	if err := dev.Read(got, 512); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("got %q, want %q", got, content)
	}

	if err := dev.Erase(512, 512); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if err := dev.Read(got, 512); err != nil {
		t.Fatalf("Read after Erase: %v", err)
	}
	for i, b := range got {
		if b != 0xFF {
			t.Fatalf("byte %d after erase = %#x, want 0xFF", i, b)
		}
	}
}

func TestMemBoundsAndAlignment(t *testing.T) {
	dev := newTestMem(t)
	if err := dev.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	buffer := make([]byte, 16)
	if err := dev.Read(buffer, dev.Size()-8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Read past end = %v, want ErrOutOfRange", err)
	}
	if err := dev.Program(buffer, dev.Size()); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Program past end = %v, want ErrOutOfRange", err)
	}
	if err := dev.Erase(100, 512); !errors.Is(err, ErrUnaligned) {
		t.Errorf("unaligned Erase addr = %v, want ErrUnaligned", err)
	}
	if err := dev.Erase(512, 100); !errors.Is(err, ErrUnaligned) {
		t.Errorf("unaligned Erase size = %v, want ErrUnaligned", err)
	}
}

func TestMemLifecycleCounters(t *testing.T) {
	dev := newTestMem(t)

	dev.Init()
	dev.Init()
	dev.Deinit()
	if dev.InitCalls != 2 || dev.DeinitCalls != 1 {
		t.Errorf("counters = %d/%d, want 2/1", dev.InitCalls, dev.DeinitCalls)
	}

	// After Deinit, I/O fails again.
	if err := dev.Sync(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Sync after Deinit = %v, want ErrNotInitialized", err)
	}
}

func TestMemFailureHooks(t *testing.T) {
	dev := newTestMem(t)

	boom := errors.New("boom")

	// FailInit is one-shot.
	dev.FailInit = boom
	if err := dev.Init(); !errors.Is(err, boom) {
		t.Errorf("Init = %v, want %v", err, boom)
	}
	if err := dev.Init(); err != nil {
		t.Errorf("second Init = %v, want nil", err)
	}

	dev.FailProgram = boom
	if err := dev.Program([]byte{1}, 0); !errors.Is(err, boom) {
		t.Errorf("Program = %v, want %v", err, boom)
	}
	dev.FailProgram = nil

	// FailDeinit reports the error but still tears down.
	dev.FailDeinit = boom
	if err := dev.Deinit(); !errors.Is(err, boom) {
		t.Errorf("Deinit = %v, want %v", err, boom)
	}
	if err := dev.Sync(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Sync after failing Deinit = %v, want ErrNotInitialized", err)
	}
}

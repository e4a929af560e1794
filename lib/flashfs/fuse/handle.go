// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/flashfs-foundation/flashfs/lib/flashfs"
)

// fileHandle adapts an adapter file handle to the kernel's
// offset-based read and write protocol. The underlying handle keeps a
// single cursor, so each request seeks then transfers under the
// handle mutex.
type fileHandle struct {
	mu     sync.Mutex
	file   *flashfs.File
	logger *slog.Logger
}

var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileWriter = (*fileHandle)(nil)
var _ gofuse.FileFlusher = (*fileHandle)(nil)
var _ gofuse.FileFsyncer = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

func (h *fileHandle) Read(_ context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil, syscall.EBADF
	}
	if _, err := h.file.Seek(off, io.SeekStart); err != nil {
		return nil, errnoOf(err)
	}

	// A single engine read may return less than requested; keep
	// going until the buffer is full or the file ends.
	filled := 0
	for filled < len(dest) {
		n, err := h.file.Read(dest[filled:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errnoOf(err)
		}
		filled += n
	}
	return fuse.ReadResultData(dest[:filled]), 0
}

func (h *fileHandle) Write(_ context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return 0, syscall.EBADF
	}
	if _, err := h.file.Seek(off, io.SeekStart); err != nil {
		return 0, errnoOf(err)
	}

	written := 0
	for written < len(data) {
		n, err := h.file.Write(data[written:])
		if err != nil {
			return uint32(written), errnoOf(err)
		}
		if n == 0 {
			return uint32(written), syscall.EIO
		}
		written += n
	}
	return uint32(written), 0
}

func (h *fileHandle) Flush(_ context.Context) syscall.Errno {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return 0
	}
	return errnoOf(h.file.Sync())
}

func (h *fileHandle) Fsync(_ context.Context, _ uint32) syscall.Errno {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return syscall.EBADF
	}
	return errnoOf(h.file.Sync())
}

func (h *fileHandle) Release(_ context.Context) syscall.Errno {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return 0
	}
	err := h.file.Close()
	h.file = nil
	if err != nil {
		h.logger.Warn("close on release failed", "error", err)
		return errnoOf(err)
	}
	return 0
}

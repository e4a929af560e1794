// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"io"

	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// File is an open file. A File is owned by exactly one caller between
// OpenFile and Close; the instance lock serializes operations across
// handles but does not make one handle safe for concurrent use.
type File struct {
	fs *FileSystem
	h  *lfs.File
}

// OpenFile opens the file at path. flags are POSIX open flags
// (os.O_RDONLY, os.O_CREATE, ...), translated for the engine.
//
// The handle record is allocated before delegating to the engine; if
// the engine rejects the open, the record is released before the
// error returns, so a failed open never leaks. On success, ownership
// of the record transfers to the returned File.
func (fs *FileSystem) OpenFile(path string, flags int) (*File, error) {
	h := &lfs.File{}
	fs.mu.Lock()
	code := fs.engine.FileOpen(h, path, fromFlags(flags))
	fs.mu.Unlock()
	fs.logger.Debug("file_open", "path", path, "flags", flags, "code", code)

	if err := errFromCode(code); err != nil {
		return nil, err
	}
	return &File{fs: fs, h: h}, nil
}

// Close flushes and closes the file. The handle record is released
// even when the engine reports an error; the error is still surfaced.
// The File must not be used after Close.
func (f *File) Close() error {
	f.fs.mu.Lock()
	code := f.fs.engine.FileClose(f.h)
	f.fs.mu.Unlock()
	f.fs.logger.Debug("file_close", "code", code)

	f.h = nil
	return errFromCode(code)
}

// Read reads up to len(p) bytes at the current position. At end of
// file it returns 0, io.EOF, satisfying io.Reader.
func (f *File) Read(p []byte) (int, error) {
	f.fs.mu.Lock()
	n := f.fs.engine.FileRead(f.h, p)
	f.fs.mu.Unlock()
	f.fs.logger.Debug("file_read", "len", len(p), "code", n)

	if n < 0 {
		return 0, errFromCode(n)
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write writes len(p) bytes at the current position (at the end for
// append-mode handles). Writes may be buffered by the engine until
// Sync or Close.
func (f *File) Write(p []byte) (int, error) {
	f.fs.mu.Lock()
	n := f.fs.engine.FileWrite(f.h, p)
	f.fs.mu.Unlock()
	f.fs.logger.Debug("file_write", "len", len(p), "code", n)

	if n < 0 {
		return 0, errFromCode(n)
	}
	return n, nil
}

// Sync flushes buffered writes to the device.
func (f *File) Sync() error {
	f.fs.mu.Lock()
	code := f.fs.engine.FileSync(f.h)
	f.fs.mu.Unlock()
	f.fs.logger.Debug("file_sync", "code", code)
	return errFromCode(code)
}

// Seek repositions the file, returning the new position. whence is
// io.SeekStart, io.SeekCurrent, or io.SeekEnd.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.fs.mu.Lock()
	pos := f.fs.engine.FileSeek(f.h, offset, fromWhence(whence))
	f.fs.mu.Unlock()
	f.fs.logger.Debug("file_seek", "offset", offset, "whence", whence, "code", pos)

	if pos < 0 {
		return 0, errFromCode(int(pos))
	}
	return pos, nil
}

// Tell returns the current position.
func (f *File) Tell() (int64, error) {
	f.fs.mu.Lock()
	pos := f.fs.engine.FileTell(f.h)
	f.fs.mu.Unlock()

	if pos < 0 {
		return 0, errFromCode(int(pos))
	}
	return pos, nil
}

// Size returns the file size in bytes.
func (f *File) Size() (int64, error) {
	f.fs.mu.Lock()
	size := f.fs.engine.FileSize(f.h)
	f.fs.mu.Unlock()

	if size < 0 {
		return 0, errFromCode(int(size))
	}
	return size, nil
}

// Truncate sets the file size. Growing fills with zeroes.
func (f *File) Truncate(size int64) error {
	f.fs.mu.Lock()
	code := f.fs.engine.FileTruncate(f.h, size)
	f.fs.mu.Unlock()
	f.fs.logger.Debug("file_truncate", "size", size, "code", code)
	return errFromCode(code)
}

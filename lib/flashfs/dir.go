// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"io"

	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// Dir is an open directory, with the same ownership rules as File.
type Dir struct {
	fs *FileSystem
	h  *lfs.Dir
}

// DirEntry is one directory entry produced by Dir.Read.
type DirEntry struct {
	// Name is the entry name, not a path.
	Name string

	// Size is the entry size in bytes. Zero for directories.
	Size int64

	// Type classifies the entry.
	Type EntryType
}

// OpenDir opens the directory at path. Allocation discipline matches
// OpenFile: the handle record is released on a failed open.
func (fs *FileSystem) OpenDir(path string) (*Dir, error) {
	h := &lfs.Dir{}
	fs.mu.Lock()
	code := fs.engine.DirOpen(h, path)
	fs.mu.Unlock()
	fs.logger.Debug("dir_open", "path", path, "code", code)

	if err := errFromCode(code); err != nil {
		return nil, err
	}
	return &Dir{fs: fs, h: h}, nil
}

// Close closes the directory. The handle record is released even when
// the engine reports an error. The Dir must not be used after Close.
func (d *Dir) Close() error {
	d.fs.mu.Lock()
	code := d.fs.engine.DirClose(d.h)
	d.fs.mu.Unlock()
	d.fs.logger.Debug("dir_close", "code", code)

	d.h = nil
	return errFromCode(code)
}

// Read returns the next directory entry. At end of directory it
// returns io.EOF. The entry is populated only when the engine reports
// one — never from an end-of-directory or error result.
func (d *Dir) Read() (DirEntry, error) {
	var info lfs.Info
	d.fs.mu.Lock()
	res := d.fs.engine.DirRead(d.h, &info)
	d.fs.mu.Unlock()
	d.fs.logger.Debug("dir_read", "code", res)

	if res < 0 {
		return DirEntry{}, errFromCode(res)
	}
	if res == 0 {
		return DirEntry{}, io.EOF
	}
	return DirEntry{
		Name: info.Name,
		Size: info.Size,
		Type: entryTypeOf(info.Type),
	}, nil
}

// Seek repositions the directory to an offset previously returned by
// Tell.
func (d *Dir) Seek(offset int64) error {
	d.fs.mu.Lock()
	code := d.fs.engine.DirSeek(d.h, offset)
	d.fs.mu.Unlock()
	d.fs.logger.Debug("dir_seek", "offset", offset, "code", code)
	return errFromCode(code)
}

// Tell returns the current directory position.
func (d *Dir) Tell() (int64, error) {
	d.fs.mu.Lock()
	pos := d.fs.engine.DirTell(d.h)
	d.fs.mu.Unlock()

	if pos < 0 {
		return 0, errFromCode(int(pos))
	}
	return pos, nil
}

// Rewind repositions the directory to its first entry.
func (d *Dir) Rewind() error {
	d.fs.mu.Lock()
	code := d.fs.engine.DirRewind(d.h)
	d.fs.mu.Unlock()
	d.fs.logger.Debug("dir_rewind", "code", code)
	return errFromCode(code)
}

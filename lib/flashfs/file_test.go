// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/flashfs-foundation/flashfs/lib/lfs/lfsmock"
)

func TestOpenFileMissingWithoutCreate(t *testing.T) {
	fs, _ := newTestFS(t)

	if _, err := fs.OpenFile("/missing", os.O_RDONLY); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenFile = %v, want ErrNotFound", err)
	}
}

func TestOpenFileCreate(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/new", os.O_WRONLY|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := fs.Stat("/new")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 0 {
		t.Errorf("Size = %d, want 0", info.Size)
	}
	if info.Type != EntryFile {
		t.Errorf("Type = %v, want EntryFile", info.Type)
	}
}

func TestOpenFileExclusive(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/once", os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	file.Close()

	if _, err := fs.OpenFile("/once", os.O_WRONLY|os.O_CREATE|os.O_EXCL); !errors.Is(err, ErrExist) {
		t.Errorf("second exclusive open = %v, want ErrExist", err)
	}
}

func TestOpenFileDirectory(t *testing.T) {
	fs, _ := newTestFS(t)

	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := fs.OpenFile("/d", os.O_RDONLY); !errors.Is(err, ErrIsDir) {
		t.Errorf("OpenFile on directory = %v, want ErrIsDir", err)
	}
}

func TestFileReadWriteSeek(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/data", os.O_RDWR|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()

	content := []byte("0123456789")
	n, err := file.Write(content)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(content) {
		t.Errorf("Write = %d, want %d", n, len(content))
	}

	if size, err := file.Size(); err != nil || size != 10 {
		t.Errorf("Size = %d, %v, want 10", size, err)
	}

	pos, err := file.Seek(2, io.SeekStart)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if pos != 2 {
		t.Errorf("Seek = %d, want 2", pos)
	}

	got := make([]byte, 4)
	if _, err := file.Read(got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "2345" {
		t.Errorf("Read = %q, want %q", got, "2345")
	}

	if pos, err := file.Tell(); err != nil || pos != 6 {
		t.Errorf("Tell = %d, %v, want 6", pos, err)
	}

	// Relative and end-based seeks.
	if pos, err := file.Seek(-2, io.SeekCurrent); err != nil || pos != 4 {
		t.Errorf("Seek current = %d, %v, want 4", pos, err)
	}
	if pos, err := file.Seek(-1, io.SeekEnd); err != nil || pos != 9 {
		t.Errorf("Seek end = %d, %v, want 9", pos, err)
	}

	// Negative resulting position is rejected.
	if _, err := file.Seek(-20, io.SeekStart); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative Seek = %v, want ErrInvalid", err)
	}
}

func TestFileReadAtEOF(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/short", os.O_RDWR|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte("ab")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	buffer := make([]byte, 10)
	n, err := file.Read(buffer)
	if err != nil || n != 2 {
		t.Fatalf("Read = %d, %v, want 2, nil", n, err)
	}

	// The next read is at end of file.
	if _, err := file.Read(buffer); err != io.EOF {
		t.Errorf("Read at EOF = %v, want io.EOF", err)
	}
}

func TestFileAppend(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/log", os.O_WRONLY|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := file.Write([]byte("first")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Append mode writes land at the end regardless of position.
	appendFile, err := fs.OpenFile("/log", os.O_WRONLY|os.O_APPEND)
	if err != nil {
		t.Fatalf("OpenFile append: %v", err)
	}
	if _, err := appendFile.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := appendFile.Write([]byte("+second")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := appendFile.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader, err := fs.OpenFile("/log", os.O_RDONLY)
	if err != nil {
		t.Fatalf("OpenFile read: %v", err)
	}
	defer reader.Close()
	got := make([]byte, 12)
	if _, err := reader.Read(got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "first+second" {
		t.Errorf("got %q, want %q", got, "first+second")
	}
}

func TestFileTruncateFlag(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/t", os.O_WRONLY|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	file.Write([]byte("long content"))
	file.Close()

	truncated, err := fs.OpenFile("/t", os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		t.Fatalf("OpenFile trunc: %v", err)
	}
	if size, err := truncated.Size(); err != nil || size != 0 {
		t.Errorf("Size after O_TRUNC = %d, %v, want 0", size, err)
	}
	truncated.Close()
}

func TestFileTruncate(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/t", os.O_RDWR|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()

	file.Write([]byte("0123456789"))

	if err := file.Truncate(4); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if size, _ := file.Size(); size != 4 {
		t.Errorf("Size = %d, want 4", size)
	}

	// Growing zero-fills.
	if err := file.Truncate(8); err != nil {
		t.Fatalf("Truncate grow: %v", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, 8)
	if _, err := file.Read(got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{'0', '1', '2', '3', 0, 0, 0, 0}) {
		t.Errorf("got %v, want 0123 then zeroes", got)
	}

	if err := file.Truncate(-1); !errors.Is(err, ErrInvalid) {
		t.Errorf("Truncate(-1) = %v, want ErrInvalid", err)
	}
}

func TestFileSparseWrite(t *testing.T) {
	fs, _ := newTestFS(t)

	file, err := fs.OpenFile("/sparse", os.O_RDWR|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()

	// Seeking past the end is allowed; the write zero-fills the gap.
	if _, err := file.Seek(5, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := file.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if size, _ := file.Size(); size != 6 {
		t.Errorf("Size = %d, want 6", size)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, 6)
	if _, err := file.Read(got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{0, 0, 0, 0, 0, 'x'}) {
		t.Errorf("got %v, want five zeroes then x", got)
	}
}

func TestFileWrongAccessMode(t *testing.T) {
	fs, _ := newTestFS(t)

	writeOnly, err := fs.OpenFile("/w", os.O_WRONLY|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer writeOnly.Close()
	writeOnly.Write([]byte("x"))
	writeOnly.Seek(0, io.SeekStart)

	// Reading a write-only handle surfaces EBADF through the
	// pass-through bucket.
	_, err = writeOnly.Read(make([]byte, 1))
	if err == nil {
		t.Fatal("expected error reading write-only handle")
	}
	if Errno(err) != -int(syscall.EBADF) {
		t.Errorf("Errno = %d, want %d", Errno(err), -int(syscall.EBADF))
	}

	readOnly, err := fs.OpenFile("/w", os.O_RDONLY)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer readOnly.Close()

	if _, err := readOnly.Write([]byte("y")); Errno(err) != -int(syscall.EBADF) {
		t.Errorf("write on read-only handle: Errno = %d, want %d", Errno(err), -int(syscall.EBADF))
	}
}

func TestFileSync(t *testing.T) {
	fs, dev := newTestFS(t)

	file, err := fs.OpenFile("/synced", os.O_WRONLY|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte("flush me")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := file.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// After Sync the snapshot on the device is current: a second
	// engine mounting the same media sees the content.
	fs2, err := New("verify", Options{Engine: lfsmock.New(), Device: dev})
	if err != nil {
		t.Fatalf("New on synced device: %v", err)
	}
	t.Cleanup(func() { fs2.Unmount() })

	info, err := fs2.Stat("/synced")
	if err != nil {
		t.Fatalf("Stat on second mount: %v", err)
	}
	if info.Size != 8 {
		t.Errorf("Size = %d, want 8", info.Size)
	}
}

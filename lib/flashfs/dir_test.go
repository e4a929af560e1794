// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"errors"
	"io"
	"os"
	"testing"
)

// populate creates a small tree: two files and a subdirectory under
// path.
func populate(t *testing.T, fs *FileSystem, path string) {
	t.Helper()
	if err := fs.Mkdir(path); err != nil {
		t.Fatalf("Mkdir %s: %v", path, err)
	}
	for name, content := range map[string]string{
		"alpha": "aaaa",
		"beta":  "bb",
	} {
		file, err := fs.OpenFile(path+"/"+name, os.O_WRONLY|os.O_CREATE)
		if err != nil {
			t.Fatalf("OpenFile %s: %v", name, err)
		}
		if _, err := file.Write([]byte(content)); err != nil {
			t.Fatalf("Write %s: %v", name, err)
		}
		if err := file.Close(); err != nil {
			t.Fatalf("Close %s: %v", name, err)
		}
	}
	if err := fs.Mkdir(path + "/sub"); err != nil {
		t.Fatalf("Mkdir sub: %v", err)
	}
}

// readAll drains a directory to io.EOF.
func readAll(t *testing.T, dir *Dir) []DirEntry {
	t.Helper()
	var entries []DirEntry
	for {
		entry, err := dir.Read()
		if err == io.EOF {
			return entries
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		entries = append(entries, entry)
	}
}

func TestDirEnumeration(t *testing.T) {
	fs, _ := newTestFS(t)
	populate(t, fs, "/tree")

	dir, err := fs.OpenDir("/tree")
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	defer dir.Close()

	entries := readAll(t, dir)

	// "." and ".." first, then children sorted by name.
	want := []DirEntry{
		{Name: ".", Type: EntryDir},
		{Name: "..", Type: EntryDir},
		{Name: "alpha", Size: 4, Type: EntryFile},
		{Name: "beta", Size: 2, Type: EntryFile},
		{Name: "sub", Type: EntryDir},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}

	// Reading past the end keeps returning io.EOF.
	if _, err := dir.Read(); err != io.EOF {
		t.Errorf("Read past end = %v, want io.EOF", err)
	}
}

func TestDirOpenErrors(t *testing.T) {
	fs, _ := newTestFS(t)

	if _, err := fs.OpenDir("/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenDir missing = %v, want ErrNotFound", err)
	}

	file, err := fs.OpenFile("/plain", os.O_WRONLY|os.O_CREATE)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	file.Close()

	if _, err := fs.OpenDir("/plain"); !errors.Is(err, ErrNotDir) {
		t.Errorf("OpenDir on file = %v, want ErrNotDir", err)
	}
}

func TestDirSeekTellRewind(t *testing.T) {
	fs, _ := newTestFS(t)
	populate(t, fs, "/tree")

	dir, err := fs.OpenDir("/tree")
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	defer dir.Close()

	// Consume "." and "..", remember the position.
	if _, err := dir.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, err := dir.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	pos, err := dir.Tell()
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}

	entry, err := dir.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if entry.Name != "alpha" {
		t.Fatalf("Name = %q, want alpha", entry.Name)
	}

	// Seeking back replays the same entry.
	if err := dir.Seek(pos); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	entry, err = dir.Read()
	if err != nil {
		t.Fatalf("Read after Seek: %v", err)
	}
	if entry.Name != "alpha" {
		t.Errorf("replayed Name = %q, want alpha", entry.Name)
	}

	// Rewind restarts from ".".
	if err := dir.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	entry, err = dir.Read()
	if err != nil {
		t.Fatalf("Read after Rewind: %v", err)
	}
	if entry.Name != "." {
		t.Errorf("Name after Rewind = %q, want .", entry.Name)
	}

	// Out-of-range seeks are rejected.
	if err := dir.Seek(-1); !errors.Is(err, ErrInvalid) {
		t.Errorf("Seek(-1) = %v, want ErrInvalid", err)
	}
	if err := dir.Seek(1000); !errors.Is(err, ErrInvalid) {
		t.Errorf("Seek(1000) = %v, want ErrInvalid", err)
	}
}

func TestDirRoot(t *testing.T) {
	fs, _ := newTestFS(t)

	dir, err := fs.OpenDir("/")
	if err != nil {
		t.Fatalf("OpenDir root: %v", err)
	}
	defer dir.Close()

	entries := readAll(t, dir)
	if len(entries) != 2 {
		t.Errorf("fresh root has %d entries, want 2 (. and ..)", len(entries))
	}
}

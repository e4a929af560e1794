// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package lfs

// Error codes returned by the engine. Values are littlefs wire
// constants — changing them breaks every engine implementation and
// the adapter's translation table.
const (
	ErrOK          = 0   // no error
	ErrIO          = -5  // error during device operation
	ErrCorrupt     = -84 // corrupted metadata
	ErrNoEnt       = -2  // no directory entry
	ErrExist       = -17 // entry already exists
	ErrNotDir      = -20 // entry is not a directory
	ErrIsDir       = -21 // entry is a directory
	ErrNotEmpty    = -39 // directory is not empty
	ErrBadF        = -9  // bad file number
	ErrFBig        = -27 // file too large
	ErrInval       = -22 // invalid parameter
	ErrNoSpc       = -28 // no space left on device
	ErrNoMem       = -12 // no more memory available
	ErrNameTooLong = -36 // file name too long
)

// Open flags. The low two bits select the access mode; the remaining
// bits are independent modifiers.
const (
	OpenRDOnly = 0x0001
	OpenWROnly = 0x0002
	OpenRDWR   = 0x0003

	OpenCreate    = 0x0100
	OpenExclusive = 0x0200
	OpenTruncate  = 0x0400
	OpenAppend    = 0x0800
)

// Seek whence values.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// Directory entry types.
const (
	TypeReg = 0x001
	TypeDir = 0x002
)

// NameMax is the maximum length of a file name, excluding the
// terminating path separator.
const NameMax = 255

// BlockOps is the storage callback contract the engine drives during
// every operation. Addresses are block-relative: a block index plus a
// byte offset within that block. Implementations return 0 on success
// and a negative error code on failure; the engine treats any
// negative value as an error and aborts the operation in progress.
//
// The engine guarantees that read and program spans never cross a
// block boundary and that programs only target previously erased
// regions; implementations need not re-check either.
type BlockOps interface {
	// Read reads len(p) bytes from the given block at the given
	// intra-block offset.
	Read(block, off uint32, p []byte) int

	// Prog programs len(p) bytes to the given block at the given
	// intra-block offset. The region is guaranteed erased.
	Prog(block, off uint32, p []byte) int

	// Erase erases one whole block. The erased state is unspecified;
	// the engine never reads a block it has not programmed.
	Erase(block uint32) int

	// Sync flushes any buffered writes to the underlying storage.
	Sync() int
}

// Config carries the finalized geometry the engine is mounted or
// formatted with. The engine assumes, but does not verify, that
// BlockSize is at least the device erase size, that CacheSize is at
// least ProgSize, and that LookaheadSize does not exceed the bits
// needed to cover BlockCount; violating any of these corrupts state
// silently. The adapter's configuration derivation enforces them.
type Config struct {
	// Ops receives every storage access the engine performs.
	Ops BlockOps

	// ReadSize and ProgSize are the device's minimum read and
	// program granularities, copied verbatim from the device.
	ReadSize uint32
	ProgSize uint32

	// BlockSize is the erase unit the filesystem is built on. Never
	// smaller than the device's hardware erase size.
	BlockSize uint32

	// BlockCount is the number of BlockSize units on the device.
	BlockCount uint32

	// BlockCycles is the number of erase cycles before the engine
	// moves metadata to a fresh block, for wear leveling. Negative
	// disables wear leveling.
	BlockCycles int32

	// CacheSize is the size of the engine's read/program caches. At
	// least ProgSize.
	CacheSize uint32

	// LookaheadSize is the size in bytes of the free-block lookahead
	// bitmap. At most 8*ceil(BlockCount/64).
	LookaheadSize uint32
}

// Info describes one directory entry, filled in by Stat and DirRead.
type Info struct {
	// Name is the entry name, not a path.
	Name string

	// Size is the file size in bytes. Zero for directories.
	Size int64

	// Type is TypeReg or TypeDir.
	Type int
}

// File is an opaque open-file record. The adapter allocates it and
// passes it to FileOpen; the engine stores whatever per-handle state
// it needs in Sys and owns that state until FileClose.
type File struct {
	// Sys is engine-private handle state. The adapter never touches it.
	Sys any
}

// Dir is an opaque open-directory record, with the same ownership
// rules as File.
type Dir struct {
	// Sys is engine-private handle state. The adapter never touches it.
	Sys any
}

// Engine is the operation surface of a littlefs-style filesystem. One
// Engine value corresponds to at most one mounted filesystem at a
// time. Engines are not required to be safe for concurrent use; the
// adapter serializes all calls.
type Engine interface {
	// Format writes a fresh empty filesystem through cfg.Ops. The
	// engine must not be mounted.
	Format(cfg *Config) int

	// Mount reads filesystem state through cfg.Ops and prepares the
	// engine for operations. The Config must remain valid until
	// Unmount returns.
	Mount(cfg *Config) int

	// Unmount releases all state associated with the mount. Open
	// handles are invalidated.
	Unmount() int

	// Remove deletes a file or an empty directory.
	Remove(path string) int

	// Rename moves or renames a file or directory.
	Rename(oldPath, newPath string) int

	// Mkdir creates a directory.
	Mkdir(path string) int

	// Stat fills info for the entry at path.
	Stat(path string, info *Info) int

	// FSSize returns the number of blocks in use, or a negative
	// error code. The result is an upper bound: the engine may
	// count blocks that could be reclaimed.
	FSSize() int64

	// FileOpen opens the file at path into the caller-allocated
	// record f. flags is a combination of the Open constants.
	FileOpen(f *File, path string, flags int) int

	// FileClose flushes and releases the engine state behind f.
	FileClose(f *File) int

	// FileRead reads up to len(p) bytes at the current position,
	// returning the count read or a negative error code.
	FileRead(f *File, p []byte) int

	// FileWrite writes len(p) bytes at the current position (or the
	// end, for append-mode handles), returning the count written or
	// a negative error code. Writes may be buffered until FileSync
	// or FileClose.
	FileWrite(f *File, p []byte) int

	// FileSync flushes buffered writes for f to storage.
	FileSync(f *File) int

	// FileSeek repositions f, returning the new position or a
	// negative error code.
	FileSeek(f *File, off int64, whence int) int64

	// FileTell returns the current position of f.
	FileTell(f *File) int64

	// FileSize returns the size of the file behind f.
	FileSize(f *File) int64

	// FileTruncate sets the size of the file behind f.
	FileTruncate(f *File, size int64) int

	// DirOpen opens the directory at path into the caller-allocated
	// record d.
	DirOpen(d *Dir, path string) int

	// DirClose releases the engine state behind d.
	DirClose(d *Dir) int

	// DirRead reads the next entry into info. Returns 1 when an
	// entry was produced, 0 at end of directory, negative on error.
	// info is only valid when the result is 1.
	DirRead(d *Dir, info *Info) int

	// DirSeek repositions d to an offset previously returned by
	// DirTell.
	DirSeek(d *Dir, off int64) int

	// DirTell returns the position of d, or a negative error code.
	DirTell(d *Dir) int64

	// DirRewind repositions d to the start of the directory.
	DirRewind(d *Dir) int
}

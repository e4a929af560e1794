// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// Error is a filesystem error carrying the negative POSIX-style code
// the generic filesystem contract speaks. Engine codes with a POSIX
// equivalent map to the package sentinels below; codes without one
// pass through unchanged inside an Error so that no engine condition
// is silently collapsed into a generic failure.
type Error struct {
	code int
	msg  string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.msg }

// Code returns the negative POSIX-style error code, or the raw engine
// code for pass-through errors.
func (e *Error) Code() int { return e.code }

// Filesystem error sentinels. Each corresponds to one entry of the
// engine's error enumeration; comparisons use errors.Is.
var (
	ErrIO       = &Error{-int(syscall.EIO), "input/output error"}
	ErrNotFound = &Error{-int(syscall.ENOENT), "no such file or directory"}
	ErrExist    = &Error{-int(syscall.EEXIST), "file exists"}
	ErrNotDir   = &Error{-int(syscall.ENOTDIR), "not a directory"}
	ErrIsDir    = &Error{-int(syscall.EISDIR), "is a directory"}
	ErrInvalid  = &Error{-int(syscall.EINVAL), "invalid argument"}
	ErrNoSpace  = &Error{-int(syscall.ENOSPC), "no space left on device"}
	ErrNoMemory = &Error{-int(syscall.ENOMEM), "out of memory"}
	ErrCorrupt  = &Error{-int(syscall.EILSEQ), "corrupted filesystem"}

	// ErrNoDevice is adapter-local: Reformat was asked to operate
	// with no device either mounted or supplied.
	ErrNoDevice = &Error{-int(syscall.ENODEV), "no device attached"}
)

// errFromCode translates an engine result code into a Go error. Total:
// non-negative codes are success (nil), mapped codes become sentinels,
// and anything else passes through with its raw value preserved.
func errFromCode(code int) error {
	if code >= 0 {
		return nil
	}
	switch code {
	case lfs.ErrIO:
		return ErrIO
	case lfs.ErrNoEnt:
		return ErrNotFound
	case lfs.ErrExist:
		return ErrExist
	case lfs.ErrNotDir:
		return ErrNotDir
	case lfs.ErrIsDir:
		return ErrIsDir
	case lfs.ErrInval:
		return ErrInvalid
	case lfs.ErrNoSpc:
		return ErrNoSpace
	case lfs.ErrNoMem:
		return ErrNoMemory
	case lfs.ErrCorrupt:
		return ErrCorrupt
	default:
		return &Error{code, fmt.Sprintf("engine error %d", code)}
	}
}

// Errno returns the negative POSIX-style code for err, for callers
// (the FUSE frontend, CLI exit paths) that must hand a numeric errno
// across a C-shaped boundary. nil maps to 0; errors that did not
// originate in this package (raw device errors surfaced by Mount)
// map to -EIO.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	if errors.Is(err, io.EOF) {
		return 0
	}
	return -int(syscall.EIO)
}

// fromFlags translates POSIX open flags into engine open flags. The
// low two bits select the access mode and are matched exactly; the
// modifier bits are independent and OR-combined, so every one of them
// must be checked regardless of the access mode.
func fromFlags(flags int) int {
	const accessMask = 3

	engineFlags := 0
	switch flags & accessMask {
	case os.O_RDONLY:
		engineFlags = lfs.OpenRDOnly
	case os.O_WRONLY:
		engineFlags = lfs.OpenWROnly
	case os.O_RDWR:
		engineFlags = lfs.OpenRDWR
	}
	if flags&os.O_CREATE != 0 {
		engineFlags |= lfs.OpenCreate
	}
	if flags&os.O_EXCL != 0 {
		engineFlags |= lfs.OpenExclusive
	}
	if flags&os.O_TRUNC != 0 {
		engineFlags |= lfs.OpenTruncate
	}
	if flags&os.O_APPEND != 0 {
		engineFlags |= lfs.OpenAppend
	}
	return engineFlags
}

// fromWhence translates io.Seek* whence values into engine whence
// values. Unrecognized values pass through for the engine to reject.
func fromWhence(whence int) int {
	switch whence {
	case io.SeekStart:
		return lfs.SeekSet
	case io.SeekCurrent:
		return lfs.SeekCur
	case io.SeekEnd:
		return lfs.SeekEnd
	default:
		return whence
	}
}

// EntryType classifies a directory entry.
type EntryType int

const (
	// EntryUnknown is any engine type that is neither a regular
	// file nor a directory.
	EntryUnknown EntryType = iota
	// EntryFile is a regular file.
	EntryFile
	// EntryDir is a directory.
	EntryDir
)

// entryTypeOf translates an engine entry type.
func entryTypeOf(engineType int) EntryType {
	switch engineType {
	case lfs.TypeReg:
		return EntryFile
	case lfs.TypeDir:
		return EntryDir
	default:
		return EntryUnknown
	}
}

// modeOf translates an engine entry type into POSIX mode bits. The
// engine has no permission model, so known types carry rwx for
// everyone; unknown types yield zero.
func modeOf(engineType int) uint32 {
	const rwxAll = uint32(syscall.S_IRWXU | syscall.S_IRWXG | syscall.S_IRWXO)
	switch engineType {
	case lfs.TypeDir:
		return rwxAll | syscall.S_IFDIR
	case lfs.TypeReg:
		return rwxAll | syscall.S_IFREG
	default:
		return 0
	}
}

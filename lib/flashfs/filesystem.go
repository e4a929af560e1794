// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package flashfs

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/flashfs-foundation/flashfs/lib/blockdevice"
	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// Options configures a FileSystem instance.
type Options struct {
	// Engine is the filesystem engine the instance drives. Required.
	Engine lfs.Engine

	// Device, if non-nil, is mounted during New. Leaving it nil
	// creates the instance unmounted; call Mount later.
	Device blockdevice.Device

	// Hints are the geometry preferences used for every mount and
	// reformat of this instance. Zero fields get defaults.
	Hints Hints

	// Logger receives one structured line per operation with the
	// operation name, arguments, and result — purely observational.
	// If nil, an error-level stderr logger is used.
	Logger *slog.Logger
}

// FileSystem is one filesystem instance: one engine, one device
// configuration, and at most one mounted device at a time.
//
// All methods are safe for concurrent use. A single instance-wide
// mutex serializes every operation that touches engine state; see the
// package documentation for why the lock is this coarse.
type FileSystem struct {
	name   string
	engine lfs.Engine
	logger *slog.Logger

	mu sync.Mutex
	// dev is the mounted device; nil means unmounted. cfg holds the
	// effective configuration of the last successful mount, reused
	// as the hint source for reformat. hints is the fallback when
	// the instance has never been mounted. All three are guarded by
	// mu.
	dev   blockdevice.Device
	cfg   lfs.Config
	hints Hints
}

// New creates a filesystem instance. name identifies the instance in
// log output. If opts.Device is set, the device is mounted before New
// returns; a mount failure fails construction and the instance is not
// returned half-built.
func New(name string, opts Options) (*FileSystem, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine is required: %w", ErrInvalid)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	fs := &FileSystem{
		name:   name,
		engine: opts.Engine,
		logger: logger.With("fs", name),
		hints:  opts.Hints.withDefaults(),
	}

	if opts.Device != nil {
		if err := fs.Mount(opts.Device); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Mount initializes dev and mounts the engine on it, moving the
// instance from Unmounted to Mounted. On device initialization
// failure the raw device error is returned and no device reference is
// retained; on engine mount failure the translated engine error is
// returned, likewise without retaining the device. Mounting an
// already-mounted instance fails with ErrInvalid — unmount first.
func (fs *FileSystem) Mount(dev blockdevice.Device) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	err := fs.mountLocked(dev)
	fs.logger.Info("mount", "err", err)
	return err
}

func (fs *FileSystem) mountLocked(dev blockdevice.Device) error {
	if fs.dev != nil {
		return ErrInvalid
	}

	if err := dev.Init(); err != nil {
		return err
	}

	cfg := deriveConfig(dev, fs.hints)
	if code := fs.engine.Mount(&cfg); code < 0 {
		return errFromCode(code)
	}

	fs.dev = dev
	fs.cfg = cfg
	// Subsequent mounts and reformats re-derive from the effective
	// values; derivation is idempotent, so this is a fixed point.
	fs.hints = hintsFromConfig(cfg)
	return nil
}

// Unmount unmounts the engine and deinitializes the device, moving
// the instance to Unmounted. Calling Unmount on an unmounted instance
// is a no-op returning nil.
//
// Both teardown steps are always attempted: a failed engine unmount
// does not skip device deinitialization (resource cleanup must
// proceed even after a logical unmount error). The first error wins;
// the device reference is cleared unconditionally.
func (fs *FileSystem) Unmount() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	err := fs.unmountLocked()
	fs.logger.Info("unmount", "err", err)
	return err
}

func (fs *FileSystem) unmountLocked() error {
	if fs.dev == nil {
		return nil
	}

	var first error
	if code := fs.engine.Unmount(); code < 0 {
		first = errFromCode(code)
	}
	if err := fs.dev.Deinit(); err != nil && first == nil {
		first = err
	}
	fs.dev = nil
	return first
}

// Format writes a fresh empty filesystem to dev. It is a free
// operation on a transient configuration — no FileSystem instance is
// consulted or mutated, so a spare device can be formatted without
// disturbing a mounted one. engine must be unmounted. The first error
// from any step (device init, engine format, device deinit) is
// returned.
func Format(engine lfs.Engine, dev blockdevice.Device, hints Hints) error {
	hints = hints.withDefaults()

	if err := dev.Init(); err != nil {
		return err
	}

	cfg := deriveConfig(dev, hints)
	if code := engine.Format(&cfg); code < 0 {
		return errFromCode(code)
	}

	return dev.Deinit()
}

// Reformat wipes and remounts. If the instance is mounted, a nil dev
// means "the currently mounted device", and the instance is unmounted
// first — a mounted device's media must never be formatted under an
// active mount. If no device is available at all, Reformat fails with
// ErrNoDevice.
//
// The sequence is unmount, format, mount; the first failure aborts
// the remaining steps and the instance is left at whatever stage was
// reached (format succeeding but mount failing leaves it Unmounted).
// Geometry comes from the last mounted configuration, re-derived
// against the target device.
func (fs *FileSystem) Reformat(dev blockdevice.Device) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	err := fs.reformatLocked(dev)
	fs.logger.Info("reformat", "err", err)
	return err
}

func (fs *FileSystem) reformatLocked(dev blockdevice.Device) error {
	if fs.dev != nil {
		if dev == nil {
			dev = fs.dev
		}
		if err := fs.unmountLocked(); err != nil {
			return err
		}
	}

	if dev == nil {
		return ErrNoDevice
	}

	if err := Format(fs.engine, dev, fs.hints); err != nil {
		return err
	}
	return fs.mountLocked(dev)
}

// Remove deletes a file or an empty directory.
func (fs *FileSystem) Remove(path string) error {
	fs.mu.Lock()
	code := fs.engine.Remove(path)
	fs.mu.Unlock()
	fs.logger.Debug("remove", "path", path, "code", code)
	return errFromCode(code)
}

// Rename moves or renames a file or directory.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	fs.mu.Lock()
	code := fs.engine.Rename(oldPath, newPath)
	fs.mu.Unlock()
	fs.logger.Debug("rename", "old", oldPath, "new", newPath, "code", code)
	return errFromCode(code)
}

// Mkdir creates a directory.
func (fs *FileSystem) Mkdir(path string) error {
	fs.mu.Lock()
	code := fs.engine.Mkdir(path)
	fs.mu.Unlock()
	fs.logger.Debug("mkdir", "path", path, "code", code)
	return errFromCode(code)
}

// Info describes a filesystem entry.
type Info struct {
	// Name is the entry name, not a path.
	Name string

	// Size is the file size in bytes. Zero for directories.
	Size int64

	// Type classifies the entry.
	Type EntryType

	// Mode is the POSIX mode rendering of Type: rwx for everyone
	// plus the format bit, or zero for unknown types.
	Mode uint32
}

// Stat returns information about the entry at path.
func (fs *FileSystem) Stat(path string) (Info, error) {
	var info lfs.Info
	fs.mu.Lock()
	code := fs.engine.Stat(path, &info)
	fs.mu.Unlock()
	fs.logger.Debug("stat", "path", path, "code", code)

	if err := errFromCode(code); err != nil {
		return Info{}, err
	}
	return Info{
		Name: info.Name,
		Size: info.Size,
		Type: entryTypeOf(info.Type),
		Mode: modeOf(info.Type),
	}, nil
}

// VFSInfo describes whole-filesystem statistics, statvfs-style.
type VFSInfo struct {
	// BlockSize and FragmentSize are both the effective block size.
	BlockSize    uint32
	FragmentSize uint32

	// Blocks is the total block count; BlocksFree and BlocksAvail
	// are the blocks not currently in use (the engine's usage count
	// is an upper bound, so these are lower bounds).
	Blocks      uint64
	BlocksFree  uint64
	BlocksAvail uint64

	// NameMax is the maximum file name length.
	NameMax uint32
}

// StatVFS returns filesystem-wide statistics.
func (fs *FileSystem) StatVFS() (VFSInfo, error) {
	fs.mu.Lock()
	inUse := fs.engine.FSSize()
	cfg := fs.cfg
	fs.mu.Unlock()
	fs.logger.Debug("statvfs", "in_use", inUse)

	if inUse < 0 {
		return VFSInfo{}, errFromCode(int(inUse))
	}
	free := uint64(cfg.BlockCount) - uint64(inUse)
	return VFSInfo{
		BlockSize:    cfg.BlockSize,
		FragmentSize: cfg.BlockSize,
		Blocks:       uint64(cfg.BlockCount),
		BlocksFree:   free,
		BlocksAvail:  free,
		NameMax:      lfs.NameMax,
	}, nil
}

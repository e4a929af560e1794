// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"io"
	"os"
	gopath "path"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/flashfs-foundation/flashfs/lib/flashfs"
)

// fsNode represents one path in the flash filesystem. Nodes carry no
// state beyond their path; every operation goes straight through to
// the adapter.
type fsNode struct {
	gofuse.Inode
	options *Options
	path    string
}

var _ gofuse.InodeEmbedder = (*fsNode)(nil)
var _ gofuse.NodeLookuper = (*fsNode)(nil)
var _ gofuse.NodeGetattrer = (*fsNode)(nil)
var _ gofuse.NodeReaddirer = (*fsNode)(nil)
var _ gofuse.NodeOpener = (*fsNode)(nil)
var _ gofuse.NodeCreater = (*fsNode)(nil)
var _ gofuse.NodeMkdirer = (*fsNode)(nil)
var _ gofuse.NodeUnlinker = (*fsNode)(nil)
var _ gofuse.NodeRmdirer = (*fsNode)(nil)
var _ gofuse.NodeRenamer = (*fsNode)(nil)
var _ gofuse.NodeSetattrer = (*fsNode)(nil)
var _ gofuse.NodeStatfser = (*fsNode)(nil)

func (n *fsNode) child(name string) string {
	return gopath.Join(n.path, name)
}

// stableMode maps an entry type to the inode mode bits used in
// StableAttr.
func stableMode(entryType flashfs.EntryType) uint32 {
	if entryType == flashfs.EntryDir {
		return syscall.S_IFDIR
	}
	return syscall.S_IFREG
}

func (n *fsNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := n.child(name)
	info, err := n.options.FS.Stat(childPath)
	if err != nil {
		return nil, errnoOf(err)
	}

	out.Mode = info.Mode
	out.Size = uint64(info.Size)

	child := &fsNode{options: n.options, path: childPath}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: stableMode(info.Type)}), 0
}

func (n *fsNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := n.options.FS.Stat(n.path)
	if err != nil {
		return errnoOf(err)
	}
	out.Mode = info.Mode
	out.Size = uint64(info.Size)
	return 0
}

func (n *fsNode) Readdir(_ context.Context) (gofuse.DirStream, syscall.Errno) {
	dir, err := n.options.FS.OpenDir(n.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	defer dir.Close()

	var entries []fuse.DirEntry
	for {
		entry, err := dir.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errnoOf(err)
		}
		// The kernel synthesizes "." and ".." itself.
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		entries = append(entries, fuse.DirEntry{
			Name: entry.Name,
			Mode: stableMode(entry.Type),
		})
	}
	return gofuse.NewListDirStream(entries), 0
}

func (n *fsNode) Open(_ context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	file, err := n.options.FS.OpenFile(n.path, int(flags))
	if err != nil {
		return nil, 0, errnoOf(err)
	}
	return &fileHandle{file: file, logger: n.options.Logger}, fuse.FOPEN_DIRECT_IO, 0
}

func (n *fsNode) Create(ctx context.Context, name string, flags uint32, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	childPath := n.child(name)
	file, err := n.options.FS.OpenFile(childPath, int(flags)|os.O_CREATE)
	if err != nil {
		return nil, nil, 0, errnoOf(err)
	}

	out.Mode = syscall.S_IFREG | 0o777
	child := &fsNode{options: n.options, path: childPath}
	inode := n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFREG})
	return inode, &fileHandle{file: file, logger: n.options.Logger}, fuse.FOPEN_DIRECT_IO, 0
}

func (n *fsNode) Mkdir(ctx context.Context, name string, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := n.child(name)
	if err := n.options.FS.Mkdir(childPath); err != nil {
		return nil, errnoOf(err)
	}
	out.Mode = syscall.S_IFDIR | 0o777
	child := &fsNode{options: n.options, path: childPath}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFDIR}), 0
}

func (n *fsNode) Unlink(_ context.Context, name string) syscall.Errno {
	return errnoOf(n.options.FS.Remove(n.child(name)))
}

func (n *fsNode) Rmdir(_ context.Context, name string) syscall.Errno {
	return errnoOf(n.options.FS.Remove(n.child(name)))
}

func (n *fsNode) Rename(_ context.Context, name string, newParent gofuse.InodeEmbedder, newName string, _ uint32) syscall.Errno {
	target, ok := newParent.(*fsNode)
	if !ok {
		return syscall.EXDEV
	}
	return errnoOf(n.options.FS.Rename(n.child(name), target.child(newName)))
}

// Setattr handles truncation. The adapter's truncate is a handle
// operation, so a transient write handle is opened around it; other
// attribute changes (mode, times) have no representation in the
// engine and succeed as no-ops.
func (n *fsNode) Setattr(_ context.Context, _ gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		file, err := n.options.FS.OpenFile(n.path, os.O_WRONLY)
		if err != nil {
			return errnoOf(err)
		}
		truncErr := file.Truncate(int64(size))
		closeErr := file.Close()
		if truncErr != nil {
			return errnoOf(truncErr)
		}
		if closeErr != nil {
			return errnoOf(closeErr)
		}
	}

	info, err := n.options.FS.Stat(n.path)
	if err != nil {
		return errnoOf(err)
	}
	out.Mode = info.Mode
	out.Size = uint64(info.Size)
	return 0
}

func (n *fsNode) Statfs(_ context.Context, out *fuse.StatfsOut) syscall.Errno {
	info, err := n.options.FS.StatVFS()
	if err != nil {
		return errnoOf(err)
	}
	out.Bsize = info.BlockSize
	out.Frsize = info.FragmentSize
	out.Blocks = info.Blocks
	out.Bfree = info.BlocksFree
	out.Bavail = info.BlocksAvail
	out.NameLen = info.NameMax
	return 0
}

// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package lfsmock

import (
	"sort"
	"strings"

	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// treeNode is one entry of the in-memory tree. The cbor tags define
// the snapshot payload format.
type treeNode struct {
	Type     int                  `cbor:"type"`
	Data     []byte               `cbor:"data,omitempty"`
	Children map[string]*treeNode `cbor:"children,omitempty"`
}

func newDir() *treeNode {
	return &treeNode{Type: lfs.TypeDir, Children: map[string]*treeNode{}}
}

// Engine is an in-memory reference engine. One Engine mounts at most
// one filesystem at a time. Engine is not safe for concurrent use;
// the flashfs adapter serializes all calls, which is exactly the
// arrangement this package is meant to exercise.
type Engine struct {
	cfg     *lfs.Config
	root    *treeNode
	mounted bool

	// payloadLen is the compressed payload length of the last
	// snapshot read or written, backing FSSize.
	payloadLen int

	// usedBytes approximates live file content for early ENOSPC on
	// writes. The exact check happens at snapshot time, where the
	// compressed size is known.
	usedBytes int64
}

// New returns an unmounted engine.
func New() *Engine {
	return &Engine{}
}

var _ lfs.Engine = (*Engine)(nil)

// Format implements lfs.Engine: writes an empty snapshot through
// cfg.Ops. The engine must be unmounted.
func (e *Engine) Format(cfg *lfs.Config) int {
	if e.mounted {
		return lfs.ErrInval
	}
	if code := checkGeometry(cfg); code < 0 {
		return code
	}
	_, code := writeSnapshot(cfg, newDir())
	return code
}

// Mount implements lfs.Engine: reads and verifies the snapshot.
func (e *Engine) Mount(cfg *lfs.Config) int {
	if e.mounted {
		return lfs.ErrInval
	}
	if code := checkGeometry(cfg); code < 0 {
		return code
	}

	root, payloadLen, code := readSnapshot(cfg)
	if code < 0 {
		return code
	}

	e.cfg = cfg
	e.root = root
	e.mounted = true
	e.payloadLen = payloadLen
	e.usedBytes = treeBytes(root)
	return 0
}

// Unmount implements lfs.Engine: snapshots the tree and releases all
// state. The engine is unmounted even when the snapshot fails; the
// failure code is still reported.
func (e *Engine) Unmount() int {
	if !e.mounted {
		return lfs.ErrInval
	}
	code := e.flush()

	e.cfg = nil
	e.root = nil
	e.mounted = false
	return code
}

// flush writes the current tree as a snapshot.
func (e *Engine) flush() int {
	payloadLen, code := writeSnapshot(e.cfg, e.root)
	if code < 0 {
		return code
	}
	e.payloadLen = payloadLen
	return 0
}

// capacity returns the payload capacity in bytes (everything after
// the superblock block).
func capacity(cfg *lfs.Config) int64 {
	return int64(cfg.BlockCount-1) * int64(cfg.BlockSize)
}

// treeBytes sums file content sizes across the tree.
func treeBytes(n *treeNode) int64 {
	total := int64(len(n.Data))
	for _, child := range n.Children {
		total += treeBytes(child)
	}
	return total
}

// ---- Path resolution ----

// splitPath normalizes path into components. Empty components and "."
// are dropped; ".." is rejected (the contract has no notion of parent
// traversal); over-long names are rejected.
func splitPath(path string) ([]string, int) {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return nil, lfs.ErrInval
		}
		if len(part) > lfs.NameMax {
			return nil, lfs.ErrNameTooLong
		}
		parts = append(parts, part)
	}
	return parts, 0
}

// lookup resolves path to a node.
func (e *Engine) lookup(path string) (*treeNode, int) {
	parts, code := splitPath(path)
	if code < 0 {
		return nil, code
	}
	node := e.root
	for _, part := range parts {
		if node.Type != lfs.TypeDir {
			return nil, lfs.ErrNotDir
		}
		next, ok := node.Children[part]
		if !ok {
			return nil, lfs.ErrNoEnt
		}
		node = next
	}
	return node, 0
}

// lookupParent resolves path to its parent directory plus the final
// name. The final entry itself need not exist; every intermediate
// component must.
func (e *Engine) lookupParent(path string) (*treeNode, string, int) {
	parts, code := splitPath(path)
	if code < 0 {
		return nil, "", code
	}
	if len(parts) == 0 {
		// The root has no parent.
		return nil, "", lfs.ErrInval
	}

	node := e.root
	for _, part := range parts[:len(parts)-1] {
		if node.Type != lfs.TypeDir {
			return nil, "", lfs.ErrNotDir
		}
		next, ok := node.Children[part]
		if !ok {
			return nil, "", lfs.ErrNoEnt
		}
		node = next
	}
	if node.Type != lfs.TypeDir {
		return nil, "", lfs.ErrNotDir
	}
	return node, parts[len(parts)-1], 0
}

func baseName(path string) string {
	parts, _ := splitPath(path)
	if len(parts) == 0 {
		return "/"
	}
	return parts[len(parts)-1]
}

// ---- Path operations ----

// Remove implements lfs.Engine.
func (e *Engine) Remove(path string) int {
	if !e.mounted {
		return lfs.ErrInval
	}
	parent, name, code := e.lookupParent(path)
	if code < 0 {
		return code
	}
	node, ok := parent.Children[name]
	if !ok {
		return lfs.ErrNoEnt
	}
	if node.Type == lfs.TypeDir && len(node.Children) > 0 {
		return lfs.ErrNotEmpty
	}
	e.usedBytes -= int64(len(node.Data))
	delete(parent.Children, name)
	return e.flush()
}

// Rename implements lfs.Engine.
func (e *Engine) Rename(oldPath, newPath string) int {
	if !e.mounted {
		return lfs.ErrInval
	}
	oldParent, oldName, code := e.lookupParent(oldPath)
	if code < 0 {
		return code
	}
	node, ok := oldParent.Children[oldName]
	if !ok {
		return lfs.ErrNoEnt
	}

	newParent, newName, code := e.lookupParent(newPath)
	if code < 0 {
		return code
	}
	if existing, ok := newParent.Children[newName]; ok && existing != node {
		switch {
		case existing.Type == lfs.TypeDir && node.Type != lfs.TypeDir:
			return lfs.ErrIsDir
		case existing.Type != lfs.TypeDir && node.Type == lfs.TypeDir:
			return lfs.ErrNotDir
		case existing.Type == lfs.TypeDir && len(existing.Children) > 0:
			return lfs.ErrNotEmpty
		}
		e.usedBytes -= int64(len(existing.Data))
	}

	delete(oldParent.Children, oldName)
	newParent.Children[newName] = node
	return e.flush()
}

// Mkdir implements lfs.Engine.
func (e *Engine) Mkdir(path string) int {
	if !e.mounted {
		return lfs.ErrInval
	}
	parent, name, code := e.lookupParent(path)
	if code < 0 {
		return code
	}
	if _, ok := parent.Children[name]; ok {
		return lfs.ErrExist
	}
	parent.Children[name] = newDir()
	return e.flush()
}

// Stat implements lfs.Engine.
func (e *Engine) Stat(path string, info *lfs.Info) int {
	if !e.mounted {
		return lfs.ErrInval
	}
	node, code := e.lookup(path)
	if code < 0 {
		return code
	}
	info.Name = baseName(path)
	info.Size = int64(len(node.Data))
	info.Type = node.Type
	return 0
}

// FSSize implements lfs.Engine: blocks occupied by the snapshot
// (superblock plus payload blocks).
func (e *Engine) FSSize() int64 {
	if !e.mounted {
		return int64(lfs.ErrInval)
	}
	payloadBlocks := (int64(e.payloadLen) + int64(e.cfg.BlockSize) - 1) / int64(e.cfg.BlockSize)
	return 1 + payloadBlocks
}

// ---- File operations ----

// fileState is the engine-private state behind an open lfs.File.
type fileState struct {
	node   *treeNode
	pos    int64
	flags  int
	append bool
}

func fileOf(f *lfs.File) (*fileState, int) {
	state, ok := f.Sys.(*fileState)
	if !ok || state == nil {
		return nil, lfs.ErrBadF
	}
	return state, 0
}

func (s *fileState) readable() bool {
	return s.flags&lfs.OpenRDWR == lfs.OpenRDOnly || s.flags&lfs.OpenRDWR == lfs.OpenRDWR
}

func (s *fileState) writable() bool {
	return s.flags&lfs.OpenRDWR == lfs.OpenWROnly || s.flags&lfs.OpenRDWR == lfs.OpenRDWR
}

// FileOpen implements lfs.Engine.
func (e *Engine) FileOpen(f *lfs.File, path string, flags int) int {
	if !e.mounted {
		return lfs.ErrInval
	}

	parent, name, code := e.lookupParent(path)
	if code < 0 {
		return code
	}

	node, exists := parent.Children[name]
	switch {
	case exists && node.Type == lfs.TypeDir:
		return lfs.ErrIsDir
	case exists && flags&lfs.OpenCreate != 0 && flags&lfs.OpenExclusive != 0:
		return lfs.ErrExist
	case !exists && flags&lfs.OpenCreate == 0:
		return lfs.ErrNoEnt
	case !exists:
		node = &treeNode{Type: lfs.TypeReg}
		parent.Children[name] = node
	}

	if flags&lfs.OpenTruncate != 0 {
		e.usedBytes -= int64(len(node.Data))
		node.Data = nil
	}

	f.Sys = &fileState{
		node:   node,
		flags:  flags,
		append: flags&lfs.OpenAppend != 0,
	}
	return 0
}

// FileClose implements lfs.Engine: snapshots and releases the handle
// state. The handle is released even when the snapshot fails.
func (e *Engine) FileClose(f *lfs.File) int {
	_, code := fileOf(f)
	f.Sys = nil
	if code < 0 {
		return code
	}
	if !e.mounted {
		return lfs.ErrInval
	}
	return e.flush()
}

// FileRead implements lfs.Engine.
func (e *Engine) FileRead(f *lfs.File, p []byte) int {
	state, code := fileOf(f)
	if code < 0 {
		return code
	}
	if !state.readable() {
		return lfs.ErrBadF
	}
	if state.pos >= int64(len(state.node.Data)) {
		return 0
	}
	n := copy(p, state.node.Data[state.pos:])
	state.pos += int64(n)
	return n
}

// FileWrite implements lfs.Engine.
func (e *Engine) FileWrite(f *lfs.File, p []byte) int {
	state, code := fileOf(f)
	if code < 0 {
		return code
	}
	if !state.writable() || !e.mounted {
		return lfs.ErrBadF
	}

	pos := state.pos
	if state.append {
		pos = int64(len(state.node.Data))
	}

	end := pos + int64(len(p))
	if grow := end - int64(len(state.node.Data)); grow > 0 {
		// Uncompressed-size capacity check. Approximate by nature
		// (the payload is compressed); the snapshot write performs
		// the exact check.
		if e.usedBytes+grow > capacity(e.cfg) {
			return lfs.ErrNoSpc
		}
		e.usedBytes += grow
		state.node.Data = append(state.node.Data, make([]byte, grow)...)
	}
	copy(state.node.Data[pos:], p)
	state.pos = pos + int64(len(p))
	return len(p)
}

// FileSync implements lfs.Engine: snapshots the tree.
func (e *Engine) FileSync(f *lfs.File) int {
	if _, code := fileOf(f); code < 0 {
		return code
	}
	if !e.mounted {
		return lfs.ErrInval
	}
	return e.flush()
}

// FileSeek implements lfs.Engine. Seeking past the end is allowed; a
// later write zero-fills the gap.
func (e *Engine) FileSeek(f *lfs.File, off int64, whence int) int64 {
	state, code := fileOf(f)
	if code < 0 {
		return int64(code)
	}

	var pos int64
	switch whence {
	case lfs.SeekSet:
		pos = off
	case lfs.SeekCur:
		pos = state.pos + off
	case lfs.SeekEnd:
		pos = int64(len(state.node.Data)) + off
	default:
		return int64(lfs.ErrInval)
	}
	if pos < 0 {
		return int64(lfs.ErrInval)
	}
	state.pos = pos
	return pos
}

// FileTell implements lfs.Engine.
func (e *Engine) FileTell(f *lfs.File) int64 {
	state, code := fileOf(f)
	if code < 0 {
		return int64(code)
	}
	return state.pos
}

// FileSize implements lfs.Engine.
func (e *Engine) FileSize(f *lfs.File) int64 {
	state, code := fileOf(f)
	if code < 0 {
		return int64(code)
	}
	return int64(len(state.node.Data))
}

// FileTruncate implements lfs.Engine. The position is left where it
// was, littlefs-style, even when it now points past the end.
func (e *Engine) FileTruncate(f *lfs.File, size int64) int {
	state, code := fileOf(f)
	if code < 0 {
		return code
	}
	if !state.writable() || !e.mounted {
		return lfs.ErrBadF
	}
	if size < 0 {
		return lfs.ErrInval
	}

	current := int64(len(state.node.Data))
	switch {
	case size < current:
		e.usedBytes -= current - size
		state.node.Data = state.node.Data[:size]
	case size > current:
		grow := size - current
		if e.usedBytes+grow > capacity(e.cfg) {
			return lfs.ErrNoSpc
		}
		e.usedBytes += grow
		state.node.Data = append(state.node.Data, make([]byte, grow)...)
	}
	return 0
}

// ---- Directory operations ----

// dirState is the engine-private state behind an open lfs.Dir. The
// entry list is fixed at open time: "." and "..", then the children
// sorted by name.
type dirState struct {
	entries []lfs.Info
	pos     int64
}

func dirOf(d *lfs.Dir) (*dirState, int) {
	state, ok := d.Sys.(*dirState)
	if !ok || state == nil {
		return nil, lfs.ErrBadF
	}
	return state, 0
}

// DirOpen implements lfs.Engine.
func (e *Engine) DirOpen(d *lfs.Dir, path string) int {
	if !e.mounted {
		return lfs.ErrInval
	}
	node, code := e.lookup(path)
	if code < 0 {
		return code
	}
	if node.Type != lfs.TypeDir {
		return lfs.ErrNotDir
	}

	entries := []lfs.Info{
		{Name: ".", Type: lfs.TypeDir},
		{Name: "..", Type: lfs.TypeDir},
	}
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := node.Children[name]
		entries = append(entries, lfs.Info{
			Name: name,
			Size: int64(len(child.Data)),
			Type: child.Type,
		})
	}

	d.Sys = &dirState{entries: entries}
	return 0
}

// DirClose implements lfs.Engine.
func (e *Engine) DirClose(d *lfs.Dir) int {
	_, code := dirOf(d)
	d.Sys = nil
	return code
}

// DirRead implements lfs.Engine: 1 with info filled, 0 at end,
// negative on error.
func (e *Engine) DirRead(d *lfs.Dir, info *lfs.Info) int {
	state, code := dirOf(d)
	if code < 0 {
		return code
	}
	if state.pos >= int64(len(state.entries)) {
		return 0
	}
	*info = state.entries[state.pos]
	state.pos++
	return 1
}

// DirSeek implements lfs.Engine.
func (e *Engine) DirSeek(d *lfs.Dir, off int64) int {
	state, code := dirOf(d)
	if code < 0 {
		return code
	}
	if off < 0 || off > int64(len(state.entries)) {
		return lfs.ErrInval
	}
	state.pos = off
	return 0
}

// DirTell implements lfs.Engine.
func (e *Engine) DirTell(d *lfs.Dir) int64 {
	state, code := dirOf(d)
	if code < 0 {
		return int64(code)
	}
	return state.pos
}

// DirRewind implements lfs.Engine.
func (e *Engine) DirRewind(d *lfs.Dir) int {
	state, code := dirOf(d)
	if code < 0 {
		return code
	}
	state.pos = 0
	return 0
}

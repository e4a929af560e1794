// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package lfsmock

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/flashfs-foundation/flashfs/lib/codec"
	"github.com/flashfs-foundation/flashfs/lib/lfs"
)

// Snapshot image layout. Block 0 is the superblock; the compressed
// payload occupies blocks 1..N. These are format constants — changing
// them invalidates existing images.
const (
	// snapMagic marks a formatted image.
	snapMagic = "LFSM"

	// snapVersion is the current snapshot format version.
	snapVersion = 1

	// snapCompressionZstd is the compression tag byte. Only zstd is
	// defined; the byte exists so a future format revision can add
	// algorithms without touching the header layout.
	snapCompressionZstd = 2

	// superblock layout: magic[4] version[1] compression[1]
	// payloadLen[4 LE] checksum[32].
	snapHeaderLen = 4 + 1 + 1 + 4 + 32
)

// zstdEncoder and zstdDecoder are reused across snapshots to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("lfsmock: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("lfsmock: zstd decoder initialization failed: " + err.Error())
	}
}

// checkGeometry rejects configurations the snapshot cannot live in: a
// superblock that does not fit one block, or no payload blocks at all.
func checkGeometry(cfg *lfs.Config) int {
	if cfg.BlockSize < snapHeaderLen || cfg.BlockCount < 2 {
		return lfs.ErrInval
	}
	return 0
}

// writeSnapshot serializes root and writes the image through cfg.Ops.
// Returns the compressed payload length. The payload blocks are
// written before the superblock: a failure partway through leaves a
// header that no longer matches its payload, which the next mount
// reports as corruption instead of decoding torn data.
func writeSnapshot(cfg *lfs.Config, root *treeNode) (int, int) {
	plain, err := codec.Marshal(root)
	if err != nil {
		return 0, lfs.ErrInval
	}
	payload := zstdEncoder.EncodeAll(plain, nil)

	if int64(len(payload)) > capacity(cfg) {
		return 0, lfs.ErrNoSpc
	}

	payloadBlocks := (uint32(len(payload)) + cfg.BlockSize - 1) / cfg.BlockSize
	for block := uint32(0); block <= payloadBlocks; block++ {
		if code := cfg.Ops.Erase(block); code < 0 {
			return 0, code
		}
	}

	for block := uint32(0); block < payloadBlocks; block++ {
		start := block * cfg.BlockSize
		end := min(start+cfg.BlockSize, uint32(len(payload)))
		if code := cfg.Ops.Prog(block+1, 0, payload[start:end]); code < 0 {
			return 0, code
		}
	}

	header := make([]byte, snapHeaderLen)
	copy(header, snapMagic)
	header[4] = snapVersion
	header[5] = snapCompressionZstd
	binary.LittleEndian.PutUint32(header[6:], uint32(len(payload)))
	sum := blake3.Sum256(payload)
	copy(header[10:], sum[:])
	if code := cfg.Ops.Prog(0, 0, header); code < 0 {
		return 0, code
	}

	return len(payload), cfg.Ops.Sync()
}

// readSnapshot reads and verifies the image through cfg.Ops,
// returning the decoded tree and the compressed payload length.
func readSnapshot(cfg *lfs.Config) (*treeNode, int, int) {
	header := make([]byte, snapHeaderLen)
	if code := cfg.Ops.Read(0, 0, header); code < 0 {
		return nil, 0, code
	}
	if !bytes.Equal(header[:4], []byte(snapMagic)) {
		return nil, 0, lfs.ErrCorrupt
	}
	if header[4] != snapVersion || header[5] != snapCompressionZstd {
		return nil, 0, lfs.ErrInval
	}

	payloadLen := binary.LittleEndian.Uint32(header[6:])
	if int64(payloadLen) > capacity(cfg) {
		return nil, 0, lfs.ErrCorrupt
	}

	payload := make([]byte, payloadLen)
	for block := uint32(0); block*cfg.BlockSize < payloadLen; block++ {
		start := block * cfg.BlockSize
		end := min(start+cfg.BlockSize, payloadLen)
		if code := cfg.Ops.Read(block+1, 0, payload[start:end]); code < 0 {
			return nil, 0, code
		}
	}

	sum := blake3.Sum256(payload)
	if !bytes.Equal(sum[:], header[10:10+32]) {
		return nil, 0, lfs.ErrCorrupt
	}

	plain, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, 0, lfs.ErrCorrupt
	}
	root := &treeNode{}
	if err := codec.Unmarshal(plain, root); err != nil {
		return nil, 0, lfs.ErrCorrupt
	}
	if root.Type != lfs.TypeDir {
		return nil, 0, lfs.ErrCorrupt
	}
	if root.Children == nil {
		root.Children = map[string]*treeNode{}
	}
	return root, int(payloadLen), 0
}

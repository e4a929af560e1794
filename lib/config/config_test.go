// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flashfs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
image:
  path: /var/lib/flashfs/test.img
  size: 1048576
geometry:
  read_size: 16
  program_size: 16
  erase_size: 4096
format:
  block_size: 4096
  block_cycles: 500
  cache_size: 256
  lookahead_size: 32
mount:
  mountpoint: /mnt/flash
  allow_other: true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Image.Path != "/var/lib/flashfs/test.img" {
		t.Errorf("Image.Path = %q", cfg.Image.Path)
	}
	if cfg.Image.Size != 1048576 {
		t.Errorf("Image.Size = %d, want 1048576", cfg.Image.Size)
	}
	if cfg.Geometry.EraseSize != 4096 {
		t.Errorf("Geometry.EraseSize = %d, want 4096", cfg.Geometry.EraseSize)
	}
	if cfg.Format.BlockCycles != 500 {
		t.Errorf("Format.BlockCycles = %d, want 500", cfg.Format.BlockCycles)
	}
	if !cfg.Mount.AllowOther {
		t.Error("Mount.AllowOther = false, want true")
	}
}

func TestLoadRequiresEnv(t *testing.T) {
	t.Setenv("FLASHFS_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load with unset FLASHFS_CONFIG should fail")
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, `
image:
  path: flash.img
  size: 65536
`)
	t.Setenv("FLASHFS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Image.Path != "flash.img" {
		t.Errorf("Image.Path = %q", cfg.Image.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing path",
			content: "image:\n  size: 65536\n",
			wantErr: "image.path is required",
		},
		{
			name:    "missing size",
			content: "image:\n  path: flash.img\n",
			wantErr: "image.size is required",
		},
		{
			name: "size not erase aligned",
			content: `
image:
  path: flash.img
  size: 65537
`,
			wantErr: "not a multiple",
		},
		{
			name: "block size below erase size",
			content: `
image:
  path: flash.img
  size: 65536
geometry:
  erase_size: 4096
format:
  block_size: 512
`,
			wantErr: "below geometry.erase_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the flashfs CLI configuration: one image, its geometry,
// and how to format and mount it.
type Config struct {
	// Image configures the backing image file.
	Image ImageConfig `yaml:"image"`

	// Geometry configures the flash geometry the image simulates.
	Geometry GeometryConfig `yaml:"geometry"`

	// Format configures format-time geometry hints.
	Format FormatConfig `yaml:"format"`

	// Mount configures the FUSE mount.
	Mount MountConfig `yaml:"mount"`
}

// ImageConfig locates and sizes the image file.
type ImageConfig struct {
	// Path is the image file location. Required.
	Path string `yaml:"path"`

	// Size is the image capacity in bytes. Required; must be a
	// positive multiple of the erase size. An existing image of a
	// different size is refused rather than resized.
	Size uint64 `yaml:"size"`
}

// GeometryConfig is the simulated flash geometry. Zero values use the
// device defaults (read 1, program 1, erase 4096).
type GeometryConfig struct {
	// ReadSize is the minimum read unit in bytes.
	ReadSize uint32 `yaml:"read_size"`

	// ProgramSize is the minimum program unit in bytes.
	ProgramSize uint32 `yaml:"program_size"`

	// EraseSize is the erase unit in bytes.
	EraseSize uint32 `yaml:"erase_size"`
}

// FormatConfig is the geometry hint set passed to format and mount.
// Zero values use the filesystem defaults. The effective values are
// clamped against the device geometry; see lib/flashfs.
type FormatConfig struct {
	// BlockSize is the requested filesystem erase unit.
	BlockSize uint32 `yaml:"block_size"`

	// BlockCycles is the erase-cycle budget per metadata block.
	// Negative disables wear leveling.
	BlockCycles int32 `yaml:"block_cycles"`

	// CacheSize is the requested engine cache size.
	CacheSize uint32 `yaml:"cache_size"`

	// LookaheadSize is the requested lookahead bitmap size.
	LookaheadSize uint32 `yaml:"lookahead_size"`
}

// MountConfig configures the FUSE mount.
type MountConfig struct {
	// Mountpoint is the directory the filesystem is mounted at.
	// Required for the mount command only.
	Mountpoint string `yaml:"mountpoint"`

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool `yaml:"allow_other"`
}

// Load loads configuration from the FLASHFS_CONFIG environment
// variable. This is the only way to load configuration without an
// explicit path — there are no fallbacks or discovery.
func Load() (*Config, error) {
	path := os.Getenv("FLASHFS_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("FLASHFS_CONFIG environment variable not set; " +
			"set it to the path of your flashfs.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override its values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors a later operation
// would otherwise report obscurely.
func (c *Config) Validate() error {
	if c.Image.Path == "" {
		return fmt.Errorf("image.path is required")
	}
	if c.Image.Size == 0 {
		return fmt.Errorf("image.size is required")
	}

	eraseSize := c.Geometry.EraseSize
	if eraseSize == 0 {
		eraseSize = 4096
	}
	if c.Image.Size%uint64(eraseSize) != 0 {
		return fmt.Errorf("image.size %d is not a multiple of geometry.erase_size %d",
			c.Image.Size, eraseSize)
	}
	if c.Format.BlockSize != 0 && c.Format.BlockSize < eraseSize {
		return fmt.Errorf("format.block_size %d is below geometry.erase_size %d and would be raised; "+
			"remove it or set it to at least the erase size", c.Format.BlockSize, eraseSize)
	}
	return nil
}

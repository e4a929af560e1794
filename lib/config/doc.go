// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the flashfs
// CLI.
//
// Configuration is loaded from a single file specified by either the
// FLASHFS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides — an image formatted under
// one config is never silently reinterpreted under another.
//
// The file describes one filesystem image: where it lives, the flash
// geometry it simulates, the format-time geometry hints, and the FUSE
// mount options.
package config

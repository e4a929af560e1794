// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse exposes a mounted flashfs filesystem as a kernel FUSE
// mount, so an image on a simulated flash device can be browsed and
// modified with ordinary tools (ls, cat, cp, mkdir).
//
// The node layer is a thin translation: every FUSE operation resolves
// to one flashfs operation on the same path, and every flashfs error
// maps back to an errno via flashfs.Errno. Nothing is cached — the
// adapter's instance lock already serializes all engine access, and
// the kernel's attribute timeouts provide what little read caching a
// flash image needs.
//
// File handles adapt FUSE's offset-based reads and writes onto the
// adapter's position-based handle API with a seek before each
// transfer, serialized per handle.
package fuse

// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for flashfs packages.
//
// [RequireClosed] and [RequireReceive] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. The concurrency tests in
// lib/flashfs use these to wait on goroutines hammering the instance
// lock without risking a hung test run.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// failer is the slice of testing.T the helpers need. Taking an
// interface keeps the package free of a testing import and lets the
// helpers run under testing.B too.
type failer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireClosed waits until ch is closed (or yields a value), failing
// the test after timeout. Meant for completion channels that signal by
// closing.
//
//	testutil.RequireClosed(t, done, 30*time.Second, "workers finished")
func RequireClosed(t failer, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("channel not closed within %v: %s", timeout, describe(msgAndArgs))
	}
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or the channel closes empty.
//
//	err := testutil.RequireReceive(t, results, time.Second, "worker %d result", w)
func RequireReceive[T any](t failer, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before a value arrived: %s", describe(msgAndArgs))
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("no value within %v: %s", timeout, describe(msgAndArgs))
	}
	panic("unreachable")
}

func describe(msgAndArgs []any) string {
	switch len(msgAndArgs) {
	case 0:
		return "(no message)"
	case 1:
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}

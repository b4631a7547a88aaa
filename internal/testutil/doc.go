// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests: Must* wrappers that fail the
// test instead of returning errors, project fixtures on disk, and a FakeRunner
// that stands in for the sam, poetry and pip processes.
package testutil

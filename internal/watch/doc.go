// SPDX-License-Identifier: MPL-2.0

// Package watch reruns a build when project inputs change.
//
// A Watcher registers every directory under the project root with fsnotify,
// filters events through doublestar patterns and coalesces bursts of events
// into one callback after a quiet period.
package watch

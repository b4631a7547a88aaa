// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries what poetrysam was doing, which file or tool was involved,
// and how to fix it. Issue holds longer Markdown guidance for the failure classes a
// build can hit; the CLI renders it with glamour when running in verbose mode.
package issue

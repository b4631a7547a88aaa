// SPDX-License-Identifier: MPL-2.0

// Package groups resolves which Poetry dependency groups are exported for a build.
//
// A build starts from the project's default groups (every group not declared
// optional, plus "main") and applies the user's --only, --with and --without
// directives. Every directive name is validated against the groups the project
// declares before anything is resolved; unknown names are reported together in
// a single UnknownGroupError so all typos can be fixed in one pass.
//
// Resolution is a pure function over its inputs and is safe for concurrent use.
package groups

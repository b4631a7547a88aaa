// SPDX-License-Identifier: MPL-2.0

// Package build orchestrates a SAM build with Poetry-managed dependencies.
//
// A build resolves the active dependency groups, runs `sam build`, and then,
// for each Python function in template order, exports the locked
// dependencies of those groups next to the function sources and installs them
// into the function's build directory with pip. Steps run strictly one after
// another and the first failure aborts the build.
package build

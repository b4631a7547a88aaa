// SPDX-License-Identifier: MPL-2.0

// Package export writes a requirements file for a set of dependency groups by
// driving `poetry export`, locking the project first when poetry.lock is missing.
package export

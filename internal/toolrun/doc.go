// SPDX-License-Identifier: MPL-2.0

// Package toolrun runs the external tools a build delegates to (sam, poetry, pip).
//
// Runner is the narrow seam between build sequencing and real processes: it takes
// an Invocation and reports the exit code and captured output. A non-zero exit is
// a Result, not an error; errors are reserved for failures to run the tool at all.
package toolrun

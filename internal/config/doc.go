// SPDX-License-Identifier: MPL-2.0

// Package config handles poetrysam configuration using Viper, with CUE as the
// optional file format.
//
// Settings are layered, lowest precedence first: built-in defaults, a
// poetrysam.cue file in the project root (or the file given by --config), the
// [tool.poetrysam] table of pyproject.toml, POETRYSAM_* environment variables
// and finally command-line flags. Both file sources are validated against the
// embedded CUE schema (config_schema.cue) before they are merged.
package config

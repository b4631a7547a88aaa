// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/spf13/pflag"
)

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// Root is the project directory searched for poetrysam.cue.
		Root string
		// ConfigFilePath forces loading from a specific CUE file when set.
		ConfigFilePath string
		// ToolSettings is the raw [tool.poetrysam] table from pyproject.toml.
		ToolSettings map[string]any
		// Flags, when set, overrides settings with every changed flag.
		Flags *pflag.FlagSet
	}

	// Loaded is the effective configuration and the sources it was built from,
	// lowest precedence first. Environment variables and flags are not listed.
	Loaded struct {
		Config  *Config
		Sources []string
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	fileProvider struct{}
)

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested sources.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	return loadWithOptions(ctx, opts)
}

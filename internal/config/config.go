// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/poetrysam/poetrysam/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "poetrysam"
	// ConfigFileName is the project-local config file looked up in the project root.
	ConfigFileName = "poetrysam.cue"
	// EnvPrefix prefixes the environment variables that override settings.
	EnvPrefix = "POETRYSAM"

	// SourceDefaults names the built-in defaults layer in Loaded.Sources.
	SourceDefaults = "defaults"
	// SourcePyproject names the [tool.poetrysam] layer in Loaded.Sources.
	SourcePyproject = "pyproject.toml [tool.poetrysam]"
)

// flagNames maps config keys to the command-line flags that override them.
var flagNames = map[string]string{
	"only":                "only",
	"with":                "with",
	"without":             "without",
	"without_hashes":      "without-hashes",
	"with_credentials":    "with-credentials",
	"without_urls":        "without-urls",
	"requirements_format": "requirements_format",
	"extras":              "extras",
	"all_extras":          "all-extras",
	"template_name":       "template_name",
	"build_dir":           "build-dir",
	"sam_exec":            "sam-exec",
	"poetry_exec":         "poetry-exec",
	"python_exec":         "python-exec",
	"sam_params":          "sam-params",
	"verbose":             "verbose",
}

// FlagName returns the command-line flag bound to a config key.
func FlagName(key string) string { return flagNames[key] }

// loadWithOptions layers every configuration source into a fresh Viper instance.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	sources := []string{SourceDefaults}

	path, err := configFilePath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'poetrysam config show' to see the effective configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		sources = append(sources, path)
	}

	if len(opts.ToolSettings) > 0 {
		settings, err := decodeSettings(opts.ToolSettings, SourcePyproject)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(SourcePyproject).
				WithSuggestion("Use the same keys as poetrysam.cue, with underscores (e.g. template_name)").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
		sources = append(sources, SourcePyproject)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range flagNames {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check POETRYSAM_* environment variables and command-line flags").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &Loaded{Config: &cfg, Sources: sources}, nil
}

// configFilePath returns the CUE file to load, or "" when there is none.
// An explicit path must exist; the project-local file is optional.
func configFilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if opts.Root == "" {
		return "", nil
	}
	local := filepath.Join(opts.Root, ConfigFileName)
	if fileExists(local) {
		return local, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("only", nonNil(d.Only))
	v.SetDefault("with", nonNil(d.With))
	v.SetDefault("without", nonNil(d.Without))
	v.SetDefault("without_hashes", d.WithoutHashes)
	v.SetDefault("with_credentials", d.WithCredentials)
	v.SetDefault("without_urls", d.WithoutURLs)
	v.SetDefault("requirements_format", d.RequirementsFormat)
	v.SetDefault("extras", nonNil(d.Extras))
	v.SetDefault("all_extras", d.AllExtras)
	v.SetDefault("template_name", d.TemplateName)
	v.SetDefault("build_dir", d.BuildDir)
	v.SetDefault("sam_exec", d.SamExec)
	v.SetDefault("poetry_exec", d.PoetryExec)
	v.SetDefault("python_exec", d.PythonExec)
	v.SetDefault("sam_params", d.SamParams)
	v.SetDefault("verbose", d.Verbose)
}

// nonNil keeps list keys visible to Viper's env lookup.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	settings, err := decodeCUEFile(data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

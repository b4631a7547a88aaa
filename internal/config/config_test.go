// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poetrysam/poetrysam/internal/issue"
	"github.com/poetrysam/poetrysam/internal/testutil"
)

func load(t *testing.T, opts LoadOptions) (*Loaded, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	loaded, err := load(t, LoadOptions{Root: t.TempDir()})
	require.NoError(t, err)

	cfg := loaded.Config
	assert.Equal(t, FormatRequirements, cfg.RequirementsFormat)
	assert.Equal(t, "template.yml", cfg.TemplateName)
	assert.Equal(t, ".aws-sam/build", cfg.BuildDir)
	assert.Equal(t, "sam", cfg.SamExec)
	assert.Equal(t, "poetry", cfg.PoetryExec)
	assert.Equal(t, "python3", cfg.PythonExec)
	assert.Empty(t, cfg.Only)
	assert.False(t, cfg.WithoutHashes)
	assert.Equal(t, []string{SourceDefaults}, loaded.Sources)
}

func TestLoad_ProjectCUEFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := testutil.MustWriteFile(t, root, ConfigFileName, `
without: ["dev"]
without_hashes: true
template_name: "infra/template.yaml"
python_exec: "python3.12"
`)

	loaded, err := load(t, LoadOptions{Root: root})
	require.NoError(t, err)

	cfg := loaded.Config
	assert.Equal(t, []string{"dev"}, cfg.Without)
	assert.True(t, cfg.WithoutHashes)
	assert.Equal(t, "infra/template.yaml", cfg.TemplateName)
	assert.Equal(t, "python3.12", cfg.PythonExec)
	assert.Equal(t, "sam", cfg.SamExec)
	assert.Equal(t, []string{SourceDefaults, path}, loaded.Sources)
}

func TestLoad_InvalidCUEFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", `colour: "red"`, "colour"},
		{"wrong type", `without_hashes: "yes"`, "without_hashes"},
		{"bad format", `requirements_format: "pylock.toml"`, "requirements_format"},
		{"syntax error", `only: [`, ConfigFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			testutil.MustWriteFile(t, root, ConfigFileName, tt.content)

			_, err := load(t, LoadOptions{Root: root})
			require.Error(t, err)

			var ae *issue.ActionableError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, issue.ConfigLoadFailedId, ae.Issue)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, root, ConfigFileName, `sam_exec: "local-sam"`)
	explicit := testutil.MustWriteFile(t, t.TempDir(), "ci.cue", `sam_exec: "ci-sam"`)

	loaded, err := load(t, LoadOptions{Root: root, ConfigFilePath: explicit})
	require.NoError(t, err)
	assert.Equal(t, "ci-sam", loaded.Config.SamExec)

	_, err = load(t, LoadOptions{Root: root, ConfigFilePath: filepath.Join(root, "missing.cue")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_ToolSettingsOverrideCUEFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, root, ConfigFileName, `
sam_exec: "cue-sam"
build_dir: "out"
`)

	loaded, err := load(t, LoadOptions{
		Root: root,
		ToolSettings: map[string]any{
			"sam_exec": "toml-sam",
			"with":     []any{"docs"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "toml-sam", loaded.Config.SamExec)
	assert.Equal(t, "out", loaded.Config.BuildDir)
	assert.Equal(t, []string{"docs"}, loaded.Config.With)
	assert.Equal(t, SourcePyproject, loaded.Sources[len(loaded.Sources)-1])
}

func TestLoad_InvalidToolSettings(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{
		Root:         t.TempDir(),
		ToolSettings: map[string]any{"template-name": "x.yml"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), SourcePyproject)
}

func TestLoad_EnvironmentOverridesFiles(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, root, ConfigFileName, `sam_exec: "cue-sam"`)
	t.Setenv("POETRYSAM_SAM_EXEC", "/opt/sam")
	t.Setenv("POETRYSAM_WITHOUT", "dev,docs")
	t.Setenv("POETRYSAM_WITH_CREDENTIALS", "true")

	loaded, err := load(t, LoadOptions{Root: root})
	require.NoError(t, err)

	assert.Equal(t, "/opt/sam", loaded.Config.SamExec)
	assert.Equal(t, []string{"dev", "docs"}, loaded.Config.Without)
	assert.True(t, loaded.Config.WithCredentials)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Setenv("POETRYSAM_SAM_EXEC", "/opt/sam")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(FlagName("sam_exec"), "sam", "")
	fs.StringSlice(FlagName("only"), nil, "")
	fs.Bool(FlagName("verbose"), false, "")
	require.NoError(t, fs.Parse([]string{"--sam-exec=/usr/local/bin/sam", "--only", "main,docs"}))

	loaded, err := load(t, LoadOptions{
		Root:         t.TempDir(),
		ToolSettings: map[string]any{"verbose": true},
		Flags:        fs,
	})
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/sam", loaded.Config.SamExec)
	assert.Equal(t, []string{"main", "docs"}, loaded.Config.Only)
	// Unchanged flags do not shadow lower layers.
	assert.True(t, loaded.Config.Verbose)
}

func TestLoad_InvalidEffectiveConfig(t *testing.T) {
	t.Setenv("POETRYSAM_REQUIREMENTS_FORMAT", "setup.py")

	_, err := load(t, LoadOptions{Root: t.TempDir()})
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "requirements_format")
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/poetrysam/poetrysam/internal/config"
	"github.com/poetrysam/poetrysam/internal/pyproject"
	"github.com/poetrysam/poetrysam/internal/toolrun"
)

// defaultIssueStyle is the glamour style used for issue guidance.
const defaultIssueStyle = "dark"

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every Cobra handler receives an App and reaches config
	// loading and external tools only through it.
	App struct {
		Config     ConfigProvider
		runner     toolrun.Runner
		stdout     io.Writer
		stderr     io.Writer
		issueStyle string
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Runner executes sam, poetry and pip. Nil means a real process runner
		// that mirrors tool output to Stderr in verbose mode.
		Runner toolrun.Runner
		Stdout io.Writer
		Stderr io.Writer
		// IssueStyle is the glamour style for issue guidance ("dark", "notty", ...).
		IssueStyle string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}

	// session is the per-invocation state shared by every command.
	session struct {
		Root   string
		Loaded *config.Loaded
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.IssueStyle == "" {
		deps.IssueStyle = defaultIssueStyle
	}

	return &App{
		Config:     deps.Config,
		runner:     deps.Runner,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		issueStyle: deps.IssueStyle,
	}, nil
}

// toolRunner returns the injected runner, or a process runner that echoes tool
// output when verbose.
func (a *App) toolRunner(verbose bool) toolrun.Runner {
	if a.runner != nil {
		return a.runner
	}
	if verbose {
		return toolrun.NewExecRunner(toolrun.WithOutputMirror(a.stderr, a.stderr))
	}
	return toolrun.NewExecRunner()
}

// loadSession resolves the project root and loads the layered configuration.
// A missing pyproject.toml is not an error here: the build reports it with
// proper guidance once it tries to read the dependency groups.
func (a *App) loadSession(cmd *cobra.Command) (*session, error) {
	root, err := projectRoot(cmd)
	if err != nil {
		return nil, err
	}

	var settings map[string]any
	project, err := pyproject.Load(root)
	switch {
	case err == nil:
		settings = project.ToolSettings()
	case errors.Is(err, pyproject.ErrNotFound):
	default:
		return nil, err
	}

	configPath, _ := cmd.Flags().GetString(flagConfig)
	loaded, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		Root:           root,
		ConfigFilePath: configPath,
		ToolSettings:   settings,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	return &session{Root: root, Loaded: loaded}, nil
}

func projectRoot(cmd *cobra.Command) (string, error) {
	root, _ := cmd.Flags().GetString(flagRoot)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve project root %s: %w", root, err)
	}
	return abs, nil
}

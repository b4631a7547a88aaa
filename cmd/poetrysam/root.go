// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the poetrysam command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app. The root command itself
// runs a build, so `poetrysam` and `poetrysam build` are equivalent.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "poetrysam",
		Short: "Build AWS SAM Python functions with Poetry-locked dependencies",
		Long: TitleStyle.Render("poetrysam") + SubtitleStyle.Render(" - SAM builds with Poetry dependency groups") + `

poetrysam runs 'sam build' and then installs, into every Python function's
build directory, exactly the locked dependencies of the selected Poetry
dependency groups.

` + SubtitleStyle.Render("Group selection:") + `
  default         main plus every non-optional group
  --with a,b      add groups to the default selection
  --without a,b   remove groups (applied last)
  --only a,b      use exactly these groups

` + SubtitleStyle.Render("Examples:") + `
  poetrysam                          Build with the default groups
  poetrysam --without dev            Build without the dev group
  poetrysam --only main -t infra.yml Build main only from another template
  poetrysam functions                List the Python functions that will be packaged
  poetrysam groups --with docs       Show which groups a build would export`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, app)
		},
		SilenceUsage: true,
	}

	registerFlags(rootCmd)

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newFunctionsCommand(app))
	rootCmd.AddCommand(newGroupsCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

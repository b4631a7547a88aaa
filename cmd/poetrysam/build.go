// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/poetrysam/poetrysam/internal/build"
	"github.com/poetrysam/poetrysam/internal/config"
	"github.com/poetrysam/poetrysam/internal/pyproject"
	"github.com/poetrysam/poetrysam/internal/watch"
)

const flagWatch = "watch"

func newBuildCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run sam build and install each Python function's dependencies",
		Long: `Run 'sam build', then for every Python function in the template export the
locked dependencies of the selected groups next to the function sources and
install them into the function's build directory with pip.

This is also what 'poetrysam' does when run without a subcommand.

With --watch the build reruns whenever pyproject.toml, poetry.lock, the
template, the config file or a Python source file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watching, _ := cmd.Flags().GetBool(flagWatch); watching {
				return runWatch(cmd, app)
			}
			return runBuild(cmd, app)
		},
	}
	cmd.Flags().Bool(flagWatch, false, "rebuild when project files change")
	return cmd
}

func runBuild(cmd *cobra.Command, app *App) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	sess, err := app.loadSession(cmd)
	if err != nil {
		return app.fail(cmd, err, verbose)
	}
	if err := app.build(cmd.Context(), sess); err != nil {
		return app.fail(cmd, err, sess.Loaded.Config.Verbose)
	}
	return nil
}

func (a *App) build(ctx context.Context, sess *session) error {
	cfg := sess.Loaded.Config

	reporter := newConsoleReporter(a.stdout, a.stderr, cfg.Verbose)
	reporter.Debug("configuration loaded", "root", sess.Root, "sources", sess.Loaded.Sources)

	builder := build.New(a.toolRunner(cfg.Verbose), reporter)
	_, err := builder.Build(ctx, build.Request{Root: sess.Root, Config: cfg})
	return err
}

// runWatch builds once, then rebuilds after every burst of changes until
// interrupted. Build failures are reported and do not stop the loop.
func runWatch(cmd *cobra.Command, app *App) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	sess, err := app.loadSession(cmd)
	if err != nil {
		return app.fail(cmd, err, verbose)
	}
	cfg := sess.Loaded.Config

	logger := log.NewWithOptions(app.stderr, log.Options{Prefix: "watch"})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	rebuild := func(ctx context.Context) error {
		current, err := app.loadSession(cmd)
		if err == nil {
			err = app.build(ctx, current)
		}
		if err != nil {
			renderError(app.stderr, err, cfg.Verbose, app.issueStyle)
		}
		return err
	}

	w, err := watch.New(watch.Config{
		Root:     sess.Root,
		Patterns: watchPatterns(sess.Root, cfg),
		Ignore:   watchIgnores(sess.Root, cfg),
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("change detected", "files", strings.Join(changed, ", "))
			return rebuild(ctx)
		},
	})
	if err != nil {
		return app.fail(cmd, err, cfg.Verbose)
	}

	_ = rebuild(cmd.Context())
	logger.Info("watching for changes", "root", sess.Root)
	if err := w.Run(cmd.Context()); err != nil {
		return app.fail(cmd, err, cfg.Verbose)
	}
	return nil
}

// watchPatterns lists the project inputs that affect a build.
func watchPatterns(root string, cfg *config.Config) []string {
	patterns := []string{
		pyproject.FileName,
		pyproject.LockFileName,
		config.ConfigFileName,
		"**/*.py",
	}
	if rel, ok := relativeTo(root, cfg.TemplateName); ok {
		patterns = append(patterns, rel)
	}
	return patterns
}

// watchIgnores keeps the build output from retriggering the build.
func watchIgnores(root string, cfg *config.Config) []string {
	if rel, ok := relativeTo(root, cfg.BuildDir); ok {
		return []string{rel + "/**"}
	}
	return nil
}

func relativeTo(root, p string) (string, bool) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), true
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

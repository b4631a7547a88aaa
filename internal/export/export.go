// SPDX-License-Identifier: MPL-2.0

package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poetrysam/poetrysam/internal/groups"
	"github.com/poetrysam/poetrysam/internal/pyproject"
	"github.com/poetrysam/poetrysam/internal/toolrun"
)

const (
	// FormatRequirements is the pip requirements format.
	FormatRequirements = "requirements.txt"
	// FormatConstraints is the pip constraints format.
	FormatConstraints = "constraints.txt"

	// DefaultPoetryExecutable is the poetry CLI looked up on PATH when none is configured.
	DefaultPoetryExecutable = "poetry"

	// LockingNotice is reported before locking a project that has no lock file.
	LockingNotice = "The lock file does not exist. Locking."
	// StaleLockWarning is reported when poetry.lock no longer matches pyproject.toml.
	StaleLockWarning = "poetry.lock is not consistent with pyproject.toml. " +
		"You may be getting improper dependencies. Run `poetry lock [--no-update]` to fix it."
)

var (
	// ErrUnsupportedFormat is returned for an export format other than the supported ones.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrConflictingExtras is returned when explicit extras are combined with all extras.
	ErrConflictingExtras = errors.New("you cannot specify explicit `--extras` while exporting using `--all-extras`")
	// ErrUnknownExtras is returned when a requested extra is not declared by the project.
	ErrUnknownExtras = errors.New("extra not declared")
)

type (
	// Reporter receives progress notices from the exporter.
	Reporter interface {
		Info(msg string)
		Warning(msg string)
		Debug(msg string, keyvals ...any)
	}

	// Option configures an Exporter.
	Option func(*Exporter)

	// Options controls one export.
	Options struct {
		// Groups is the resolved set of dependency groups to include. An empty
		// set exports nothing and produces an empty file.
		Groups groups.Set
		// Extras are optional feature sets to include. Each value may hold
		// several names separated by whitespace.
		Extras    []string
		AllExtras bool
		// WithHashes includes package hashes.
		WithHashes bool
		// WithCredentials includes index credentials in source URLs.
		WithCredentials bool
		// WithURLs includes extra index URLs.
		WithURLs bool
		// Format is FormatRequirements or FormatConstraints. Empty means FormatRequirements.
		Format string
		// Output is the file to write.
		Output string
	}

	// Exporter exports locked dependencies through the poetry CLI.
	// The lock file is checked for freshness once per Exporter.
	Exporter struct {
		runner      toolrun.Runner
		reporter    Reporter
		poetry      string
		verbose     bool
		lockChecked bool
	}

	// UnknownExtrasError lists requested extras the project does not declare.
	UnknownExtrasError struct {
		Extras []string
	}
)

// Error implements the error interface.
func (e *UnknownExtrasError) Error() string {
	return fmt.Sprintf("extra [%s] not specified", strings.Join(e.Extras, ", "))
}

// Unwrap returns ErrUnknownExtras.
func (e *UnknownExtrasError) Unwrap() error { return ErrUnknownExtras }

// SupportedFormats returns the export formats poetry understands.
func SupportedFormats() []string {
	return []string{FormatConstraints, FormatRequirements}
}

// WithVerbose makes `poetry lock` run with -v.
func WithVerbose(verbose bool) Option {
	return func(e *Exporter) {
		e.verbose = verbose
	}
}

// New creates an Exporter. An empty poetryExec means DefaultPoetryExecutable.
func New(runner toolrun.Runner, reporter Reporter, poetryExec string, opts ...Option) *Exporter {
	if poetryExec == "" {
		poetryExec = DefaultPoetryExecutable
	}
	e := &Exporter{runner: runner, reporter: reporter, poetry: poetryExec}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SplitExtras splits every value on whitespace, so "-E 'a b'" names two extras.
func SplitExtras(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(v)...)
	}
	return out
}

// Validate checks opts against the project without running anything.
func (o Options) Validate(project *pyproject.Project) error {
	if !slices.Contains(SupportedFormats(), o.format()) {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, o.Format, strings.Join(SupportedFormats(), ", "))
	}
	extras := SplitExtras(o.Extras)
	if len(extras) > 0 && o.AllExtras {
		return ErrConflictingExtras
	}
	if unknown := project.UnknownExtras(extras); len(unknown) > 0 {
		return &UnknownExtrasError{Extras: unknown}
	}
	return nil
}

func (o Options) format() string {
	if o.Format == "" {
		return FormatRequirements
	}
	return o.Format
}

// Export writes the dependencies of opts.Groups to opts.Output.
// With no groups selected, poetry is not run and the output file is empty.
func (e *Exporter) Export(ctx context.Context, project *pyproject.Project, opts Options) error {
	if err := opts.Validate(project); err != nil {
		return err
	}

	if opts.Groups.IsEmpty() {
		out := opts.Output
		if !filepath.IsAbs(out) {
			out = filepath.Join(project.Root(), out)
		}
		e.reporter.Debug("no dependency groups selected, writing empty file", "output", out)
		if err := os.WriteFile(out, nil, 0o644); err != nil {
			return fmt.Errorf("export %s: %w", opts.format(), err)
		}
		return nil
	}

	switch {
	case !project.IsLocked():
		e.reporter.Info(LockingNotice)
		if err := e.run(ctx, e.lockInvocation(project)); err != nil {
			return fmt.Errorf("lock project: %w", err)
		}
	case !e.lockChecked:
		if err := e.checkLock(ctx, project); err != nil {
			return err
		}
	}
	e.lockChecked = true

	if err := e.run(ctx, e.ExportInvocation(project, opts)); err != nil {
		return fmt.Errorf("export %s: %w", opts.format(), err)
	}
	return nil
}

// ExportInvocation returns the `poetry export` call for opts.
func (e *Exporter) ExportInvocation(project *pyproject.Project, opts Options) toolrun.Invocation {
	args := []string{
		"export",
		"-f", opts.format(),
		"--output", opts.Output,
		"--only", strings.Join(opts.Groups.Sorted(), ","),
	}
	for _, extra := range SplitExtras(opts.Extras) {
		args = append(args, "--extras", extra)
	}
	if opts.AllExtras {
		args = append(args, "--all-extras")
	}
	if !opts.WithHashes {
		args = append(args, "--without-hashes")
	}
	if opts.WithCredentials {
		args = append(args, "--with-credentials")
	}
	if !opts.WithURLs {
		args = append(args, "--without-urls")
	}
	return toolrun.Invocation{Name: e.poetry, Args: args, Dir: project.Root()}
}

func (e *Exporter) lockInvocation(project *pyproject.Project) toolrun.Invocation {
	args := []string{"lock"}
	if e.verbose {
		args = append(args, "-v")
	}
	return toolrun.Invocation{Name: e.poetry, Args: args, Dir: project.Root()}
}

// CheckInvocation returns the `poetry check --lock` call used to detect a stale lock file.
func (e *Exporter) CheckInvocation(project *pyproject.Project) toolrun.Invocation {
	return toolrun.Invocation{Name: e.poetry, Args: []string{"check", "--lock"}, Dir: project.Root()}
}

// checkLock warns when poetry reports the lock file out of date. Any other
// complaint from `poetry check`, including older poetry versions rejecting
// --lock, is only logged.
func (e *Exporter) checkLock(ctx context.Context, project *pyproject.Project) error {
	inv := e.CheckInvocation(project)
	e.reporter.Debug("running", "cmd", inv.String())
	res, err := e.runner.Run(ctx, inv)
	if err != nil {
		return fmt.Errorf("check lock file: %w", err)
	}
	if res.Succeeded() {
		return nil
	}
	if strings.Contains(res.Stdout+res.Stderr, pyproject.LockFileName) {
		e.reporter.Warning(StaleLockWarning)
		return nil
	}
	e.reporter.Debug("poetry check failed", "exit", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	return nil
}

func (e *Exporter) run(ctx context.Context, inv toolrun.Invocation) error {
	e.reporter.Debug("running", "cmd", inv.String())
	res, err := e.runner.Run(ctx, inv)
	if err != nil {
		return err
	}
	return toolrun.Check(inv, res)
}

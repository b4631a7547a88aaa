// SPDX-License-Identifier: MPL-2.0

package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrToolNotFound is returned when the tool executable cannot be located.
var ErrToolNotFound = errors.New("tool not found")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Invocation describes one external tool call.
	Invocation struct {
		// Name is the executable name or path (e.g., "sam", "/usr/bin/python3").
		Name string
		// Args are the command-line arguments.
		Args []string
		// Dir is the working directory. Empty means the current directory.
		Dir string
		// Env holds extra KEY=VALUE pairs appended to the inherited environment.
		Env []string
	}

	// Result is the outcome of a finished tool process.
	Result struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// Runner executes external tools.
	Runner interface {
		Run(ctx context.Context, inv Invocation) (Result, error)
	}

	// ExecRunnerOption configures an ExecRunner.
	ExecRunnerOption func(*ExecRunner)

	// ExecRunner runs tools as child processes and captures their output.
	ExecRunner struct {
		execCommand ExecCommandFunc
		stdout      io.Writer
		stderr      io.Writer
	}

	// ToolFailureError reports a tool that exited with a non-zero status.
	ToolFailureError struct {
		Tool     string
		Args     []string
		ExitCode int
		Stderr   string
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.execCommand = fn
	}
}

// WithOutputMirror copies the child's stdout and stderr to the given writers
// while still capturing them in the Result. Nil writers are ignored.
func WithOutputMirror(stdout, stderr io.Writer) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner(opts ...ExecRunnerOption) *ExecRunner {
	r := &ExecRunner{execCommand: exec.CommandContext}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the tool and waits for it to exit.
// A non-zero exit status is captured in Result.ExitCode and is not an error.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if strings.TrimSpace(inv.Name) == "" {
		return Result{}, fmt.Errorf("%w: empty executable name", ErrToolNotFound)
	}

	cmd := r.execCommand(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		// A non-nil Env replaces the inherited environment, so start from it.
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = mirror(&stdout, r.stdout)
	cmd.Stderr = mirror(&stderr, r.stderr)

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			// Killed by a signal; treat like any other failure but keep it non-zero.
			res.ExitCode = 1
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s interrupted: %w", inv.Name, ctxErr)
		}
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return res, fmt.Errorf("%w: %s: %w", ErrToolNotFound, inv.Name, err)
	}
	return res, fmt.Errorf("failed to run %s: %w", inv.Name, err)
}

func mirror(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// Succeeded reports whether the tool exited with status 0.
func (r Result) Succeeded() bool { return r.ExitCode == 0 }

// Check returns a ToolFailureError when res reports a non-zero exit status.
func Check(inv Invocation, res Result) error {
	if res.Succeeded() {
		return nil
	}
	return &ToolFailureError{
		Tool:     inv.Name,
		Args:     inv.Args,
		ExitCode: res.ExitCode,
		Stderr:   res.Stderr,
	}
}

// Error implements the error interface.
func (e *ToolFailureError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + lastLine(stderr)
	}
	return msg
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// String renders the invocation as a shell command line, quoting arguments
// where needed. It is meant for logs, not for re-execution.
func (inv Invocation) String() string {
	words := make([]string, 0, len(inv.Args)+1)
	for _, word := range append([]string{inv.Name}, inv.Args...) {
		quoted, err := syntax.Quote(word, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", word)
		}
		words = append(words, quoted)
	}
	return strings.Join(words, " ")
}

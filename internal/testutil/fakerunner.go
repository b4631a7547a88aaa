// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/poetrysam/poetrysam/internal/toolrun"
)

type (
	// FakeHandler produces the outcome of one fake tool invocation.
	FakeHandler func(inv toolrun.Invocation) (toolrun.Result, error)

	// FakeRunner is a toolrun.Runner that records invocations and answers them
	// from registered handlers. Unmatched invocations succeed with no output.
	FakeRunner struct {
		mu       sync.Mutex
		calls    []toolrun.Invocation
		handlers map[string]FakeHandler
	}
)

// NewFakeRunner creates a FakeRunner with no handlers.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{handlers: make(map[string]FakeHandler)}
}

// On registers h for invocations of tool. When sub is non-empty the handler
// only matches invocations whose first argument equals sub, and takes
// precedence over a tool-wide handler.
func (f *FakeRunner) On(tool, sub string, h FakeHandler) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key(tool, sub)] = h
	return f
}

// Run implements toolrun.Runner.
func (f *FakeRunner) Run(ctx context.Context, inv toolrun.Invocation) (toolrun.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	h := f.handlers[key(inv.Name, "")]
	if len(inv.Args) > 0 {
		if sub, ok := f.handlers[key(inv.Name, inv.Args[0])]; ok {
			h = sub
		}
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return toolrun.Result{}, err
	}
	if h == nil {
		return toolrun.Result{}, nil
	}
	return h(inv)
}

// Invocations returns a copy of every recorded invocation in call order.
func (f *FakeRunner) Invocations() []toolrun.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the recorded invocations of tool.
func (f *FakeRunner) CallsTo(tool string) []toolrun.Invocation {
	var out []toolrun.Invocation
	for _, inv := range f.Invocations() {
		if inv.Name == tool {
			out = append(out, inv)
		}
	}
	return out
}

// Fail answers with a non-zero exit status and the given stderr.
func Fail(code int, stderr string) FakeHandler {
	return func(toolrun.Invocation) (toolrun.Result, error) {
		return toolrun.Result{ExitCode: code, Stderr: stderr}, nil
	}
}

// Error answers with a runner error, as when the executable is missing.
func Error(err error) FakeHandler {
	return func(toolrun.Invocation) (toolrun.Result, error) {
		return toolrun.Result{}, err
	}
}

// WriteFlagFile writes content to the path passed after flag (e.g. "--output")
// and then succeeds. Relative paths resolve against the invocation's Dir.
func WriteFlagFile(flag, content string) FakeHandler {
	return func(inv toolrun.Invocation) (toolrun.Result, error) {
		i := slices.Index(inv.Args, flag)
		if i < 0 || i+1 >= len(inv.Args) {
			return toolrun.Result{ExitCode: 2, Stderr: "missing " + flag}, nil
		}
		path := inv.Args[i+1]
		if !filepath.IsAbs(path) {
			path = filepath.Join(inv.Dir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return toolrun.Result{}, err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return toolrun.Result{}, err
		}
		return toolrun.Result{}, nil
	}
}

func key(tool, sub string) string {
	if sub == "" {
		return tool
	}
	return tool + " " + sub
}

// SPDX-License-Identifier: MPL-2.0

package sam

import (
	"fmt"
	"os"

	"mvdan.cc/sh/v3/shell"

	"github.com/poetrysam/poetrysam/internal/toolrun"
)

// DefaultExecutable is the sam CLI looked up on PATH when none is configured.
const DefaultExecutable = "sam"

// CLI builds invocations of the sam executable.
type CLI struct {
	Executable string
}

// BuildInvocation returns `sam build [params...] --template T --build-dir D`.
// Extra params are passed through untouched, before the fixed arguments.
func (c CLI) BuildInvocation(template, buildDir string, params []string) toolrun.Invocation {
	exe := c.Executable
	if exe == "" {
		exe = DefaultExecutable
	}
	args := make([]string, 0, len(params)+5)
	args = append(args, "build")
	args = append(args, params...)
	args = append(args, "--template", template, "--build-dir", buildDir)
	return toolrun.Invocation{Name: exe, Args: args}
}

// ParseParams splits a shell-style parameter string such as
// `--use-container --parameter-overrides "Stage=dev Env=x"` into words.
// Environment variables are expanded from the current process environment.
func ParseParams(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	fields, err := shell.Fields(s, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("parse sam params %q: %w", s, err)
	}
	return fields, nil
}

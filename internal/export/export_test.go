// SPDX-License-Identifier: MPL-2.0

package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poetrysam/poetrysam/internal/groups"
	"github.com/poetrysam/poetrysam/internal/pyproject"
	"github.com/poetrysam/poetrysam/internal/testutil"
	"github.com/poetrysam/poetrysam/internal/toolrun"
)

type recordingReporter struct {
	infos    []string
	warnings []string
}

func (r *recordingReporter) Info(msg string)      { r.infos = append(r.infos, msg) }
func (r *recordingReporter) Warning(msg string)   { r.warnings = append(r.warnings, msg) }
func (r *recordingReporter) Debug(string, ...any) {}

func loadProject(t *testing.T, locked bool) *pyproject.Project {
	t.Helper()
	p, err := pyproject.Load(testutil.Project(t, locked))
	require.NoError(t, err)
	return p
}

func TestExport_LockedProject(t *testing.T) {
	t.Parallel()

	project := loadProject(t, true)
	runner := testutil.NewFakeRunner().On("poetry", "export", testutil.WriteFlagFile("--output", "boto3==1.34.0\n"))
	reporter := &recordingReporter{}
	out := filepath.Join(t.TempDir(), "requirements.txt")

	err := New(runner, reporter, "").Export(context.Background(), project, Options{
		Groups: groups.NewSet("main", "dev"),
		Output: out,
	})
	require.NoError(t, err)

	calls := runner.Invocations()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"check", "--lock"}, calls[0].Args)
	assert.Equal(t, "poetry", calls[1].Name)
	assert.Equal(t, project.Root(), calls[1].Dir)
	assert.Equal(t, []string{
		"export", "-f", "requirements.txt", "--output", out, "--only", "dev,main",
		"--without-hashes", "--without-urls",
	}, calls[1].Args)
	assert.Empty(t, reporter.infos)
	assert.Empty(t, reporter.warnings)
	assert.Equal(t, "boto3==1.34.0\n", testutil.MustReadFile(t, out))
}

func TestExport_LocksWhenLockFileMissing(t *testing.T) {
	t.Parallel()

	project := loadProject(t, false)
	runner := testutil.NewFakeRunner()
	reporter := &recordingReporter{}

	err := New(runner, reporter, "/opt/poetry").Export(context.Background(), project, Options{
		Groups: groups.NewSet("main"),
		Output: "req.txt",
	})
	require.NoError(t, err)

	calls := runner.CallsTo("/opt/poetry")
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"lock"}, calls[0].Args)
	assert.Equal(t, "export", calls[1].Args[0])
	assert.Equal(t, []string{LockingNotice}, reporter.infos)
}

func TestExport_VerboseLock(t *testing.T) {
	t.Parallel()

	project := loadProject(t, false)
	runner := testutil.NewFakeRunner()

	err := New(runner, &recordingReporter{}, "", WithVerbose(true)).Export(context.Background(), project, Options{
		Groups: groups.NewSet("main"),
		Output: "req.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lock", "-v"}, runner.Invocations()[0].Args)
}

func TestExport_StaleLockWarns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		check    testutil.FakeHandler
		wantWarn bool
	}{
		{"fresh", nil, false},
		{
			"stale",
			testutil.Fail(1, "Error: pyproject.toml changed significantly since poetry.lock was last generated. "+
				"Run `poetry lock [--no-update]` to fix the lock file."),
			true,
		},
		{"old poetry without --lock", testutil.Fail(1, `The option "--lock" does not exist`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			project := loadProject(t, true)
			runner := testutil.NewFakeRunner()
			if tt.check != nil {
				runner.On("poetry", "check", tt.check)
			}
			reporter := &recordingReporter{}
			e := New(runner, reporter, "")

			for range 2 {
				err := e.Export(context.Background(), project, Options{
					Groups: groups.NewSet("main"),
					Output: filepath.Join(t.TempDir(), "req.txt"),
				})
				require.NoError(t, err)
			}

			var checks int
			for _, inv := range runner.Invocations() {
				if inv.Args[0] == "check" {
					checks++
				}
			}
			assert.Equal(t, 1, checks)
			if tt.wantWarn {
				assert.Equal(t, []string{StaleLockWarning}, reporter.warnings)
			} else {
				assert.Empty(t, reporter.warnings)
			}
			assert.Len(t, runner.Invocations(), 3)
		})
	}
}

func TestExport_NoGroupsWritesEmptyFile(t *testing.T) {
	t.Parallel()

	project := loadProject(t, false)
	runner := testutil.NewFakeRunner()
	out := filepath.Join(t.TempDir(), "requirements.txt")

	err := New(runner, &recordingReporter{}, "").Export(context.Background(), project, Options{
		Groups: groups.NewSet(),
		Output: out,
	})
	require.NoError(t, err)
	assert.Empty(t, runner.Invocations())
	assert.Empty(t, testutil.MustReadFile(t, out))
}

func TestExport_LockFailureStopsExport(t *testing.T) {
	t.Parallel()

	project := loadProject(t, false)
	runner := testutil.NewFakeRunner().On("poetry", "lock", testutil.Fail(1, "resolver failed"))

	err := New(runner, &recordingReporter{}, "").Export(context.Background(), project, Options{
		Groups: groups.NewSet("main"),
		Output: "req.txt",
	})

	var failure *toolrun.ToolFailureError
	require.True(t, errors.As(err, &failure), "got %v", err)
	assert.Equal(t, 1, failure.ExitCode)
	assert.Len(t, runner.Invocations(), 1)
}

func TestExport_Flags(t *testing.T) {
	t.Parallel()

	project := loadProject(t, true)
	e := New(testutil.NewFakeRunner(), &recordingReporter{}, "")

	inv := e.ExportInvocation(project, Options{
		Groups:          groups.NewSet("main"),
		Extras:          []string{"postgres"},
		WithHashes:      true,
		WithCredentials: true,
		WithURLs:        true,
		Format:          FormatConstraints,
		Output:          "c.txt",
	})
	assert.Equal(t, []string{
		"export", "-f", "constraints.txt", "--output", "c.txt", "--only", "main",
		"--extras", "postgres", "--with-credentials",
	}, inv.Args)

	inv = e.ExportInvocation(project, Options{Groups: groups.NewSet("main"), Extras: []string{"postgres  aws", "x"}, Output: "r.txt"})
	assert.Equal(t, []string{"--extras", "postgres", "--extras", "aws", "--extras", "x"}, inv.Args[7:13])

	inv = e.ExportInvocation(project, Options{Groups: groups.NewSet("main"), AllExtras: true, Output: "r.txt"})
	assert.Contains(t, inv.Args, "--all-extras")
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	project := loadProject(t, true)
	main := groups.NewSet("main")

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"valid", Options{Groups: main, Extras: []string{"Postgres"}}, nil},
		{"constraints", Options{Groups: main, Format: FormatConstraints}, nil},
		{"unsupported format", Options{Groups: main, Format: "pylock.toml"}, ErrUnsupportedFormat},
		{"no groups", Options{Groups: groups.NewSet()}, nil},
		{"space separated extras", Options{Groups: main, Extras: []string{"postgres Postgres"}}, nil},
		{"space separated unknown extra", Options{Groups: main, Extras: []string{"postgres redis"}}, ErrUnknownExtras},
		{"blank extras with all extras", Options{Groups: main, Extras: []string{"  "}, AllExtras: true}, nil},
		{"extras with all extras", Options{Groups: main, Extras: []string{"postgres"}, AllExtras: true}, ErrConflictingExtras},
		{"unknown extras", Options{Groups: main, Extras: []string{"mysql", "redis"}}, ErrUnknownExtras},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate(project)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnknownExtrasError(t *testing.T) {
	t.Parallel()

	project := loadProject(t, true)
	err := Options{Groups: groups.NewSet("main"), Extras: []string{"redis", "mysql"}}.Validate(project)

	var unknown *UnknownExtrasError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"mysql", "redis"}, unknown.Extras)
	assert.Equal(t, "extra [mysql, redis] not specified", err.Error())
}

func TestExport_ValidationRunsNothing(t *testing.T) {
	t.Parallel()

	project := loadProject(t, false)
	runner := testutil.NewFakeRunner()

	err := New(runner, &recordingReporter{}, "").Export(context.Background(), project, Options{
		Groups: groups.NewSet("main"),
		Format: "setup.py",
	})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, runner.Invocations())
}

// SPDX-License-Identifier: MPL-2.0

package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// helperCommand returns an ExecCommandFunc that re-executes the test binary as
// TestHelperProcess, which prints the given output and exits with exitCode.
// Every requested command line is appended to calls.
func helperCommand(t *testing.T, calls *[][]string, exitCode int, stdout, stderr string) ExecCommandFunc {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string{name}, args...))

		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
			"GO_HELPER_STDOUT=" + stdout,
			"GO_HELPER_STDERR=" + stderr,
		}
		return cmd
	}
}

// TestHelperProcess is invoked by helperCommand; it is not a real test.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, os.Getenv("GO_HELPER_STDOUT"))
	fmt.Fprint(os.Stderr, os.Getenv("GO_HELPER_STDERR"))

	code := 0
	fmt.Sscanf(os.Getenv("GO_HELPER_EXIT_CODE"), "%d", &code)
	os.Exit(code)
}

func TestExecRunner_Success(t *testing.T) {
	var calls [][]string
	r := NewExecRunner(WithExecCommand(helperCommand(t, &calls, 0, "built", "")))

	inv := Invocation{Name: "sam", Args: []string{"build", "--template", "template.yml"}}
	res, err := r.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if !res.Succeeded() {
		t.Errorf("Succeeded() = false, exit code %d", res.ExitCode)
	}
	if res.Stdout != "built" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "built")
	}
	if len(calls) != 1 || strings.Join(calls[0], " ") != "sam build --template template.yml" {
		t.Errorf("calls = %v", calls)
	}
	if err := Check(inv, res); err != nil {
		t.Errorf("Check() on success = %v, want nil", err)
	}
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	var calls [][]string
	r := NewExecRunner(WithExecCommand(helperCommand(t, &calls, 3, "", "Error: template invalid\n")))

	inv := Invocation{Name: "sam", Args: []string{"build"}}
	res, err := r.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "template invalid") {
		t.Errorf("Stderr = %q", res.Stderr)
	}

	checkErr := Check(inv, res)
	var failure *ToolFailureError
	if !errors.As(checkErr, &failure) {
		t.Fatalf("Check() = %T, want *ToolFailureError", checkErr)
	}
	if failure.ExitCode != 3 || failure.Tool != "sam" {
		t.Errorf("failure = %+v", failure)
	}
	if got := failure.Error(); got != "sam exited with status 3: Error: template invalid" {
		t.Errorf("Error() = %q", got)
	}
}

func TestExecRunner_OutputMirror(t *testing.T) {
	var calls [][]string
	var out, errOut bytes.Buffer
	r := NewExecRunner(
		WithExecCommand(helperCommand(t, &calls, 0, "to-stdout", "to-stderr")),
		WithOutputMirror(&out, &errOut),
	)

	res, err := r.Run(context.Background(), Invocation{Name: "pip"})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if out.String() != "to-stdout" || res.Stdout != "to-stdout" {
		t.Errorf("stdout mirror = %q, captured = %q", out.String(), res.Stdout)
	}
	if errOut.String() != "to-stderr" || res.Stderr != "to-stderr" {
		t.Errorf("stderr mirror = %q, captured = %q", errOut.String(), res.Stderr)
	}
}

func TestExecRunner_MissingTool(t *testing.T) {
	t.Parallel()

	r := NewExecRunner()
	_, err := r.Run(context.Background(), Invocation{Name: "poetrysam-definitely-not-installed"})
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Run() error = %v, want ErrToolNotFound", err)
	}

	_, err = r.Run(context.Background(), Invocation{Name: "  "})
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Run() with blank name error = %v, want ErrToolNotFound", err)
	}
}

func TestInvocation_String(t *testing.T) {
	t.Parallel()

	inv := Invocation{Name: "python3", Args: []string{"-m", "pip", "install", "-r", "my dir/requirements.txt"}}
	got := inv.String()
	if !strings.HasPrefix(got, "python3 -m pip install -r ") {
		t.Errorf("String() = %q", got)
	}
	if strings.HasSuffix(got, " my dir/requirements.txt") {
		t.Errorf("String() should quote arguments with spaces: %q", got)
	}
	if !strings.Contains(got, "my dir/requirements.txt") {
		t.Errorf("String() lost the argument: %q", got)
	}
}

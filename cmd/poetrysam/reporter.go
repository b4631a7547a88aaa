// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// consoleReporter prints build progress with the CLI styles. Debug output goes
// through a charmbracelet logger that is only enabled in verbose mode.
type consoleReporter struct {
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
}

func newConsoleReporter(stdout, stderr io.Writer, verbose bool) *consoleReporter {
	logger := log.NewWithOptions(stderr, log.Options{
		Prefix: "poetrysam",
		Level:  log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return &consoleReporter{stdout: stdout, stderr: stderr, logger: logger}
}

func (r *consoleReporter) Waiting(msg string) {
	fmt.Fprintln(r.stdout, TitleStyle.Render(msg))
}

func (r *consoleReporter) Info(msg string) {
	fmt.Fprintln(r.stdout, msg)
}

func (r *consoleReporter) Success(msg string) {
	fmt.Fprintln(r.stdout, SuccessStyle.Render(msg))
}

func (r *consoleReporter) Warning(msg string) {
	fmt.Fprintln(r.stderr, WarningStyle.Render("Warning:"), msg)
}

// Error prints tool output verbatim, one styled line per input line.
func (r *consoleReporter) Error(msg string) {
	for line := range strings.SplitSeq(strings.TrimRight(msg, "\n"), "\n") {
		fmt.Fprintln(r.stderr, ErrorStyle.Render(line))
	}
}

func (r *consoleReporter) Debug(msg string, keyvals ...any) {
	r.logger.Debug(msg, keyvals...)
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/poetrysam/poetrysam/internal/issue"
)

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method, which adds the error chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// fail prints err with its issue guidance and returns the exit error for RunE.
// Cobra's own error printing is silenced so the message appears once.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	renderError(a.stderr, err, verbose, a.issueStyle)
	return newExitError(err)
}

func renderError(w io.Writer, err error, verbose bool, style string) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		if iss := issue.Get(ae.Issue); iss != nil {
			if rendered, renderErr := iss.Render(style); renderErr == nil {
				fmt.Fprint(w, rendered)
			}
		}
	}
	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

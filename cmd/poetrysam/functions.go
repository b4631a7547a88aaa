// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/poetrysam/poetrysam/internal/build"
)

// markdownRenderer renders Markdown for terminal output; swapped in tests.
var markdownRenderer = func(md string) (string, error) {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}

func newFunctionsCommand(app *App) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the Python functions a build would package",
		Long: `List the Python functions of the SAM template together with the directory
their requirements file is written to and the directory pip installs into.
Nothing is built.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			sess, err := app.loadSession(cmd)
			if err != nil {
				return app.fail(cmd, err, verbose)
			}
			plan, err := build.Prepare(build.Request{Root: sess.Root, Config: sess.Loaded.Config})
			if err != nil {
				return app.fail(cmd, err, verbose)
			}

			md := functionsMarkdown(plan)
			if raw {
				fmt.Fprint(app.stdout, md)
				return nil
			}
			out, err := markdownRenderer(md)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "markdown", false, "print the Markdown source instead of rendering it")
	return cmd
}

// functionsMarkdown lists the plan's Python functions as a Markdown table.
func functionsMarkdown(plan *build.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Python functions in %s\n\n", plan.TemplatePath)

	functions := plan.Template.PythonFunctions()
	if len(functions) == 0 {
		sb.WriteString("No Python functions found.\n")
		return sb.String()
	}

	sb.WriteString("| Function | Runtime | Handler | CodeUri | Package path |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, fn := range functions {
		fmt.Fprintf(&sb, "| %s | %s | `%s` | %s | `%s` |\n",
			fn.Name, fn.Runtime, fn.Handler, orDash(fn.CodeURI), fn.SourcePath())
	}

	if skipped := len(plan.Template.Functions) - len(functions); skipped > 0 {
		fmt.Fprintf(&sb, "\n%d other function(s) skipped (non-Python runtime or container image).\n", skipped)
	}
	fmt.Fprintf(&sb, "\nDependency groups: `%s`\n", plan.Resolution.Groups)
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/poetrysam/poetrysam/internal/build"
	"github.com/poetrysam/poetrysam/internal/groups"
)

func newGroupsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Show the dependency groups a build would export",
		Long: `Show the groups declared in pyproject.toml, the default selection, and the
groups selected by the current --only, --with and --without directives.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			sess, err := app.loadSession(cmd)
			if err != nil {
				return app.fail(cmd, err, verbose)
			}

			project, res, err := build.ResolveGroups(build.Request{Root: sess.Root, Config: sess.Loaded.Config})
			if err != nil {
				return app.fail(cmd, err, verbose)
			}

			known, defaults := project.KnownGroups(), project.DefaultGroups()
			printGroups(app.stdout, known, defaults, res)
			return nil
		},
	}
}

func printGroups(w io.Writer, known, defaults groups.Set, res groups.Resolution) {
	fmt.Fprintln(w, TitleStyle.Render("Dependency groups"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render("declared:"), joinOrNone(known))
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render("default: "), joinOrNone(defaults))
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render("selected:"), SuccessStyle.Render(joinOrNone(res.Groups)))
	for _, advisory := range res.Advisories {
		fmt.Fprintf(w, "\n%s %s\n", WarningStyle.Render("Warning:"), advisory)
	}
}

func joinOrNone(s groups.Set) string {
	if s.IsEmpty() {
		return SubtitleStyle.Render("(none)")
	}
	return strings.Join(s.Sorted(), ", ")
}

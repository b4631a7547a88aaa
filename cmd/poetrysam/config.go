// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/poetrysam/poetrysam/internal/config"
)

// newConfigCommand creates the `poetrysam config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect poetrysam configuration",
		Long: `Inspect poetrysam configuration.

Settings are read, lowest precedence first, from:
  - built-in defaults
  - ` + config.ConfigFileName + ` in the project root (or --config)
  - the [tool.poetrysam] table of pyproject.toml
  - ` + config.EnvPrefix + `_* environment variables (e.g. ` + config.EnvPrefix + `_SAM_EXEC)
  - command-line flags`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			sess, err := app.loadSession(cmd)
			if err != nil {
				return app.fail(cmd, err, verbose)
			}
			showConfig(app.stdout, sess)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as " + config.ConfigFileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			sess, err := app.loadSession(cmd)
			if err != nil {
				return app.fail(cmd, err, verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(sess.Loaded.Config))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, sess *session) {
	cfg := sess.Loaded.Config

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Project root"), sess.Root)
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Sources"), strings.Join(sess.Loaded.Sources, " -> "))
	fmt.Fprintln(w)

	rows := []struct {
		key   string
		value any
	}{
		{"only", cfg.Only},
		{"with", cfg.With},
		{"without", cfg.Without},
		{"without_hashes", cfg.WithoutHashes},
		{"with_credentials", cfg.WithCredentials},
		{"without_urls", cfg.WithoutURLs},
		{"requirements_format", cfg.RequirementsFormat},
		{"extras", cfg.Extras},
		{"all_extras", cfg.AllExtras},
		{"template_name", cfg.TemplateName},
		{"build_dir", cfg.BuildDir},
		{"sam_exec", cfg.SamExec},
		{"poetry_exec", cfg.PoetryExec},
		{"python_exec", cfg.PythonExec},
		{"sam_params", cfg.SamParams},
		{"verbose", cfg.Verbose},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(row.key), formatValue(row.value))
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return SubtitleStyle.Render("[]")
		}
		return SuccessStyle.Render("[" + strings.Join(val, ", ") + "]")
	case string:
		if val == "" {
			return SubtitleStyle.Render(`""`)
		}
		return SuccessStyle.Render(val)
	default:
		return SuccessStyle.Render(fmt.Sprint(val))
	}
}

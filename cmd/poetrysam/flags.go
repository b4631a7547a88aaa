// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/poetrysam/poetrysam/internal/config"
)

const (
	flagRoot   = "root"
	flagConfig = "config"
)

// registerFlags declares every setting as a persistent flag so that build,
// functions, groups and config show all see the same effective configuration.
// Flag defaults only document the built-in values: a flag overrides the lower
// configuration layers only when it is set explicitly.
func registerFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	fs := cmd.PersistentFlags()

	fs.String(flagRoot, "", "project directory holding pyproject.toml (default is the current directory)")
	fs.String(flagConfig, "", "CUE config file (default is <root>/"+config.ConfigFileName+")")
	fs.BoolP(config.FlagName("verbose"), "v", d.Verbose, "enable verbose output")

	fs.StringSlice(config.FlagName("only"), nil, "use only these dependency groups")
	fs.StringSlice(config.FlagName("with"), nil, "add optional dependency groups")
	fs.StringSlice(config.FlagName("without"), nil, "exclude dependency groups")

	fs.Bool(config.FlagName("without_hashes"), d.WithoutHashes, "exclude hashes from the exported file")
	fs.Bool(config.FlagName("with_credentials"), d.WithCredentials, "include credentials for extra indices")
	fs.Bool(config.FlagName("without_urls"), d.WithoutURLs, "exclude source repository urls from the exported file")
	fs.StringP(config.FlagName("requirements_format"), "f", d.RequirementsFormat,
		"format to export to: "+config.FormatRequirements+" or "+config.FormatConstraints)
	fs.StringSliceP(config.FlagName("extras"), "E", nil, "extra sets of dependencies to include")
	fs.Bool(config.FlagName("all_extras"), d.AllExtras, "include all sets of extra dependencies")

	fs.StringP(config.FlagName("template_name"), "t", d.TemplateName, "SAM template, relative to the project root")
	fs.String(config.FlagName("build_dir"), d.BuildDir, "sam build output directory, relative to the project root")
	fs.String(config.FlagName("sam_exec"), d.SamExec, "sam executable")
	fs.String(config.FlagName("poetry_exec"), d.PoetryExec, "poetry executable")
	fs.String(config.FlagName("python_exec"), d.PythonExec, "python interpreter used to run pip")
	fs.String(config.FlagName("sam_params"), d.SamParams, "extra 'sam build' arguments, shell-quoted")
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"
)

// GenerateCUE renders cfg as a poetrysam.cue file. Empty lists and empty
// optional strings are omitted.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// poetrysam configuration\n\n")

	writeList(&sb, "only", cfg.Only)
	writeList(&sb, "with", cfg.With)
	writeList(&sb, "without", cfg.Without)

	fmt.Fprintf(&sb, "without_hashes: %v\n", cfg.WithoutHashes)
	fmt.Fprintf(&sb, "with_credentials: %v\n", cfg.WithCredentials)
	fmt.Fprintf(&sb, "without_urls: %v\n", cfg.WithoutURLs)
	fmt.Fprintf(&sb, "requirements_format: %q\n", cfg.RequirementsFormat)
	writeList(&sb, "extras", cfg.Extras)
	fmt.Fprintf(&sb, "all_extras: %v\n", cfg.AllExtras)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "template_name: %q\n", cfg.TemplateName)
	fmt.Fprintf(&sb, "build_dir: %q\n", cfg.BuildDir)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "sam_exec: %q\n", cfg.SamExec)
	fmt.Fprintf(&sb, "poetry_exec: %q\n", cfg.PoetryExec)
	fmt.Fprintf(&sb, "python_exec: %q\n", cfg.PythonExec)
	if cfg.SamParams != "" {
		fmt.Fprintf(&sb, "sam_params: %q\n", cfg.SamParams)
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "verbose: %v\n", cfg.Verbose)

	return sb.String()
}

func writeList(sb *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		return
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(sb, "%s: [%s]\n", key, strings.Join(quoted, ", "))
}

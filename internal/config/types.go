// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poetrysam/poetrysam/internal/groups"
)

const (
	// FormatRequirements exports a pip requirements file.
	FormatRequirements = "requirements.txt"
	// FormatConstraints exports a pip constraints file.
	FormatConstraints = "constraints.txt"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidField is the sentinel error wrapped by InvalidFieldError.
	ErrInvalidField = errors.New("invalid config field")
)

type (
	// Config holds the effective poetrysam settings.
	Config struct {
		// Only restricts the export to exactly these groups.
		Only []string `json:"only,omitempty" mapstructure:"only"`
		// With adds optional groups to the defaults.
		With []string `json:"with,omitempty" mapstructure:"with"`
		// Without removes groups from the selection.
		Without []string `json:"without,omitempty" mapstructure:"without"`

		WithoutHashes      bool     `json:"without_hashes" mapstructure:"without_hashes"`
		WithCredentials    bool     `json:"with_credentials" mapstructure:"with_credentials"`
		WithoutURLs        bool     `json:"without_urls" mapstructure:"without_urls"`
		RequirementsFormat string   `json:"requirements_format" mapstructure:"requirements_format"`
		Extras             []string `json:"extras,omitempty" mapstructure:"extras"`
		AllExtras          bool     `json:"all_extras" mapstructure:"all_extras"`

		// TemplateName is the SAM template path, relative to the project root.
		TemplateName string `json:"template_name" mapstructure:"template_name"`
		// BuildDir is the sam build output directory, relative to the project root.
		BuildDir string `json:"build_dir" mapstructure:"build_dir"`

		SamExec    string `json:"sam_exec" mapstructure:"sam_exec"`
		PoetryExec string `json:"poetry_exec" mapstructure:"poetry_exec"`
		PythonExec string `json:"python_exec" mapstructure:"python_exec"`
		// SamParams holds extra `sam build` arguments as one shell-quoted string.
		SamParams string `json:"sam_params,omitempty" mapstructure:"sam_params"`

		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidFieldError reports one field with an unusable value.
	InvalidFieldError struct {
		Field  string
		Reason string
	}

	// InvalidConfigError collects every field-level problem of a Config.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		RequirementsFormat: FormatRequirements,
		TemplateName:       "template.yml",
		BuildDir:           ".aws-sam/build",
		SamExec:            "sam",
		PoetryExec:         "poetry",
		PythonExec:         "python3",
	}
}

// Directives converts the group settings into resolver directives.
// An empty Only list means no only directive.
func (c *Config) Directives() groups.Directives {
	d := groups.Directives{
		With:    groups.ParseList(c.With),
		Without: groups.ParseList(c.Without),
	}
	if only := groups.ParseList(c.Only); !only.IsEmpty() {
		d.Only = &only
	}
	return d
}

// Validate checks the constraints that must hold no matter which source a
// value came from, including environment variables and flags that bypass the
// CUE schema.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		field string
		value string
	}{
		{"template_name", c.TemplateName},
		{"build_dir", c.BuildDir},
		{"sam_exec", c.SamExec},
		{"poetry_exec", c.PoetryExec},
		{"python_exec", c.PythonExec},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, &InvalidFieldError{Field: r.field, Reason: "must not be empty"})
		}
	}
	switch c.RequirementsFormat {
	case FormatRequirements, FormatConstraints:
	default:
		errs = append(errs, &InvalidFieldError{
			Field:  "requirements_format",
			Reason: fmt.Sprintf("%q is not one of %s, %s", c.RequirementsFormat, FormatRequirements, FormatConstraints),
		})
	}
	if c.AllExtras && len(c.Extras) > 0 {
		errs = append(errs, &InvalidFieldError{Field: "extras", Reason: "cannot be combined with all_extras"})
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidField for errors.Is() compatibility.
func (e *InvalidFieldError) Unwrap() error { return ErrInvalidField }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

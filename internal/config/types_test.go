// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Directives(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.With = []string{"docs, lint"}
	cfg.Without = []string{"dev"}

	d := cfg.Directives()
	assert.Nil(t, d.Only)
	assert.Equal(t, []string{"docs", "lint"}, d.With.Sorted())
	assert.Equal(t, []string{"dev"}, d.Without.Sorted())

	cfg.Only = []string{"main,docs"}
	d = cfg.Directives()
	require.NotNil(t, d.Only)
	assert.Equal(t, []string{"docs", "main"}, d.Only.Sorted())

	// A list of blanks is the same as no only directive.
	cfg.Only = []string{" , "}
	assert.Nil(t, cfg.Directives().Only)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.SamExec = "  "
	cfg.RequirementsFormat = "pipfile"
	cfg.Extras = []string{"postgres"}
	cfg.AllExtras = true

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	var invalid *InvalidConfigError
	require.True(t, errors.As(err, &invalid))
	require.Len(t, invalid.FieldErrors, 3)
	for _, fe := range invalid.FieldErrors {
		assert.ErrorIs(t, fe, ErrInvalidField)
	}
	assert.Contains(t, err.Error(), "sam_exec: must not be empty")
	assert.Contains(t, err.Error(), "extras: cannot be combined with all_extras")
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", formatPath(nil))
	assert.Equal(t, "extras[0]", formatPath([]string{"extras", "0"}))
	assert.Equal(t, "only[2].x", formatPath([]string{"only", "2", "x"}))
}

// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poetrysam/poetrysam/internal/groups"
)

const samplePyproject = `
[tool.poetry]
name = "orders-service"
version = "0.1.0"

[tool.poetry.dependencies]
python = "^3.12"
boto3 = "^1.34"

[tool.poetry.group.dev_check.dependencies]
ruff = "*"

[tool.poetry.group.docs]
optional = true

[tool.poetry.group.docs.dependencies]
mkdocs = "*"

[tool.poetry.extras]
Postgres_Driver = ["psycopg"]

[tool.poetrysam]
template_name = "infra/template.yaml"
`

func TestParse_Groups(t *testing.T) {
	t.Parallel()

	p, err := Parse("/project", []byte(samplePyproject))
	require.NoError(t, err)

	assert.Equal(t, "orders-service", p.Name())
	assert.Equal(t, []string{"dev_check", "docs", "main"}, p.KnownGroups().Sorted())
	assert.Equal(t, []string{"dev_check", "main"}, p.DefaultGroups().Sorted())
	assert.True(t, p.HasGroup("docs"))
	assert.False(t, p.HasGroup("lint"))
}

func TestParse_NoGroupMetadataFallsBackToMain(t *testing.T) {
	t.Parallel()

	p, err := Parse("/project", []byte("[tool.poetry]\nname = \"x\"\n"))
	require.NoError(t, err)

	assert.True(t, p.DefaultGroups().Equal(groups.NewSet(groups.MainGroup)))
	assert.True(t, p.KnownGroups().Equal(groups.NewSet(groups.MainGroup)))
}

func TestParse_LegacyDevDependencies(t *testing.T) {
	t.Parallel()

	p, err := Parse("/project", []byte(`
[tool.poetry.dev-dependencies]
pytest = "*"
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"dev", "main"}, p.KnownGroups().Sorted())
	assert.Equal(t, []string{"dev", "main"}, p.DefaultGroups().Sorted())
}

func TestParse_Extras(t *testing.T) {
	t.Parallel()

	p, err := Parse("/project", []byte(samplePyproject+`
[project.optional-dependencies]
"aws.xray" = ["aws-xray-sdk"]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"aws-xray", "postgres-driver"}, p.Extras())
	assert.Empty(t, p.UnknownExtras([]string{"postgres.driver", "AWS_XRAY"}))
	assert.Equal(t, []string{"redis"}, p.UnknownExtras([]string{"Redis", "redis", "postgres-driver"}))
}

func TestParse_ToolSettings(t *testing.T) {
	t.Parallel()

	p, err := Parse("/project", []byte(samplePyproject))
	require.NoError(t, err)
	assert.Equal(t, "infra/template.yaml", p.ToolSettings()["template_name"])

	bare, err := Parse("/project", []byte("[tool.poetry]\n"))
	require.NoError(t, err)
	assert.Nil(t, bare.ToolSettings())
}

func TestParse_InvalidTOML(t *testing.T) {
	t.Parallel()

	_, err := Parse("/project", []byte("[tool.poetry\nname = 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Load(dir)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(samplePyproject), 0o644))
	p, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, p.Root())
	assert.False(t, p.IsLocked())

	require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte("# lock\n"), 0o644))
	assert.True(t, p.IsLocked())
	assert.Equal(t, filepath.Join(dir, LockFileName), p.LockPath())
}

func TestCanonicalizeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Django":          "django",
		"zope.interface":  "zope-interface",
		"Foo__Bar-.baz":   "foo-bar-baz",
		"  padded-name  ": "padded-name",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalizeName(in), "CanonicalizeName(%q)", in)
	}
}

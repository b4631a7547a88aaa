// SPDX-License-Identifier: MPL-2.0

// Package pyproject reads the parts of a Poetry project that drive an export:
// the declared dependency groups, their optionality, the extras, and the lock file.
package pyproject

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/poetrysam/poetrysam/internal/groups"
)

const (
	// FileName is the Poetry project manifest.
	FileName = "pyproject.toml"
	// LockFileName is the Poetry lock file.
	LockFileName = "poetry.lock"
	// ToolTable is the pyproject table holding poetrysam settings.
	ToolTable = "poetrysam"

	// legacyDevGroup is the group implied by [tool.poetry.dev-dependencies].
	legacyDevGroup = "dev"
)

// ErrNotFound is returned when the project directory has no pyproject.toml.
var ErrNotFound = errors.New("pyproject.toml not found")

var nameSeparators = regexp.MustCompile(`[-_.]+`)

type (
	// Project is a parsed Poetry project.
	Project struct {
		root string
		doc  document
	}

	document struct {
		Tool struct {
			Poetry    poetryTable    `toml:"poetry"`
			Poetrysam map[string]any `toml:"poetrysam"`
		} `toml:"tool"`
		Project struct {
			Name                 string              `toml:"name"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
	}

	poetryTable struct {
		Name            string                `toml:"name"`
		Dependencies    map[string]any        `toml:"dependencies"`
		DevDependencies map[string]any        `toml:"dev-dependencies"`
		Group           map[string]groupTable `toml:"group"`
		Extras          map[string][]string   `toml:"extras"`
	}

	groupTable struct {
		Optional     bool           `toml:"optional"`
		Dependencies map[string]any `toml:"dependencies"`
	}
)

// Load reads dir/pyproject.toml.
func Load(dir string) (*Project, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(dir, data)
}

// Parse decodes pyproject.toml content for a project rooted at root.
func Parse(root string, data []byte) (*Project, error) {
	p := &Project{root: root}
	if err := toml.Unmarshal(data, &p.doc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", FileName, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return p, nil
}

// Root returns the project directory.
func (p *Project) Root() string { return p.root }

// Name returns the project name from [tool.poetry] or, failing that, [project].
func (p *Project) Name() string {
	if p.doc.Tool.Poetry.Name != "" {
		return p.doc.Tool.Poetry.Name
	}
	return p.doc.Project.Name
}

// KnownGroups returns every dependency group the project declares. "main" is always known.
func (p *Project) KnownGroups() groups.Set {
	known := groups.NewSet(groups.MainGroup)
	for name := range p.doc.Tool.Poetry.Group {
		known[name] = struct{}{}
	}
	if p.doc.Tool.Poetry.DevDependencies != nil {
		known[legacyDevGroup] = struct{}{}
	}
	return known
}

// DefaultGroups returns the groups exported when no directive is given: "main"
// plus every group not declared optional. Without any group metadata this is
// just {"main"}.
func (p *Project) DefaultGroups() groups.Set {
	defaults := groups.NewSet(groups.MainGroup)
	for name, group := range p.doc.Tool.Poetry.Group {
		if !group.Optional {
			defaults[name] = struct{}{}
		}
	}
	if p.doc.Tool.Poetry.DevDependencies != nil {
		if group, ok := p.doc.Tool.Poetry.Group[legacyDevGroup]; !ok || !group.Optional {
			defaults[legacyDevGroup] = struct{}{}
		}
	}
	return defaults
}

// HasGroup reports whether the project declares the group.
func (p *Project) HasGroup(name string) bool {
	return p.KnownGroups().Has(name)
}

// Extras returns the canonical names of the declared extras, sorted.
func (p *Project) Extras() []string {
	var names []string
	for name := range p.doc.Tool.Poetry.Extras {
		names = append(names, CanonicalizeName(name))
	}
	for name := range p.doc.Project.OptionalDependencies {
		names = append(names, CanonicalizeName(name))
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// UnknownExtras returns the canonical names in requested that the project
// does not declare, sorted and de-duplicated.
func (p *Project) UnknownExtras(requested []string) []string {
	declared := p.Extras()
	var unknown []string
	for _, name := range requested {
		canonical := CanonicalizeName(name)
		if _, found := slices.BinarySearch(declared, canonical); !found {
			unknown = append(unknown, canonical)
		}
	}
	slices.Sort(unknown)
	return slices.Compact(unknown)
}

// LockPath returns the path of poetry.lock.
func (p *Project) LockPath() string {
	return filepath.Join(p.root, LockFileName)
}

// IsLocked reports whether poetry.lock exists.
func (p *Project) IsLocked() bool {
	info, err := os.Stat(p.LockPath())
	return err == nil && !info.IsDir()
}

// ToolSettings returns the raw [tool.poetrysam] table, or nil if absent.
func (p *Project) ToolSettings() map[string]any {
	return p.doc.Tool.Poetrysam
}

// CanonicalizeName normalizes a package or extra name the way Python packaging
// does: lower-case, with runs of "-", "_" and "." collapsed to a single "-".
func CanonicalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

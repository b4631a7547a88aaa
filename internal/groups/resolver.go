// SPDX-License-Identifier: MPL-2.0

package groups

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// DirectiveOnly selects exactly the listed groups.
	DirectiveOnly Directive = "only"
	// DirectiveWith adds the listed groups to the defaults.
	DirectiveWith Directive = "with"
	// DirectiveWithout removes the listed groups from the defaults.
	DirectiveWithout Directive = "without"

	// OnlyOverridesAdvisory is returned when --with/--without are combined with --only.
	OnlyOverridesAdvisory = "The --with and --without options are ignored when used along with the --only option."
)

// ErrUnknownGroup is the sentinel error wrapped by UnknownGroupError.
var ErrUnknownGroup = errors.New("group not found")

type (
	// Directive names one of the group selection options.
	Directive string

	// Directives is the user's group selection for one build.
	// Only is optional: nil means the option was not given at all, while a
	// non-nil empty set means it was given without any names.
	Directives struct {
		Only    *Set
		With    Set
		Without Set
	}

	// Resolution is the outcome of resolving directives.
	Resolution struct {
		// Groups is the set of groups to export.
		Groups Set
		// Advisories are non-fatal notices for the user. They never change Groups.
		Advisories []string
	}

	// UnknownGroupError lists every directive name that the project does not declare.
	// Missing maps each unknown group to the directives that referenced it.
	UnknownGroupError struct {
		Missing map[string][]Directive
	}
)

// OnlyGroups returns a pointer to a set built from names, for use as Directives.Only.
func OnlyGroups(names ...string) *Set {
	s := NewSet(names...)
	return &s
}

// IsEmpty reports whether no directive carries any name.
func (d Directives) IsEmpty() bool {
	return d.only().IsEmpty() && d.With.IsEmpty() && d.Without.IsEmpty()
}

func (d Directives) only() Set {
	if d.Only == nil {
		return nil
	}
	return *d.Only
}

// byDirective lists the directive sets in a fixed order.
func (d Directives) byDirective() []struct {
	name  Directive
	names Set
} {
	return []struct {
		name  Directive
		names Set
	}{
		{DirectiveOnly, d.only()},
		{DirectiveWith, d.With},
		{DirectiveWithout, d.Without},
	}
}

// Error implements the error interface.
func (e *UnknownGroupError) Error() string {
	groupNames := make([]string, 0, len(e.Missing))
	for name := range e.Missing {
		groupNames = append(groupNames, name)
	}
	slices.Sort(groupNames)

	parts := make([]string, 0, len(groupNames))
	for _, name := range groupNames {
		directives := slices.Clone(e.Missing[name])
		slices.Sort(directives)
		flags := make([]string, len(directives))
		for i, directive := range directives {
			flags[i] = "--" + string(directive)
		}
		parts = append(parts, fmt.Sprintf("%s (via %s)", name, strings.Join(flags, ", ")))
	}
	return "Group(s) not found: " + strings.Join(parts, ", ")
}

// Unwrap returns ErrUnknownGroup so callers can use errors.Is.
func (e *UnknownGroupError) Unwrap() error { return ErrUnknownGroup }

// Groups returns the unknown group names in lexical order.
func (e *UnknownGroupError) Groups() []string {
	names := make([]string, 0, len(e.Missing))
	for name := range e.Missing {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks every name of every directive against known.
// It does not stop at the first unknown name: the returned error covers all of them.
func Validate(d Directives, known Set) error {
	missing := make(map[string][]Directive)
	for _, entry := range d.byDirective() {
		for name := range entry.names {
			if !known.Has(name) {
				missing[name] = append(missing[name], entry.name)
			}
		}
	}
	if len(missing) > 0 {
		return &UnknownGroupError{Missing: missing}
	}
	return nil
}

// Resolve validates d against known and computes the active groups.
//
// A non-empty Only wins outright. Otherwise the result is
// (defaults ∪ With) − Without; the difference is applied last, so a group
// listed in both With and Without is excluded. An explicitly empty Only is
// treated as absent. The inputs are never modified.
func Resolve(d Directives, known, defaults Set) (Resolution, error) {
	if err := Validate(d, known); err != nil {
		return Resolution{}, err
	}

	if only := d.only(); !only.IsEmpty() {
		res := Resolution{Groups: only.Clone()}
		if !d.With.IsEmpty() || !d.Without.IsEmpty() {
			res.Advisories = append(res.Advisories, OnlyOverridesAdvisory)
		}
		return res, nil
	}

	return Resolution{Groups: defaults.Union(d.With).Difference(d.Without)}, nil
}

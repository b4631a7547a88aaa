// SPDX-License-Identifier: MPL-2.0

package groups

import (
	"errors"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	known := NewSet("main", "dev_check")

	tests := []struct {
		name           string
		directives     Directives
		defaults       Set
		want           Set
		wantAdvisories int
	}{
		{
			name:       "no directives returns defaults unchanged",
			directives: Directives{},
			defaults:   NewSet("dev_check", "main"),
			want:       NewSet("dev_check", "main"),
		},
		{
			name:       "only selects exactly the listed groups",
			directives: Directives{Only: OnlyGroups("main")},
			defaults:   NewSet("main", "dev_check"),
			want:       NewSet("main"),
		},
		{
			name:       "with adds to defaults",
			directives: Directives{With: NewSet("dev_check")},
			defaults:   NewSet("main"),
			want:       NewSet("main", "dev_check"),
		},
		{
			name:       "without removes a default group",
			directives: Directives{Without: NewSet("dev_check")},
			defaults:   NewSet("main", "dev_check"),
			want:       NewSet("main"),
		},
		{
			name:       "without main leaves the other defaults",
			directives: Directives{Without: NewSet("main")},
			defaults:   NewSet("dev_check", "main"),
			want:       NewSet("dev_check"),
		},
		{
			name:       "without main on main-only defaults yields nothing",
			directives: Directives{Without: NewSet("main")},
			defaults:   NewSet("main"),
			want:       NewSet(),
		},
		{
			name:       "group in both with and without is excluded",
			directives: Directives{With: NewSet("dev_check"), Without: NewSet("dev_check")},
			defaults:   NewSet("main"),
			want:       NewSet("main"),
		},
		{
			name:           "only ignores with and without but advises",
			directives:     Directives{Only: OnlyGroups("dev_check"), With: NewSet("main"), Without: NewSet("dev_check")},
			defaults:       NewSet("main"),
			want:           NewSet("dev_check"),
			wantAdvisories: 1,
		},
		{
			name:       "explicit empty only falls through to with and without",
			directives: Directives{Only: OnlyGroups(), With: NewSet("dev_check")},
			defaults:   NewSet("main"),
			want:       NewSet("main", "dev_check"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.directives, known, tt.defaults)
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if !got.Groups.Equal(tt.want) {
				t.Errorf("Resolve() groups = %v, want %v", got.Groups, tt.want)
			}
			if len(got.Advisories) != tt.wantAdvisories {
				t.Errorf("Resolve() advisories = %v, want %d", got.Advisories, tt.wantAdvisories)
			}
		})
	}
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	known := NewSet("main", "dev", "docs")
	defaults := NewSet("main")
	only := NewSet("docs")
	with := NewSet("dev")
	without := NewSet("main")

	res, err := Resolve(Directives{With: with, Without: without}, known, defaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res.Groups["extra"] = struct{}{}

	if !defaults.Equal(NewSet("main")) {
		t.Errorf("defaults mutated: %v", defaults)
	}
	if !with.Equal(NewSet("dev")) || !without.Equal(NewSet("main")) {
		t.Errorf("directives mutated: with=%v without=%v", with, without)
	}

	res, err = Resolve(Directives{Only: &only}, known, defaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res.Groups["extra"] = struct{}{}
	if !only.Equal(NewSet("docs")) {
		t.Errorf("only mutated: %v", only)
	}
}

func TestResolve_UnknownGroups(t *testing.T) {
	t.Parallel()

	known := NewSet("main", "dev")
	d := Directives{
		Only:    OnlyGroups("docs", "main"),
		With:    NewSet("lint", "dev"),
		Without: NewSet("lint", "typo"),
	}

	_, err := Resolve(d, known, NewSet("main"))
	if err == nil {
		t.Fatal("expected error for unknown groups")
	}
	if !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("errors.Is(err, ErrUnknownGroup) = false, err = %v", err)
	}

	var unknownErr *UnknownGroupError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected *UnknownGroupError, got %T", err)
	}

	wantGroups := []string{"docs", "lint", "typo"}
	gotGroups := unknownErr.Groups()
	if strings.Join(gotGroups, ",") != strings.Join(wantGroups, ",") {
		t.Errorf("Groups() = %v, want %v", gotGroups, wantGroups)
	}

	want := "Group(s) not found: docs (via --only), lint (via --with, --without), typo (via --without)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidate_AcceptsKnownGroups(t *testing.T) {
	t.Parallel()

	known := NewSet("main", "dev")
	if err := Validate(Directives{Only: OnlyGroups("main"), With: NewSet("dev"), Without: NewSet("dev")}, known); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
	if err := Validate(Directives{}, known); err != nil {
		t.Errorf("Validate() with empty directives unexpected error: %v", err)
	}
}

func TestDirectives_IsEmpty(t *testing.T) {
	t.Parallel()

	if !(Directives{}).IsEmpty() {
		t.Error("zero Directives should be empty")
	}
	if !(Directives{Only: OnlyGroups()}).IsEmpty() {
		t.Error("explicit empty only should count as empty")
	}
	if (Directives{Without: NewSet("dev")}).IsEmpty() {
		t.Error("directives with a without group should not be empty")
	}
}

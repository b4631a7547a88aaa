// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	// PyprojectNotFoundId is raised when no pyproject.toml exists in the project root.
	PyprojectNotFoundId Id = iota + 1
	// UnknownGroupId is raised when a group directive names an undeclared group.
	UnknownGroupId
	// TemplateNotFoundId is raised when the SAM template file is missing.
	TemplateNotFoundId
	// TemplateShapeId is raised when a function uses an unsupported Handler or CodeUri form.
	TemplateShapeId
	// SamBuildFailedId is raised when `sam build` exits non-zero.
	SamBuildFailedId
	// ExportFailedId is raised when `poetry export` or `poetry lock` exits non-zero.
	ExportFailedId
	// InstallFailedId is raised when `pip install` exits non-zero.
	InstallFailedId
	// ToolNotFoundId is raised when an external executable cannot be started.
	ToolNotFoundId
	// ConfigLoadFailedId is raised when the project configuration is invalid.
	ConfigLoadFailedId
)

type (
	// Id identifies a catalogued issue. The zero value means "no issue".
	Id int

	// MarkdownMsg is Markdown guidance shown to the user.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is long-form guidance for one class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

var (
	render = glamour.Render

	pyprojectNotFoundIssue = &Issue{
		id: PyprojectNotFoundId,
		mdMsg: `
# No pyproject.toml found!

poetrysam reads dependency groups from the Poetry project in the build root.

## Things you can try:
- Run poetrysam from the directory holding pyproject.toml and template.yml
- Or point at it explicitly:
~~~
$ poetrysam --root path/to/project
~~~`,
		docLinks: []HttpLink{"https://python-poetry.org/docs/pyproject/"},
	}

	unknownGroupIssue = &Issue{
		id: UnknownGroupId,
		mdMsg: `
# Unknown dependency group!

Every name given to --only, --with or --without must be declared in pyproject.toml.

## Things you can try:
- List the groups poetrysam sees:
~~~
$ poetrysam groups
~~~
- Declare the group:
~~~toml
[tool.poetry.group.dev.dependencies]
pytest = "^8.0"
~~~`,
		docLinks: []HttpLink{"https://python-poetry.org/docs/managing-dependencies/#dependency-groups"},
	}

	templateNotFoundIssue = &Issue{
		id: TemplateNotFoundId,
		mdMsg: `
# SAM template not found!

## Things you can try:
- Check the template name (default: template.yml)
~~~
$ poetrysam --template_name template.yaml
~~~`,
	}

	templateShapeIssue = &Issue{
		id: TemplateShapeId,
		mdMsg: `
# Unsupported Handler or CodeUri!

Only plain string values are supported for the Handler and CodeUri of Python
functions. Intrinsic functions such as !Sub, !Ref or Fn::Join are not supported yet.

## Things you can try:
- Replace the intrinsic with a literal string:
~~~yaml
Handler: src/app.handler
~~~`,
		docLinks: []HttpLink{"https://docs.aws.amazon.com/serverless-application-model/latest/developerguide/sam-resource-function.html"},
	}

	samBuildFailedIssue = &Issue{
		id: SamBuildFailedId,
		mdMsg: `
# SAM build failed!

The packaging CLI returned a non-zero exit status. Its error output is shown above.

## Things you can try:
- Run the same build by hand to see the full log:
~~~
$ sam build --template template.yml --build-dir .aws-sam/build
~~~
- Check that the sam executable is on PATH, or pass --sam-exec`,
		docLinks: []HttpLink{"https://docs.aws.amazon.com/serverless-application-model/latest/developerguide/sam-cli-command-reference-sam-build.html"},
	}

	exportFailedIssue = &Issue{
		id: ExportFailedId,
		mdMsg: `
# Lock export failed!

## Things you can try:
- Make sure the export plugin is installed:
~~~
$ poetry self add poetry-plugin-export
~~~
- Refresh the lock file:
~~~
$ poetry lock
~~~`,
		docLinks: []HttpLink{"https://github.com/python-poetry/poetry-plugin-export"},
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Dependency install failed!

pip could not install the exported requirements into the function build directory.

## Things you can try:
- Check the generated requirements file next to the function sources
- Pick the interpreter matching the function runtime with --python-exec`,
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# External tool not available!

poetrysam shells out to sam, poetry and python.

## Things you can try:
- Install the missing tool and make sure it is on PATH
- Or configure its location with --sam-exec, --poetry-exec or --python-exec`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded!

## Things you can try:
- Check poetrysam.cue for CUE syntax errors
- Check the [tool.poetrysam] table in pyproject.toml
- Inspect the effective configuration:
~~~
$ poetrysam config show
~~~`,
	}

	issues = map[Id]*Issue{
		pyprojectNotFoundIssue.Id(): pyprojectNotFoundIssue,
		unknownGroupIssue.Id():      unknownGroupIssue,
		templateNotFoundIssue.Id():  templateNotFoundIssue,
		templateShapeIssue.Id():     templateShapeIssue,
		samBuildFailedIssue.Id():    samBuildFailedIssue,
		exportFailedIssue.Id():      exportFailedIssue,
		installFailedIssue.Id():     installFailedIssue,
		toolNotFoundIssue.Id():      toolNotFoundIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Markdown returns the guidance with a "See also" section for the doc links.
func (i *Issue) Markdown() string {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			md.WriteString("- <")
			md.WriteString(string(link))
			md.WriteString(">\n")
		}
	}
	return md.String()
}

// Render renders the guidance for the terminal using the given glamour style
// ("dark", "light", "notty", "auto" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	ids := make([]Id, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the issue for id, or nil if there is none.
func Get(id Id) *Issue {
	return issues[id]
}

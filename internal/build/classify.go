// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"fmt"

	"github.com/poetrysam/poetrysam/internal/export"
	"github.com/poetrysam/poetrysam/internal/groups"
	"github.com/poetrysam/poetrysam/internal/issue"
	"github.com/poetrysam/poetrysam/internal/pyproject"
	"github.com/poetrysam/poetrysam/internal/sam"
	"github.com/poetrysam/poetrysam/internal/toolrun"
)

// classify wraps err in an ActionableError linked to the matching issue.
// toolIssue is used when an external tool exited non-zero.
func classify(err error, operation, resource string, toolIssue issue.Id) error {
	ec := issue.NewErrorContext().WithOperation(operation).WithResource(resource).Wrap(err)

	var (
		unknownGroup *groups.UnknownGroupError
		shape        *sam.TemplateShapeError
		failure      *toolrun.ToolFailureError
	)
	switch {
	case errors.Is(err, pyproject.ErrNotFound):
		ec.WithIssue(issue.PyprojectNotFoundId).
			WithSuggestion("Run poetrysam from the project directory or pass --root")
	case errors.As(err, &unknownGroup):
		ec.WithIssue(issue.UnknownGroupId).
			WithSuggestion("Run 'poetrysam groups' to list the declared groups")
	case errors.Is(err, sam.ErrTemplateNotFound):
		ec.WithIssue(issue.TemplateNotFoundId).
			WithSuggestion("Pass the template location with --template_name")
	case errors.As(err, &shape):
		ec.WithIssue(issue.TemplateShapeId).
			WithSuggestion(fmt.Sprintf("Use a literal string for %s of %s", shape.Property, shape.Function))
	case errors.Is(err, toolrun.ErrToolNotFound):
		ec.WithIssue(issue.ToolNotFoundId).
			WithSuggestion("Install the tool or set --sam-exec, --poetry-exec or --python-exec")
	case errors.Is(err, export.ErrUnknownExtras), errors.Is(err, export.ErrConflictingExtras),
		errors.Is(err, export.ErrUnsupportedFormat):
		ec.WithIssue(issue.ExportFailedId)
	case errors.As(err, &failure):
		ec.WithIssue(toolIssue)
	}

	return ec.BuildError()
}

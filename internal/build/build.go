// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/poetrysam/poetrysam/internal/config"
	"github.com/poetrysam/poetrysam/internal/export"
	"github.com/poetrysam/poetrysam/internal/groups"
	"github.com/poetrysam/poetrysam/internal/issue"
	"github.com/poetrysam/poetrysam/internal/pyproject"
	"github.com/poetrysam/poetrysam/internal/sam"
	"github.com/poetrysam/poetrysam/internal/toolrun"
)

// User-facing progress messages.
const (
	MsgBuilding        = "Building lambda functions ..."
	MsgSamBuildFailed  = "SAM build failed!"
	MsgBuildSuccessful = "Build successful"
	MsgFunctionDone    = "success"
)

type (
	// Reporter receives progress output. Implementations decide how to render it.
	Reporter interface {
		Waiting(msg string)
		Info(msg string)
		Success(msg string)
		Warning(msg string)
		Error(msg string)
		Debug(msg string, keyvals ...any)
	}

	// Request describes one build.
	Request struct {
		// Root is the project directory holding pyproject.toml.
		Root string
		// Config is the effective configuration; nil means config.DefaultConfig().
		Config *config.Config
	}

	// Plan is everything a build decides before running any external tool.
	Plan struct {
		Project      *pyproject.Project
		Resolution   groups.Resolution
		Template     *sam.Template
		TemplatePath string
		BuildDir     string
		Export       export.Options
		SamParams    []string
	}

	// FunctionResult records the files produced for one function.
	FunctionResult struct {
		Function     sam.Function
		Requirements string
		Target       string
	}

	// Result summarizes a successful build.
	Result struct {
		// RunID tags the debug output of one build.
		RunID     string
		Plan      *Plan
		Functions []FunctionResult
	}

	// Builder runs builds through a toolrun.Runner.
	Builder struct {
		runner   toolrun.Runner
		reporter Reporter
	}
)

// New creates a Builder.
func New(runner toolrun.Runner, reporter Reporter) *Builder {
	return &Builder{runner: runner, reporter: reporter}
}

// ResolveGroups loads the project and resolves the configured group
// directives against it. Failures are classified like those of Prepare.
func ResolveGroups(req Request) (*pyproject.Project, groups.Resolution, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	project, err := pyproject.Load(req.Root)
	if err != nil {
		return nil, groups.Resolution{}, classify(err, "load project", filepath.Join(req.Root, pyproject.FileName), 0)
	}

	resolution, err := groups.Resolve(cfg.Directives(), project.KnownGroups(), project.DefaultGroups())
	if err != nil {
		return nil, groups.Resolution{}, classify(err, "resolve dependency groups", "", 0)
	}
	return project, resolution, nil
}

// Prepare loads the project, resolves the dependency groups, parses the
// template and validates the export options. It runs no external tool, so an
// unknown group or a malformed template is reported before anything is built.
func Prepare(req Request) (*Plan, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	project, resolution, err := ResolveGroups(Request{Root: req.Root, Config: cfg})
	if err != nil {
		return nil, err
	}

	templatePath := resolvePath(req.Root, cfg.TemplateName)
	tmpl, err := sam.ParseTemplateFile(templatePath)
	if err != nil {
		return nil, classify(err, "parse SAM template", templatePath, 0)
	}

	params, err := sam.ParseParams(cfg.SamParams)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse sam parameters").
			WithSuggestion("Quote values containing spaces, e.g. --sam-params '--parameter-overrides \"Stage=dev\"'").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	plan := &Plan{
		Project:      project,
		Resolution:   resolution,
		Template:     tmpl,
		TemplatePath: templatePath,
		BuildDir:     resolvePath(req.Root, cfg.BuildDir),
		SamParams:    params,
		Export: export.Options{
			Groups:          resolution.Groups,
			Extras:          cfg.Extras,
			AllExtras:       cfg.AllExtras,
			WithHashes:      !cfg.WithoutHashes,
			WithCredentials: cfg.WithCredentials,
			WithURLs:        !cfg.WithoutURLs,
			Format:          cfg.RequirementsFormat,
		},
	}
	if err := plan.Export.Validate(project); err != nil {
		return nil, classify(err, "validate export options", "", 0)
	}
	return plan, nil
}

// Build prepares and runs a build.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	plan, err := Prepare(Request{Root: req.Root, Config: cfg})
	if err != nil {
		return nil, err
	}
	for _, advisory := range plan.Resolution.Advisories {
		b.reporter.Warning(advisory)
	}
	runID := "build_" + uuid.New().String()[:8]
	b.reporter.Debug("resolved groups", "run", runID, "groups", plan.Resolution.Groups.String())

	b.reporter.Waiting(MsgBuilding)
	if err := b.samBuild(ctx, plan, cfg.SamExec); err != nil {
		return nil, err
	}

	exporter := export.New(b.runner, b.reporter, cfg.PoetryExec, export.WithVerbose(cfg.Verbose))
	result := &Result{RunID: runID, Plan: plan}
	for _, fn := range plan.Template.PythonFunctions() {
		b.reporter.Info(fn.Name + " ...")
		fr, err := b.buildFunction(ctx, plan, exporter, cfg.PythonExec, fn)
		if err != nil {
			return nil, err
		}
		result.Functions = append(result.Functions, fr)
		b.reporter.Success(MsgFunctionDone)
	}

	b.reporter.Success(MsgBuildSuccessful)
	return result, nil
}

func (b *Builder) samBuild(ctx context.Context, plan *Plan, samExec string) error {
	inv := sam.CLI{Executable: samExec}.BuildInvocation(plan.TemplatePath, plan.BuildDir, plan.SamParams)
	inv.Dir = plan.Project.Root()

	if err := b.run(ctx, inv); err != nil {
		var failure *toolrun.ToolFailureError
		if errors.As(err, &failure) {
			if failure.Stderr != "" {
				b.reporter.Error(failure.Stderr)
			}
			b.reporter.Error(MsgSamBuildFailed)
		}
		return classify(err, "run sam build", plan.TemplatePath, issue.SamBuildFailedId)
	}
	return nil
}

func (b *Builder) buildFunction(ctx context.Context, plan *Plan, exporter *export.Exporter, pythonExec string, fn sam.Function) (FunctionResult, error) {
	functionDir := filepath.Join(plan.BuildDir, fn.Name)
	target := filepath.Join(functionDir, fn.SourcePath())
	if err := os.MkdirAll(target, 0o755); err != nil {
		return FunctionResult{}, issue.WrapWithOperation(err, "create function build directory")
	}

	opts := plan.Export
	opts.Output = filepath.Join(target, exportFileName(opts.Format))
	if err := exporter.Export(ctx, plan.Project, opts); err != nil {
		return FunctionResult{}, classify(err, "export dependencies for "+fn.Name, opts.Output, issue.ExportFailedId)
	}

	if opts.Groups.IsEmpty() {
		b.reporter.Debug("no dependency groups selected, skipping pip install", "function", fn.Name)
		return FunctionResult{Function: fn, Requirements: opts.Output, Target: functionDir}, nil
	}

	inv := PipInstallInvocation(pythonExec, opts.Output, functionDir)
	inv.Dir = plan.Project.Root()
	if err := b.run(ctx, inv); err != nil {
		return FunctionResult{}, classify(err, "install dependencies for "+fn.Name, functionDir, issue.InstallFailedId)
	}

	return FunctionResult{Function: fn, Requirements: opts.Output, Target: functionDir}, nil
}

func (b *Builder) run(ctx context.Context, inv toolrun.Invocation) error {
	b.reporter.Debug("running", "cmd", inv.String())
	res, err := b.runner.Run(ctx, inv)
	if err != nil {
		return err
	}
	return toolrun.Check(inv, res)
}

// PipInstallInvocation returns the pip call that installs requirements into target.
func PipInstallInvocation(pythonExec, requirements, target string) toolrun.Invocation {
	if pythonExec == "" {
		pythonExec = config.DefaultConfig().PythonExec
	}
	return toolrun.Invocation{
		Name: pythonExec,
		Args: []string{
			"-m", "pip", "install",
			"--upgrade",
			"--disable-pip-version-check",
			"--no-python-version-warning",
			"-r", requirements,
			"-t", target,
		},
	}
}

func exportFileName(format string) string {
	if format == "" {
		return export.FormatRequirements
	}
	return format
}

// resolvePath anchors a relative path at the project root.
func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// String summarizes a plan for debug output.
func (p *Plan) String() string {
	return fmt.Sprintf("groups=%s template=%s build_dir=%s functions=%d",
		p.Resolution.Groups, p.TemplatePath, p.BuildDir, len(p.Template.PythonFunctions()))
}

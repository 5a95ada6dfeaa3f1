package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/triggergrid/internal/config"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/fsutil"
)

// Extension is the file extension handled by this loader.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

type parsedFile struct {
	path string
	root fileRoot
}

// Load parses every .hcl file under paths. Parameters are collected from all
// files first, so any file may use any parameter.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	parsed := make([]parsedFile, 0, len(files))
	params := make(map[string]string)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		// Parameters may only use functions and literals, not other parameters.
		fileParams, diags := evalStringMap(ctx, root.Params, "params", newEvalContext(nil))
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate params in %s: %w", file, diags)
		}
		for k, v := range fileParams {
			if old, ok := params[k]; ok && old != v {
				return nil, fmt.Errorf("parameter '%s' in %s conflicts with an earlier definition", k, file)
			}
			params[k] = v
		}
		parsed = append(parsed, parsedFile{path: file, root: root})
	}

	model := config.NewModel()
	model.Params = params
	evalCtx := newEvalContext(params)

	for _, pf := range parsed {
		if err := l.translate(ctx, pf, evalCtx, model); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "params", len(model.Params), "templates", len(model.Templates), "scenarios", len(model.Scenarios), "triggers", len(model.Triggers))
	return model, nil
}

// translate converts the decoded blocks of one file and adds them to model.
func (l *Loader) translate(ctx context.Context, pf parsedFile, evalCtx *hcl.EvalContext, model *config.Model) error {
	for _, t := range pf.root.Templates {
		if prev, ok := model.Templates[t.Name]; ok {
			return fmt.Errorf("template '%s' at %s is already defined at %s", t.Name, t.DeclRange, prev.Source)
		}
		cfg, diags := evalStringMap(ctx, t.Config, "config", evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("failed to evaluate template '%s' in %s: %w", t.Name, pf.path, diags)
		}
		model.Templates[t.Name] = &config.Template{
			Name:         t.Name,
			Config:       cfg,
			Requirements: translateRequirements(t.Requirements),
			Source:       t.DeclRange.String(),
		}
	}

	for _, s := range pf.root.Scenarios {
		cfg, diags := evalStringMap(ctx, s.Config, "config", evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("failed to evaluate scenario '%s' in %s: %w", s.ID, pf.path, diags)
		}
		model.Scenarios = append(model.Scenarios, &config.Scenario{
			ID:           s.ID,
			Templates:    s.Templates,
			Config:       cfg,
			Requirements: translateRequirements(s.Requirements),
			Source:       s.DeclRange.String(),
		})
	}

	for _, t := range pf.root.Triggers {
		model.Triggers = append(model.Triggers, &config.Trigger{
			Name:          t.Name,
			Scenarios:     t.Scenarios,
			Predecessor:   t.Predecessor,
			FailurePolicy: t.FailurePolicy,
			Source:        t.DeclRange.String(),
		})
	}
	return nil
}

func translateRequirements(blocks []*requirementBlock) []*config.Requirement {
	out := make([]*config.Requirement, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, &config.Requirement{
			Property:  b.Property,
			Condition: b.Condition,
			Value:     b.Value,
		})
	}
	return out
}

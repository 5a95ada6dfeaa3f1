package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/triggergrid/internal/config"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Extensions are the file extensions handled by this loader.
var Extensions = []string{".yaml", ".yml"}

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every YAML file under paths and merges them into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.CollectFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	model := config.NewModel()
	for _, file := range files {
		m, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	return model, nil
}

func loadFile(file string) (*config.Model, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	model := config.NewModel()
	for n := 0; ; n++ {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML file %s: %w", file, err)
		}
		if err := model.Merge(translate(file, n, &doc)); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	return model, nil
}

// translate converts document n of file. Sources point at the list entry,
// since the typed decoder does not keep line numbers.
func translate(file string, n int, doc *document) *config.Model {
	m := config.NewModel()
	m.Params = toStrings(doc.Params)

	for name, t := range doc.Templates {
		m.Templates[name] = &config.Template{
			Name:         name,
			Config:       toStrings(t.Config),
			Requirements: translateRequirements(t.Requirements),
			Source:       fmt.Sprintf("%s#%d: templates.%s", file, n, name),
		}
	}
	for i, s := range doc.Scenarios {
		m.Scenarios = append(m.Scenarios, &config.Scenario{
			ID:           s.ID,
			Templates:    s.Templates,
			Config:       toStrings(s.Config),
			Requirements: translateRequirements(s.Requirements),
			Source:       fmt.Sprintf("%s#%d: scenarios[%d]", file, n, i),
		})
	}
	for i, t := range doc.Triggers {
		m.Triggers = append(m.Triggers, &config.Trigger{
			Name:          t.Name,
			Scenarios:     t.Scenarios,
			Predecessor:   t.Predecessor,
			FailurePolicy: t.FailurePolicy,
			Source:        fmt.Sprintf("%s#%d: triggers[%d]", file, n, i),
		})
	}
	return m
}

func translateRequirements(docs []requirementDoc) []*config.Requirement {
	out := make([]*config.Requirement, 0, len(docs))
	for _, d := range docs {
		out = append(out, &config.Requirement{
			Property:  d.Property,
			Condition: d.Condition,
			Value:     d.Value,
		})
	}
	return out
}

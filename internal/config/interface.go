package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/fsutil"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every given file or directory, translates it into the
	// format-agnostic model and merges the result in path order.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Dispatcher is a Loader that routes each file to the loader registered for
// its extension, so one pipeline may be split across formats.
type Dispatcher struct {
	loaders map[string]Loader
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{loaders: make(map[string]Loader)}
}

// Register routes files with any of the given extensions (".hcl") to l.
func (d *Dispatcher) Register(l Loader, extensions ...string) {
	for _, ext := range extensions {
		d.loaders[strings.ToLower(ext)] = l
	}
}

// Extensions returns the registered extensions, sorted.
func (d *Dispatcher) Extensions() []string {
	exts := make([]string, 0, len(d.loaders))
	for ext := range d.loaders {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Load implements Loader.
func (d *Dispatcher) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	exts := d.Extensions()
	if len(exts) == 0 {
		return nil, fmt.Errorf("no configuration loaders registered")
	}

	files, err := fsutil.CollectFiles(paths, exts...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no pipeline files found in %s (supported: %s)", strings.Join(paths, ", "), strings.Join(exts, ", "))
	}
	logger.Debug("Discovered pipeline files.", "count", len(files))

	model := NewModel()
	for _, file := range files {
		l, ok := d.loaders[strings.ToLower(filepath.Ext(file))]
		if !ok {
			return nil, fmt.Errorf("unsupported pipeline file %s (supported: %s)", file, strings.Join(exts, ", "))
		}
		m, err := l.Load(ctx, file)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, err
		}
	}
	return model, nil
}

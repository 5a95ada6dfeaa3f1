package app

import (
	"github.com/specialistvlad/triggergrid/internal/config"
	"github.com/specialistvlad/triggergrid/internal/hclconfig"
	"github.com/specialistvlad/triggergrid/internal/yamlconfig"
)

// NewLoader returns the loader for every pipeline file format compiled into
// the binary.
func NewLoader() config.Loader {
	d := config.NewDispatcher()
	d.Register(hclconfig.NewLoader(), hclconfig.Extension)
	d.Register(yamlconfig.NewLoader(), yamlconfig.Extensions...)
	return d
}

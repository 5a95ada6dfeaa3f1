// Package config defines the format-agnostic pipeline definition model,
// along with the Loader interface implemented by the format-specific
// packages (hclconfig, yamlconfig).
//
// A Model is a raw declaration: templates are not applied and parameter
// references are not resolved. Declarations does both and produces the
// inputs of topology.Build.
package config

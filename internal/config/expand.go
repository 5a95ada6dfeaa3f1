package config

import (
	"fmt"
	"strings"
)

const maxExpandDepth = 16

// Lookup resolves a parameter name.
type Lookup func(name string) (string, bool)

// Expand replaces %name% references in s using lookup. Values are expanded
// again, so parameters may reference other parameters. "%%" stands for a
// literal percent sign and a lone "%" is kept as is.
func Expand(s string, lookup Lookup) (string, error) {
	return expand(s, lookup, nil)
}

func expand(s string, lookup Lookup, stack []string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}
	if len(stack) > maxExpandDepth {
		return "", fmt.Errorf("parameter references nested too deeply: %s", strings.Join(stack, " -> "))
	}

	var b strings.Builder
	for {
		start := strings.IndexByte(s, '%')
		if start < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:start])
		rest := s[start+1:]
		end := strings.IndexByte(rest, '%')
		if end < 0 {
			b.WriteString(s[start:])
			break
		}
		name := rest[:end]
		s = rest[end+1:]

		if name == "" {
			b.WriteByte('%')
			continue
		}
		for _, seen := range stack {
			if seen == name {
				return "", fmt.Errorf("parameter reference cycle: %s -> %s", strings.Join(stack, " -> "), name)
			}
		}
		value, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("unknown parameter reference %%%s%%", name)
		}
		resolved, err := expand(value, lookup, append(stack, name))
		if err != nil {
			return "", err
		}
		b.WriteString(resolved)
	}
	return b.String(), nil
}

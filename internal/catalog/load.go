package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mcpqa/internal/harness"
)

// fileCase is one catalog entry in YAML form. Resolve and Extract name
// registered capabilities; see resolvers and extractors for the sets.
type fileCase struct {
	Name     string                 `yaml:"name"`
	Scenario string                 `yaml:"scenario"`
	Args     map[string]interface{} `yaml:"args"`
	Resolve  string                 `yaml:"resolve"`
	Extract  string                 `yaml:"extract"`
}

type catalogFile struct {
	Tools []fileCase `yaml:"tools"`
}

// Load reads a YAML catalog and binds its capability names. Unknown
// capability names, duplicate tools, and empty tool names are errors.
func Load(path string) ([]harness.ToolCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(file.Tools) == 0 {
		return nil, fmt.Errorf("catalog %s lists no tools", path)
	}

	seen := make(map[string]bool, len(file.Tools))
	cases := make([]harness.ToolCase, 0, len(file.Tools))
	for i, fc := range file.Tools {
		if fc.Name == "" {
			return nil, fmt.Errorf("catalog %s: tool #%d has no name", path, i+1)
		}
		if seen[fc.Name] {
			return nil, fmt.Errorf("catalog %s: duplicate tool %s", path, fc.Name)
		}
		seen[fc.Name] = true

		tc := harness.ToolCase{Name: fc.Name, Scenario: fc.Scenario, Args: fc.Args}
		if tc.Args == nil {
			tc.Args = map[string]interface{}{}
		}
		if fc.Resolve != "" {
			fn, ok := resolvers[fc.Resolve]
			if !ok {
				return nil, fmt.Errorf("catalog %s: tool %s references unknown resolver %q", path, fc.Name, fc.Resolve)
			}
			tc.Resolve = fn
		}
		if fc.Extract != "" {
			fn, ok := extractors[fc.Extract]
			if !ok {
				return nil, fmt.Errorf("catalog %s: tool %s references unknown extractor %q", path, fc.Name, fc.Extract)
			}
			tc.Extract = fn
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

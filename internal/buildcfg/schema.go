package buildcfg

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema returns the JSON Schema for the build configuration document.
func Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":       {Type: "string", Description: "Declared project name"},
			"folder":     {Type: "string", Description: "Project root directory"},
			"language":   {Type: "string", Description: "Governing dialect tag"},
			"top_module": {Type: "string", Description: "Synthesis entry point"},
			"source_files": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"generated_files": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"interfaces": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":      {Type: "string"},
						"direction": {Type: "string", Enum: []any{"in", "out", "inout"}},
						"width":     {Type: "string"},
					},
					Required: []string{"name", "direction"},
				},
			},
			"repository":   {Type: "string", Description: "Origin URL"},
			"is_simulable": {Type: "boolean"},
			"diagnostic":   {Type: "string", Description: "Degradation reason"},
		},
		Required: []string{"name", "folder", "language", "top_module", "source_files", "is_simulable"},
	}
}

// Validate checks a raw configuration document against the schema.
func Validate(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	resolved, err := Schema().Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolving schema: %w", err)
	}
	if err := resolved.Validate(doc); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}

package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of the snapshot document, indented.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(&Document{})
	if schema == nil {
		return nil, fmt.Errorf("failed to reflect snapshot schema")
	}
	schema.Title = "extvars snapshot"
	schema.Description = "Shadow variable registry exported by extvars."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot schema: %w", err)
	}
	return append(data, '\n'), nil
}

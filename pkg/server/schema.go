package server

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// graphPayloadSchema describes the shape of types.GraphPayload at the
// JSON level: the structural checks graph.Validate cannot make, since
// it only ever sees an already-unmarshaled []types.Node/[]types.Edge.
const graphPayloadSchema = `{
	"type": "object",
	"required": ["nodes", "edges"],
	"properties": {
		"workflow_id": {"type": "string"},
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "role"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"role": {"type": "string"},
					"prompt": {"type": "string"}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "source", "target"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"source": {"type": "string", "minLength": 1},
					"target": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var graphPayloadSchemaLoader = gojsonschema.NewStringLoader(graphPayloadSchema)

// validateGraphPayloadJSON runs a JSON-schema structural check over the
// raw request body, ahead of unmarshaling into types.GraphPayload: it
// catches malformed requests (missing id, wrong field types) with a
// field-level error list, something graph.Validate's semantic checks
// (cycles, dangling edges) never see.
func validateGraphPayloadJSON(body []byte) ([]string, error) {
	result, err := gojsonschema.Validate(graphPayloadSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("schema: validate payload: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}

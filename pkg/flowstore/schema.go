package flowstore

import (
	"fmt"
	"strings"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/xeipuuv/gojsonschema"
)

// Flow set nodes must carry an id and a type; flow nodes may omit the id,
// which is then generated.
var (
	flowSetSchema = map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []any{"id", "type"},
			"properties": map[string]any{
				"id":   map[string]any{"type": "string", "minLength": 1},
				"type": map[string]any{"type": "string", "minLength": 1},
				"z":    map[string]any{"type": "string"},
			},
		},
	}

	flowNodesSchema = map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []any{"type"},
			"properties": map[string]any{
				"id":   map[string]any{"type": "string"},
				"type": map[string]any{"type": "string", "minLength": 1},
			},
		},
	}
)

type schemaValidator struct {
	flowSet   *gojsonschema.Schema
	flowNodes *gojsonschema.Schema
}

func newSchemaValidator() (*schemaValidator, error) {
	flowSet, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(flowSetSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile flow set schema: %w", err)
	}

	flowNodes, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(flowNodesSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile flow nodes schema: %w", err)
	}

	return &schemaValidator{
		flowSet:   flowSet,
		flowNodes: flowNodes,
	}, nil
}

func (v *schemaValidator) validateFlowSet(op string, nodes []models.NodeConfig) error {
	return validate(op, v.flowSet, nodes)
}

func (v *schemaValidator) validateFlowNodes(op string, nodes []models.NodeConfig) error {
	return validate(op, v.flowNodes, nodes)
}

func validate(op string, schema *gojsonschema.Schema, nodes []models.NodeConfig) error {
	if nodes == nil {
		nodes = []models.NodeConfig{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(nodes))
	if err != nil {
		return persistence.NewValidationError(op, persistence.CodeInvalidNode, err.Error())
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return persistence.NewValidationError(op, persistence.CodeInvalidNode,
			"validation errors: "+strings.Join(errors, "; "))
	}

	return nil
}

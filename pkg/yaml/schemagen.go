package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator produces a JSON schema from a Go value using
// [github.com/invopop/jsonschema]. Doc comments from the given packages are
// included as schema descriptions.
type SchemaGenerator struct {
	value       any
	commentBase string
	commentPath string
}

// NewSchemaGenerator creates a [SchemaGenerator] for the given value.
// commentBase is the module import path and commentPath the filesystem path
// of the module root, used to resolve Go doc comments.
func NewSchemaGenerator(value any, commentBase, commentPath string) *SchemaGenerator {
	return &SchemaGenerator{
		value:       value,
		commentBase: commentBase,
		commentPath: commentPath,
	}
}

// Generate reflects the value into a JSON schema document.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{}

	err := r.AddGoComments(g.commentBase, g.commentPath)
	if err != nil {
		return nil, fmt.Errorf("add go comments: %w", err)
	}

	jss := r.Reflect(g.value)

	data, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}

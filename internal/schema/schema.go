// Package schema renders a finalized type graph as a JSON Schema
// (draft 2020-12) document.
package schema

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/mcncl/jsonclassgen/internal/models"
)

// Options controls schema output.
type Options struct {
	// Examples copies recorded field examples into the "examples" keyword.
	Examples bool
}

// DefsPrefix is the JSON pointer prefix of every named shape.
const DefsPrefix = "#/$defs/"

// Generate renders graph. Every shape is placed under $defs and referenced
// by name; the document itself describes the main root, or any of the roots
// when there are several.
func Generate(graph *models.FinalizedGraph, opts Options) (string, error) {
	if graph == nil || graph.Main() == nil {
		return "", fmt.Errorf("type graph has no roots")
	}

	g := &generator{opts: opts}
	doc := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Definitions: make(jsonschema.Definitions, len(graph.Shapes)),
	}
	for _, shape := range graph.Shapes {
		doc.Definitions[shape.AssignedName] = g.object(shape)
	}

	if len(graph.Roots) == 1 {
		root := g.root(graph.Roots[0])
		doc.Title = graph.Roots[0].Name
		doc.Ref = root.Ref
		doc.Type = root.Type
		doc.Items = root.Items
		doc.AnyOf = root.AnyOf
		doc.Format = root.Format
		doc.AdditionalProperties = root.AdditionalProperties
	} else {
		for _, r := range graph.Roots {
			doc.AnyOf = append(doc.AnyOf, g.root(r))
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(out) + "\n", nil
}

type generator struct {
	opts Options
}

// root describes the JSON value a root was inferred from: wrapped roots
// stand for their value field, array roots for a list of the shape.
func (g *generator) root(r models.RootShape) *jsonschema.Schema {
	var s *jsonschema.Schema
	if r.Wrapped {
		// A wrapped root has exactly one field holding the value.
		value := r.Shape.FieldList()[0]
		s = g.node(value.Type, value.Nullable)
	} else {
		s = ref(r.Shape)
	}
	if r.FromArray {
		return &jsonschema.Schema{Type: "array", Items: s}
	}
	return s
}

func (g *generator) object(shape *models.TypeNode) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, field := range shape.FieldList() {
		prop := g.node(field.Type, field.Nullable)
		if g.opts.Examples && len(field.Examples) > 0 {
			if prop == jsonschema.TrueSchema {
				prop = &jsonschema.Schema{}
			}
			prop.Examples = examples(field)
		}
		s.Properties.Set(field.JSONKey, prop)
		if !field.Optional {
			s.Required = append(s.Required, field.JSONKey)
		}
	}
	return s
}

// node describes n held in a slot; nullable is the flag of that slot.
func (g *generator) node(n *models.TypeNode, nullable bool) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch n.Kind {
	case models.Boolean:
		s = &jsonschema.Schema{Type: "boolean"}
	case models.Integer, models.Long:
		s = &jsonschema.Schema{Type: "integer"}
	case models.Float:
		s = &jsonschema.Schema{Type: "number"}
	case models.String:
		s = &jsonschema.Schema{Type: "string"}
	case models.Date:
		s = &jsonschema.Schema{Type: "string", Format: "date-time"}
	case models.Array:
		s = &jsonschema.Schema{Type: "array", Items: g.node(n.Element, n.ElementNullable)}
	case models.Dictionary:
		s = &jsonschema.Schema{Type: "object", AdditionalProperties: g.node(n.Element, n.ElementNullable)}
	case models.Object:
		s = ref(n)
	default:
		// Anything, NonConstrained and NullableSomething accept any value.
		return jsonschema.TrueSchema
	}
	if n.Nullable || nullable {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, {Type: "null"}}}
	}
	return s
}

func ref(shape *models.TypeNode) *jsonschema.Schema {
	return &jsonschema.Schema{Ref: DefsPrefix + shape.AssignedName}
}

// examples converts recorded literals back into JSON values.
func examples(field *models.FieldInfo) []any {
	out := make([]any, 0, len(field.Examples))
	for _, ex := range field.Examples {
		switch field.Type.Kind {
		case models.String, models.Date:
			out = append(out, ex)
		default:
			out = append(out, literal(ex))
		}
	}
	return out
}

// literal guesses the JSON type of an example recorded for a field whose
// kind is not textual.
func literal(ex string) any {
	switch ex {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(ex, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(ex, 64); err == nil {
		return f
	}
	return ex
}

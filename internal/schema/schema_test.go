package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonclassgen/internal/analyzer"
	"github.com/mcncl/jsonclassgen/internal/config"
	"github.com/mcncl/jsonclassgen/internal/finalizer"
	"github.com/mcncl/jsonclassgen/internal/models"
	"github.com/mcncl/jsonclassgen/internal/parser"
)

func finalized(t *testing.T, cfg *config.Config, inputs ...string) *models.FinalizedGraph {
	t.Helper()
	samples := make([]analyzer.Sample, 0, len(inputs))
	for _, input := range inputs {
		ir, err := parser.ParseString(input)
		require.NoError(t, err)
		samples = append(samples, analyzer.Sample{Value: ir.Root()})
	}
	graph, err := analyzer.NewAnalyzerWithConfig(cfg).Infer(context.Background(), samples)
	require.NoError(t, err)
	g, err := finalizer.Finalize(graph, finalizer.DefaultOptions())
	require.NoError(t, err)
	return g
}

func generate(t *testing.T, g *models.FinalizedGraph, opts Options) (string, map[string]any) {
	t.Helper()
	out, err := Generate(g, opts)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	return out, doc
}

func compile(t *testing.T, out string) *validator.Schema {
	t.Helper()
	doc, err := validator.UnmarshalJSON(strings.NewReader(out))
	require.NoError(t, err)
	c := validator.NewCompiler()
	require.NoError(t, c.AddResource("schema.json", doc))
	s, err := c.Compile("schema.json")
	require.NoError(t, err)
	return s
}

func valid(t *testing.T, s *validator.Schema, instance string) error {
	t.Helper()
	v, err := validator.UnmarshalJSON(strings.NewReader(instance))
	require.NoError(t, err)
	return s.Validate(v)
}

func defs(t *testing.T, doc map[string]any, name string) map[string]any {
	t.Helper()
	all, ok := doc["$defs"].(map[string]any)
	require.True(t, ok, "missing $defs")
	def, ok := all[name].(map[string]any)
	require.True(t, ok, "missing definition %s", name)
	return def
}

func TestGenerate_EndToEndSample(t *testing.T) {
	samples := []string{
		`{"id": 1, "tags": ["a","b"], "meta": null}`,
		`{"id": 2, "tags": [], "meta": {"k": "v"}}`,
	}
	out, doc := generate(t, finalized(t, nil, samples...), Options{})

	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", doc["$schema"])
	assert.Equal(t, "#/$defs/Root", doc["$ref"])
	assert.Equal(t, "Root", doc["title"])

	root := defs(t, doc, "Root")
	assert.Equal(t, "object", root["type"])
	assert.Equal(t, []any{"id", "tags", "meta"}, root["required"])

	props := root["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "integer"}, props["id"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["tags"])
	assert.Equal(t, map[string]any{"anyOf": []any{
		map[string]any{"$ref": "#/$defs/Meta"},
		map[string]any{"type": "null"},
	}}, props["meta"])

	assert.Equal(t, []any{"k"}, defs(t, doc, "Meta")["required"])

	// Properties keep first-seen order in the output text.
	assert.Less(t, strings.Index(out, `"id"`), strings.Index(out, `"tags"`))
	assert.Less(t, strings.Index(out, `"tags"`), strings.Index(out, `"meta"`))

	s := compile(t, out)
	for _, sample := range samples {
		assert.NoError(t, valid(t, s, sample))
	}
	assert.Error(t, valid(t, s, `{"id": "x", "tags": [], "meta": null}`))
	assert.Error(t, valid(t, s, `{"tags": [], "meta": null}`))
}

func TestGenerate_OptionalFieldsAreNotRequired(t *testing.T) {
	out, doc := generate(t, finalized(t, nil, `{"id": 1, "nick": "x"}`, `{"id": 2}`), Options{})

	assert.Equal(t, []any{"id"}, defs(t, doc, "Root")["required"])
	assert.NoError(t, valid(t, compile(t, out), `{"id": 3}`))
}

func TestGenerate_Kinds(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Types.DictionaryKeys = []string{"^labels$"}
	require.NoError(t, cfg.Validate())

	_, doc := generate(t, finalized(t, cfg,
		`{"at": "2024-01-02T03:04:05Z", "ratio": 0.5, "big": 9007199254740993, "ok": true, "any": 1, "none": null, "labels": {"a": "b"}, "empty": []}`,
		`{"at": "2024-02-02T03:04:05Z", "ratio": 1, "big": 1, "ok": null, "any": "x", "none": null, "labels": {}, "empty": []}`,
	), Options{})

	props := defs(t, doc, "Root")["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string", "format": "date-time"}, props["at"])
	assert.Equal(t, map[string]any{"type": "number"}, props["ratio"])
	assert.Equal(t, map[string]any{"type": "integer"}, props["big"])
	assert.Equal(t, map[string]any{"anyOf": []any{
		map[string]any{"type": "boolean"},
		map[string]any{"type": "null"},
	}}, props["ok"])
	assert.Equal(t, true, props["any"])
	assert.Equal(t, true, props["none"])
	assert.Equal(t, map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}}, props["labels"])
	assert.Equal(t, map[string]any{"type": "array", "items": true}, props["empty"])
}

func TestGenerate_FieldOnlyEverNull(t *testing.T) {
	out, doc := generate(t, finalized(t, nil, `{"id": 1, "meta": null}`), Options{})

	props := defs(t, doc, "Root")["properties"].(map[string]any)
	assert.Equal(t, true, props["meta"])

	s := compile(t, out)
	assert.NoError(t, valid(t, s, `{"id": 2, "meta": null}`))
	assert.NoError(t, valid(t, s, `{"id": 3, "meta": {"k": "v"}}`))
	assert.NoError(t, valid(t, s, `{"id": 4, "meta": 7}`))
}

func TestGenerate_SharedShapeNullableWhereUsed(t *testing.T) {
	g := finalized(t, nil,
		`{"a": {"x": 1}, "b": {"x": 2}}`,
		`{"a": null, "b": {"x": 3}}`)
	out, doc := generate(t, g, Options{})

	props := defs(t, doc, "Root")["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"anyOf": []any{
		map[string]any{"$ref": "#/$defs/A"},
		map[string]any{"type": "null"},
	}}, props["a"])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/A"}, props["b"])

	s := compile(t, out)
	assert.NoError(t, valid(t, s, `{"a": null, "b": {"x": 1}}`))
	assert.Error(t, valid(t, s, `{"a": {"x": 1}, "b": null}`))
}

func TestGenerate_RootArray(t *testing.T) {
	input := `[{"item_id": 1}, {"item_id": 2, "item_name": "Banana"}]`
	out, doc := generate(t, finalized(t, nil, input), Options{})

	assert.Equal(t, "array", doc["type"])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Root"}, doc["items"])

	s := compile(t, out)
	assert.NoError(t, valid(t, s, input))
	assert.Error(t, valid(t, s, `{"item_id": 1}`))
}

func TestGenerate_WrappedRoot(t *testing.T) {
	out, doc := generate(t, finalized(t, nil, `"hello"`), Options{})

	assert.Equal(t, "string", doc["type"])
	assert.Nil(t, doc["$ref"])

	s := compile(t, out)
	assert.NoError(t, valid(t, s, `"hi"`))
	assert.Error(t, valid(t, s, `1`))

	out, doc = generate(t, finalized(t, nil, `[1, 2, 3]`), Options{})
	assert.Equal(t, "array", doc["type"])
	assert.Equal(t, map[string]any{"type": "integer"}, doc["items"])
	assert.NoError(t, valid(t, compile(t, out), `[4, 5]`))
}

func TestGenerate_Examples(t *testing.T) {
	g := finalized(t, nil, `{"name": "a", "n": 1, "ok": true, "code": "007"}`, `{"name": "b", "n": 2.5, "ok": false, "code": "12"}`)

	_, doc := generate(t, g, Options{Examples: true})
	props := defs(t, doc, "Root")["properties"].(map[string]any)
	assert.Equal(t, []any{"a", "b"}, props["name"].(map[string]any)["examples"])
	assert.Equal(t, []any{float64(1), 2.5}, props["n"].(map[string]any)["examples"])
	assert.Equal(t, []any{true, false}, props["ok"].(map[string]any)["examples"])
	assert.Equal(t, []any{"007", "12"}, props["code"].(map[string]any)["examples"], "string examples stay strings")

	_, doc = generate(t, g, Options{})
	props = defs(t, doc, "Root")["properties"].(map[string]any)
	assert.Nil(t, props["name"].(map[string]any)["examples"])
}

func TestGenerate_MultipleRoots(t *testing.T) {
	ir, err := parser.ParseStringWithOptions(`{"id": 1} {"total": 2.5}`, parser.Options{AllowMultiple: true})
	require.NoError(t, err)
	graph, err := analyzer.NewAnalyzer().Infer(context.Background(), []analyzer.Sample{
		{Name: "order", Value: ir.Documents[0].Value},
		{Name: "invoice", Value: ir.Documents[1].Value},
	})
	require.NoError(t, err)
	g, err := finalizer.Finalize(graph, finalizer.DefaultOptions())
	require.NoError(t, err)

	out, doc := generate(t, g, Options{})
	assert.Equal(t, []any{
		map[string]any{"$ref": "#/$defs/Order"},
		map[string]any{"$ref": "#/$defs/Invoice"},
	}, doc["anyOf"])

	s := compile(t, out)
	assert.NoError(t, valid(t, s, `{"id": 5}`))
	assert.NoError(t, valid(t, s, `{"total": 1.5}`))
	assert.Error(t, valid(t, s, `{"other": 1}`))
}

func TestGenerate_Deterministic(t *testing.T) {
	g := finalized(t, nil, `{"z": 1, "a": {"b": [{"c": 1}]}, "m": {"q": "x"}}`)
	first, err := Generate(g, Options{Examples: true})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Generate(g, Options{Examples: true})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerate_EmptyGraph(t *testing.T) {
	_, err := Generate(nil, Options{})
	assert.Error(t, err)
	_, err = Generate(&models.FinalizedGraph{}, Options{})
	assert.Error(t, err)
}

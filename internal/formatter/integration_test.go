package formatter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonclassgen/internal/analyzer"
	"github.com/mcncl/jsonclassgen/internal/finalizer"
	"github.com/mcncl/jsonclassgen/internal/generator"
	"github.com/mcncl/jsonclassgen/internal/parser"
)

func generateGo(t *testing.T, input string, opts generator.Options) string {
	t.Helper()
	ir, err := parser.ParseString(input)
	require.NoError(t, err)

	graph, err := analyzer.NewAnalyzer().Infer(context.Background(), []analyzer.Sample{{Value: ir.Root()}})
	require.NoError(t, err)

	final, err := finalizer.Finalize(graph, finalizer.DefaultOptions())
	require.NoError(t, err)

	code, err := generator.NewGoWriter().Write(final, opts)
	require.NoError(t, err)
	return code
}

func TestIntegration_FlatStructsAreAlreadyCanonical(t *testing.T) {
	code := generateGo(t, `{"id": 1, "tags": ["a"], "meta": {"k": "v"}}`,
		generator.Options{UsePascalCase: true, Package: "models"})

	formatted, err := NewFormatter().Format(code)
	require.NoError(t, err)
	assert.Equal(t, code, formatted)
}

func TestIntegration_FormatIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"id": 1, "created_at": "2024-01-02T03:04:05Z", "profile": {"bio": null, "links": [{"url": "x"}]}}`,
		`[{"sku": "a", "qty": 1}, {"sku": "b", "qty": 2.5}]`,
		`42`,
	}
	opts := generator.Options{
		UseProperties:    true,
		UsePascalCase:    true,
		UseNestedClasses: true,
		ImmutableClasses: true,
		Package:          "models",
	}

	formatter := NewFormatter()
	for _, input := range inputs {
		once, err := formatter.Format(generateGo(t, input, opts))
		require.NoError(t, err, input)
		twice, err := formatter.Format(once)
		require.NoError(t, err, input)
		assert.Equal(t, once, twice, input)
	}
}

func TestIntegration_ImportsStayGrouped(t *testing.T) {
	code := generateGo(t, `{"at": "2024-01-02T03:04:05Z"}`, generator.Options{UsePascalCase: true})

	formatted, err := NewFormatter().Format(code)
	require.NoError(t, err)
	assert.Contains(t, formatted, "import (\n\t\"time\"\n)")
	assert.Contains(t, formatted, "At time.Time `json:\"at\"`")
}

func TestIntegration_RootArrayTrailer(t *testing.T) {
	code := generateGo(t, `[{"id": 1}]`, generator.Options{UsePascalCase: true})

	formatted, err := NewFormatter().Format(code)
	require.NoError(t, err)
	assert.Contains(t, formatted, "type Root struct {")
	assert.Contains(t, formatted, "// type Roots []Root")
}

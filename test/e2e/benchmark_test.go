package e2e_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonclassgen/internal/analyzer"
	"github.com/mcncl/jsonclassgen/internal/config"
	"github.com/mcncl/jsonclassgen/internal/finalizer"
	"github.com/mcncl/jsonclassgen/internal/generator"
	"github.com/mcncl/jsonclassgen/internal/parser"
)

// generateNestedJSON creates a deeply nested JSON structure for benchmarking
func generateNestedJSON(rng *rand.Rand, depth int, width int) map[string]interface{} {
	if depth <= 0 {
		return map[string]interface{}{
			"leaf_value": "data",
			"timestamp":  "2024-01-02T03:04:05Z",
			"count":      rng.Intn(100),
			"enabled":    rng.Intn(2) == 1,
		}
	}

	result := make(map[string]interface{})
	for i := 0; i < width; i++ {
		key := fmt.Sprintf("nested_%d_%d", depth, i)
		result[key] = generateNestedJSON(rng, depth-1, width)
	}
	return result
}

// generateWideJSON creates a JSON object with many fields at the same level
func generateWideJSON(fieldCount int) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < fieldCount; i++ {
		switch i % 5 {
		case 0:
			result[fmt.Sprintf("string_field_%d", i)] = fmt.Sprintf("value_%d", i)
		case 1:
			result[fmt.Sprintf("int_field_%d", i)] = i
		case 2:
			result[fmt.Sprintf("bool_field_%d", i)] = i%2 == 0
		case 3:
			result[fmt.Sprintf("float_field_%d", i)] = float64(i) + 0.5
		case 4:
			result[fmt.Sprintf("object_field_%d", i)] = map[string]interface{}{
				"id":    i,
				"name":  fmt.Sprintf("Object %d", i),
				"value": i * 10,
			}
		}
	}

	return result
}

// benchmarkPipeline runs parse, inference and every writer over data.
func benchmarkPipeline(b *testing.B, data []byte) {
	b.Helper()
	cfg := config.NewConfig()
	opts := generator.OptionsFromConfig(cfg)

	writers := make([]generator.CodeWriter, 0, len(config.Languages))
	for _, language := range config.Languages {
		w, err := generator.NewWriter(language)
		require.NoError(b, err)
		writers = append(writers, w)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ir, err := parser.ParseString(string(data))
		require.NoError(b, err)

		graph, err := analyzer.NewAnalyzerWithConfig(cfg).AnalyzeDocuments(context.Background(), ir, cfg.MainClass)
		require.NoError(b, err)

		final, err := finalizer.Finalize(graph, finalizer.DefaultOptions())
		require.NoError(b, err)

		for _, w := range writers {
			_, err := w.Write(final, opts)
			require.NoError(b, err, w.Name())
		}
	}
}

// BenchmarkDeepNesting benchmarks performance with deeply nested JSON structures
func BenchmarkDeepNesting(b *testing.B) {
	depths := []struct {
		name  string
		depth int
		width int
	}{
		{"Depth3Width3", 3, 3},   // Moderate nesting
		{"Depth5Width2", 5, 2},   // Deep nesting
		{"Depth2Width10", 2, 10}, // Wide but shallow
	}

	for _, depth := range depths {
		b.Run(depth.name, func(b *testing.B) {
			rng := rand.New(rand.NewSource(42))
			jsonData, err := json.Marshal(generateNestedJSON(rng, depth.depth, depth.width))
			require.NoError(b, err)
			benchmarkPipeline(b, jsonData)
		})
	}
}

// BenchmarkWideStructures benchmarks performance with wide JSON structures (many fields)
func BenchmarkWideStructures(b *testing.B) {
	widths := []struct {
		name       string
		fieldCount int
	}{
		{"Fields10", 10},
		{"Fields100", 100},
		{"Fields1000", 1000},
	}

	for _, width := range widths {
		b.Run(width.name, func(b *testing.B) {
			jsonData, err := json.Marshal(generateWideJSON(width.fieldCount))
			require.NoError(b, err)
			benchmarkPipeline(b, jsonData)
		})
	}
}

// BenchmarkArrayProcessing benchmarks performance with large arrays
func BenchmarkArrayProcessing(b *testing.B) {
	sizes := []struct {
		name      string
		arraySize int
	}{
		{"Array100", 100},
		{"Array1000", 1000},
		{"Array5000", 5000},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			rng := rand.New(rand.NewSource(42))
			array := make([]map[string]interface{}, size.arraySize)
			for i := 0; i < size.arraySize; i++ {
				array[i] = map[string]interface{}{
					"id":         i,
					"name":       fmt.Sprintf("Item %d", i),
					"value":      rng.Float64() * 100,
					"active":     i%2 == 0,
					"category":   fmt.Sprintf("Category %d", i%5),
					"created_at": "2024-01-02T03:04:05Z",
				}
			}

			jsonData, err := json.Marshal(array)
			require.NoError(b, err)
			benchmarkPipeline(b, jsonData)
		})
	}
}

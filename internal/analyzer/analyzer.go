package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/mcncl/jsonclassgen/internal/config"
	"github.com/mcncl/jsonclassgen/internal/errors"
	"github.com/mcncl/jsonclassgen/internal/lattice"
	"github.com/mcncl/jsonclassgen/internal/models"
)

// Sample is one JSON document fed to inference. Samples sharing a Name are
// merged into one root; the empty name denotes the main class.
type Sample struct {
	Name  string
	Value models.JSONValue
}

// Analyzer walks JSON samples and builds the working type graph.
// An Analyzer holds no state between calls to Infer, but it is not meant to
// be shared by concurrent callers.
type Analyzer struct {
	// config holds configuration settings for analysis
	config     *config.Config
	classifier *lattice.Classifier
	merger     lattice.Merger
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.NewConfig()) // Use default config if none provided
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Analyzer{
		config:     cfg,
		classifier: lattice.NewClassifier(cfg.Types.DetectDates),
		merger:     lattice.Merger{MaxExamples: cfg.Output.MaxExamples},
	}
}

// Infer builds and merges a type graph from samples, in order. A top-level
// array is unwrapped: each element is one observation of the root.
//
// Inference itself cannot fail; the only error is cancellation, which is
// checked between samples.
func (a *Analyzer) Infer(ctx context.Context, samples []Sample) (*models.Graph, error) {
	graph := &models.Graph{}

	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError(fmt.Sprintf("stopped before sample %d of %d", i+1, len(samples)), err)
		}

		slot := graph.Root(sample.Name)
		if slot == nil {
			slot = &models.RootSlot{Name: sample.Name, Type: models.NewNode(models.Unknown)}
			graph.Roots = append(graph.Roots, slot)
		}
		slot.Samples++

		if arr, ok := sample.Value.(models.JSONArray); ok {
			slot.FromArray = true
			for _, element := range arr {
				if err := ctx.Err(); err != nil {
					return nil, errors.NewCancelledError(fmt.Sprintf("stopped inside sample %d of %d", i+1, len(samples)), err)
				}
				slot.Type = a.merger.Merge(slot.Type, a.observe(element, ""))
			}
			continue
		}
		slot.Type = a.merger.Merge(slot.Type, a.observe(sample.Value, ""))
	}

	for _, slot := range graph.Roots {
		slot.Type.IsRoot = true
		slot.Type.NameHint = slot.Name
		slog.Debug("inferred root", "name", slot.Name, "samples", slot.Samples, "from_array", slot.FromArray, "type", slot.Type.Describe())
	}
	slog.Debug("inference complete", "samples", len(samples), "roots", len(graph.Roots))

	return graph, nil
}

// observe builds the node for a single value. key is the JSON member name the
// value was found under and becomes the node's name hint.
func (a *Analyzer) observe(value models.JSONValue, key string) *models.TypeNode {
	if obj, ok := value.(*models.JSONObject); ok && key != "" && a.config.IsDictionaryKey(key) {
		return a.observeDictionary(obj, key)
	}
	return a.observeValue(value, key)
}

// observeValue is observe without dictionary detection.
func (a *Analyzer) observeValue(value models.JSONValue, key string) *models.TypeNode {
	switch v := value.(type) {
	case *models.JSONObject:
		return a.observeObject(v, key)
	case models.JSONArray:
		return a.observeArray(v, key)
	default:
		n := a.classifier.Scalar(v)
		if n == nil {
			// Not produced by the parser; widen rather than fail.
			slog.Debug("unexpected JSON value", "key", key, "type", fmt.Sprintf("%T", v))
			n = models.NewNode(models.Anything)
		}
		n.NameHint = key
		return n
	}
}

func (a *Analyzer) observeObject(obj *models.JSONObject, key string) *models.TypeNode {
	n := models.NewNode(models.Object)
	n.NameHint = key
	n.Observations = 1

	obj.Each(func(member string, value models.JSONValue) {
		f := n.AddField(member)
		f.Type = a.merger.Merge(f.Type, a.observe(value, member))
		f.Occurrences = 1
		if example, ok := exampleOf(value); ok && a.config.Output.MaxExamples > 0 {
			f.Examples = []string{example}
		}
	})
	return n
}

func (a *Analyzer) observeArray(arr models.JSONArray, key string) *models.TypeNode {
	n := models.NewNode(models.Array)
	n.NameHint = key
	// An empty array leaves the element pending.
	n.Element = models.NewNode(models.Unknown)
	n.Element.NameHint = key
	for _, element := range arr {
		n.Element = a.merger.Merge(n.Element, a.observe(element, key))
	}
	return n
}

func (a *Analyzer) observeDictionary(obj *models.JSONObject, key string) *models.TypeNode {
	n := models.NewNode(models.Dictionary)
	n.NameHint = key
	n.Element = models.NewNode(models.Unknown)
	n.Element.NameHint = key
	obj.Each(func(_ string, value models.JSONValue) {
		n.Element = a.merger.Merge(n.Element, a.observeValue(value, key))
	})
	return n
}

// exampleOf renders a scalar value for documentation.
func exampleOf(value models.JSONValue) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case models.Number:
		return string(v), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// AnalyzeDocuments infers a graph where every parsed document is a sample of
// the root called name.
func (a *Analyzer) AnalyzeDocuments(ctx context.Context, ir models.IntermediateRepresentation, name string) (*models.Graph, error) {
	return a.Infer(ctx, DocumentSamples(ir, name, false))
}

// DocumentSamples converts parsed documents into samples. With separate set,
// documents are grouped by source and each source becomes a root named
// after its file; otherwise every document is a sample of name.
func DocumentSamples(ir models.IntermediateRepresentation, name string, separate bool) []Sample {
	samples := make([]Sample, 0, len(ir.Documents))
	for _, doc := range ir.Documents {
		sampleName := name
		if separate {
			sampleName = sourceName(doc.Source)
		}
		samples = append(samples, Sample{Name: sampleName, Value: doc.Value})
	}
	return samples
}

// sourceName derives a class name from a file path, e.g.
// "testdata/user_events.json" gives "UserEvents".
func sourceName(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strcase.ToCamel(base)
}

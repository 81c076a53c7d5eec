// Package generator renders a finalized type graph as source code.
package generator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcncl/jsonclassgen/internal/config"
	"github.com/mcncl/jsonclassgen/internal/errors"
	"github.com/mcncl/jsonclassgen/internal/models"
	"github.com/mcncl/jsonclassgen/internal/schema"
)

// CodeWriter renders a finalized graph in one target language. Writers
// never modify the graph.
type CodeWriter interface {
	Name() string
	FileExtension() string
	Write(graph *models.FinalizedGraph, opts Options) (string, error)
}

// TypeMapper looks up a user supplied type for a JSON key.
type TypeMapper interface {
	FindTypeMapping(key string) (config.TypeMapping, bool)
}

// Options controls how a writer renders the graph.
type Options struct {
	UseProperties           bool
	UsePascalCase           bool
	UseNestedClasses        bool
	ArraysAsLists           bool
	ExplicitDeserialization bool
	InternalVisibility      bool
	ImmutableClasses        bool
	ExamplesInDocumentation bool

	// AttributeLibrary is config.AttributesNewtonsoft (the default when
	// empty) or config.AttributesSystemTextJSON.
	AttributeLibrary      string
	AlwaysAttributes      bool
	ObfuscationAttributes bool

	Namespace  string
	Package    string
	FileHeader string

	// FieldNames maps JSON keys to member names chosen by the user.
	FieldNames   map[string]string
	TypeMappings TypeMapper
}

// DefaultOptions mirrors config.NewConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.NewConfig())
}

// OptionsFromConfig collects writer options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UseProperties:           cfg.Writer.UseProperties,
		UsePascalCase:           cfg.Writer.UsePascalCase,
		UseNestedClasses:        cfg.Writer.UseNestedClasses,
		ArraysAsLists:           cfg.Writer.ArraysAsLists,
		ExplicitDeserialization: cfg.Writer.ExplicitDeserialization,
		InternalVisibility:      cfg.Writer.InternalVisibility,
		ImmutableClasses:        cfg.Writer.ImmutableClasses,
		ExamplesInDocumentation: cfg.Writer.ExamplesInDocumentation,
		AttributeLibrary:        cfg.Writer.AttributeLibrary,
		AlwaysAttributes:        cfg.Writer.AlwaysAttributes,
		ObfuscationAttributes:   cfg.Writer.ObfuscationAttributes,
		Namespace:               cfg.Namespace,
		Package:                 cfg.Package,
		FileHeader:              cfg.Output.FileHeader,
		FieldNames:              cfg.Naming.FieldMappings,
		TypeMappings:            cfg,
	}
}

func (o Options) typeMapping(key string) (config.TypeMapping, bool) {
	if o.TypeMappings == nil {
		return config.TypeMapping{}, false
	}
	return o.TypeMappings.FindTypeMapping(key)
}

// NewWriter returns the writer for language.
func NewWriter(language string) (CodeWriter, error) {
	switch language {
	case config.LanguageCSharp:
		return NewCSharpWriter(), nil
	case config.LanguageGo:
		return NewGoWriter(), nil
	case config.LanguageJSONSchema:
		return schemaWriter{}, nil
	}
	return nil, errors.NewConfigError(
		fmt.Sprintf("unknown language %q, expected one of: %s", language, strings.Join(config.Languages, ", ")),
		errors.ErrUnknownLanguage)
}

// schemaWriter adapts the schema package to the CodeWriter contract.
type schemaWriter struct{}

func (schemaWriter) Name() string          { return "JSON Schema" }
func (schemaWriter) FileExtension() string { return ".schema.json" }

func (schemaWriter) Write(graph *models.FinalizedGraph, opts Options) (string, error) {
	out, err := schema.Generate(graph, schema.Options{
		Examples: opts.ExamplesInDocumentation,
	})
	if err != nil {
		return "", errors.NewGenerateError("failed to render JSON Schema", err)
	}
	return out, nil
}

// checkGraph rejects graphs no writer can render.
func checkGraph(graph *models.FinalizedGraph) error {
	if graph == nil || graph.Main() == nil {
		return errors.NewGenerateError("nothing to write: the type graph has no roots", errors.ErrNoInput)
	}
	return nil
}

// examplesText renders the examples of field for a doc comment. String
// examples are quoted.
func examplesText(field *models.FieldInfo) string {
	if len(field.Examples) == 0 {
		return ""
	}
	quote := field.Type.Kind == models.String || field.Type.Kind == models.Date
	parts := make([]string, 0, len(field.Examples))
	for _, ex := range field.Examples {
		if quote {
			ex = fmt.Sprintf("%q", ex)
		}
		parts = append(parts, ex)
	}
	return "Examples: " + strings.Join(parts, ", ")
}

// headerLines splits a user supplied file header into comment lines.
func headerLines(header string) []string {
	header = strings.TrimRight(header, "\n")
	if header == "" {
		return nil
	}
	lines := strings.Split(header, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("// "+line, " ")
	}
	return lines
}

// memberSet hands out member names that are unique within one class.
type memberSet map[string]struct{}

func (m memberSet) reserve(name string) string {
	candidate := name
	for n := 2; ; n++ {
		if _, taken := m[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s%d", name, n)
	}
	m[candidate] = struct{}{}
	return candidate
}

// sanitizeIdentifier replaces every byte that cannot appear in an
// identifier with an underscore.
func sanitizeIdentifier(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	c, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(c)) + s[size:]
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	c, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(c)) + s[size:]
}

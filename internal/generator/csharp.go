package generator

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"

	"github.com/mcncl/jsonclassgen/internal/config"
	"github.com/mcncl/jsonclassgen/internal/errors"
	"github.com/mcncl/jsonclassgen/internal/models"
)

const (
	noRenameAttribute = `[Obfuscation(Feature = "renaming", Exclude = true)]`
	noPruneAttribute  = `[Obfuscation(Feature = "trigger", Exclude = false)]`
)

var csharpKeywords = map[string]bool{}

func init() {
	for _, kw := range strings.Fields(`abstract as base bool break byte case catch char checked class
		const continue decimal default delegate do double else enum event explicit extern false finally
		fixed float for foreach goto if implicit in int interface internal is lock long namespace new
		null object operator out override params private protected public readonly ref return sbyte
		sealed short sizeof stackalloc static string struct switch this throw true try typeof uint ulong
		unchecked unsafe ushort using virtual void volatile while`) {
		csharpKeywords[kw] = true
	}
}

// CSharpWriter renders classes for Newtonsoft.Json or System.Text.Json.
type CSharpWriter struct{}

// NewCSharpWriter creates a C# writer.
func NewCSharpWriter() *CSharpWriter {
	return &CSharpWriter{}
}

// Name implements CodeWriter.
func (w *CSharpWriter) Name() string { return "C#" }

// FileExtension implements CodeWriter.
func (w *CSharpWriter) FileExtension() string { return ".cs" }

// Write implements CodeWriter.
func (w *CSharpWriter) Write(graph *models.FinalizedGraph, opts Options) (string, error) {
	if err := checkGraph(graph); err != nil {
		return "", err
	}

	r := &csharpRender{
		opts:       opts,
		graph:      graph,
		main:       graph.Main(),
		usings:     map[string]bool{"System": true, "System.Collections.Generic": true},
		body:       newCodeBuffer("    "),
		systemText: opts.AttributeLibrary == config.AttributesSystemTextJSON,
	}
	if opts.Namespace != "" {
		r.body.indent()
	}
	if err := r.writeClasses(); err != nil {
		return "", err
	}

	out := newCodeBuffer("    ")
	for _, line := range headerLines(opts.FileHeader) {
		out.line(line)
	}
	if !opts.ExplicitDeserialization {
		out.line(r.deserializationHint())
	}
	for _, u := range r.sortedUsings() {
		out.linef("using %s;", u)
	}
	out.blank()
	if opts.Namespace != "" {
		out.linef("namespace %s", opts.Namespace)
		out.line("{")
		out.raw(r.body.String())
		out.line("}")
	} else {
		out.raw(r.body.String())
	}
	return out.String(), nil
}

type csharpRender struct {
	opts   Options
	graph  *models.FinalizedGraph
	main   *models.RootShape
	usings map[string]bool
	body   *codeBuffer
	// systemText selects System.Text.Json attributes over Newtonsoft.Json.
	systemText bool
}

type csharpMember struct {
	key       string
	name      string
	typ       string
	attribute bool
	examples  string
}

func (r *csharpRender) writeClasses() error {
	isRoot := make(map[*models.TypeNode]bool, len(r.graph.Roots))
	for _, root := range r.graph.Roots {
		isRoot[root.Shape] = true
	}

	first := true
	for _, shape := range r.graph.Shapes {
		if r.opts.UseNestedClasses && !isRoot[shape] {
			continue
		}
		var nested []*models.TypeNode
		if r.opts.UseNestedClasses && shape == r.main.Shape {
			for _, s := range r.graph.Shapes {
				if !isRoot[s] {
					nested = append(nested, s)
				}
			}
		}
		if !first {
			r.body.blank()
		}
		first = false
		qualify := r.opts.UseNestedClasses && shape != r.main.Shape
		if err := r.writeClass(shape, nested, qualify); err != nil {
			return err
		}
	}
	return nil
}

func (r *csharpRender) writeClass(shape *models.TypeNode, nested []*models.TypeNode, qualify bool) error {
	taken := make(memberSet)
	// Nested classes share the member namespace of their container.
	for _, n := range nested {
		taken.reserve(n.AssignedName)
	}
	members, err := r.members(shape, qualify, taken)
	if err != nil {
		return err
	}

	b := r.body
	for _, attr := range r.classAttributes() {
		b.line(attr)
	}
	b.linef("%s class %s", r.visibility(), shape.AssignedName)
	b.line("{")
	b.indent()

	for _, m := range members {
		if r.opts.ExamplesInDocumentation && m.examples != "" {
			b.line("/// <summary>")
			b.linef("/// %s", m.examples)
			b.line("/// </summary>")
		}
		if m.attribute {
			b.line(r.propertyAttribute(m.key))
		}
		switch {
		case r.opts.UseProperties && r.opts.ImmutableClasses:
			b.linef("public %s %s { get; }", m.typ, m.name)
		case r.opts.UseProperties:
			b.linef("public %s %s { get; set; }", m.typ, m.name)
		case r.opts.ImmutableClasses:
			b.linef("public readonly %s %s;", m.typ, m.name)
		default:
			b.linef("public %s %s;", m.typ, m.name)
		}
	}

	if r.opts.ImmutableClasses {
		if len(members) > 0 {
			b.blank()
		}
		r.writeConstructor(shape.AssignedName, members)
	}

	for _, n := range nested {
		b.blank()
		if err := r.writeClass(n, nil, false); err != nil {
			return err
		}
	}

	b.dedent()
	b.line("}")
	return nil
}

func (r *csharpRender) writeConstructor(class string, members []csharpMember) {
	b := r.body
	if !r.opts.ExplicitDeserialization {
		b.line("[JsonConstructor]")
		r.useAttributes()
	}
	if len(members) == 0 {
		b.linef("public %s()", class)
		b.line("{")
		b.line("}")
		return
	}

	params := make(memberSet)
	names := make([]string, len(members))
	b.linef("public %s(", class)
	b.indent()
	for i, m := range members {
		names[i] = csharpCamelName(strings.TrimPrefix(m.name, "@"), params)
		sep := ","
		if i == len(members)-1 {
			sep = ")"
		}
		// System.Text.Json binds constructor parameters to properties by
		// name and ignores attributes on them.
		attr := ""
		if m.attribute && !r.systemText {
			attr = r.propertyAttribute(m.key) + " "
		}
		b.linef("%s%s %s%s", attr, m.typ, names[i], sep)
	}
	b.dedent()
	b.line("{")
	b.indent()
	for i, m := range members {
		b.linef("this.%s = %s;", m.name, names[i])
	}
	b.dedent()
	b.line("}")
}

func (r *csharpRender) members(shape *models.TypeNode, qualify bool, taken memberSet) ([]csharpMember, error) {
	fields := shape.FieldList()
	members := make([]csharpMember, 0, len(fields))
	for _, field := range fields {
		name := r.memberName(field.JSONKey, shape.AssignedName, taken)
		m := csharpMember{
			key:      field.JSONKey,
			name:     name,
			typ:      r.fieldType(field, qualify),
			examples: examplesText(field),
		}
		needed := r.opts.AlwaysAttributes || field.ContainsSpecialChars ||
			!strings.EqualFold(strings.TrimPrefix(name, "@"), field.JSONKey)
		if r.opts.ExplicitDeserialization {
			if field.ContainsSpecialChars {
				return nil, &errors.UnsupportedShapeError{
					Writer: "C#",
					Shape:  shape.AssignedName,
					Field:  field.JSONKey,
					Reason: "the key is not a valid member name and explicit deserialization writes no [JsonProperty] attribute",
				}
			}
		} else if needed {
			m.attribute = true
			r.useAttributes()
		}
		members = append(members, m)
	}
	return members, nil
}

// memberName derives a unique C# member name for key.
func (r *csharpRender) memberName(key, class string, taken memberSet) string {
	name := r.opts.FieldNames[key]
	if name == "" {
		if r.opts.UsePascalCase {
			name = strcase.ToCamel(key)
		} else {
			name = sanitizeIdentifier(key)
		}
	}
	if name == "" {
		name = "Member"
	}
	if startsWithDigit(name) {
		name = "_" + name
	}
	// A member may not share its enclosing class's name.
	if name == class {
		name += "_"
	}
	name = taken.reserve(name)
	if csharpKeywords[strings.ToLower(name)] {
		name = "@" + name
	}
	return name
}

// csharpCamelName turns a member name into a constructor parameter name.
func csharpCamelName(member string, taken memberSet) string {
	name := lowerFirst(member)
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "_" + name
	}
	name = taken.reserve(name)
	if csharpKeywords[strings.ToLower(name)] {
		name = "@" + name
	}
	return name
}

func (r *csharpRender) fieldType(field *models.FieldInfo, qualify bool) string {
	if m, ok := r.opts.typeMapping(field.JSONKey); ok {
		if m.Import != "" {
			r.usings[m.Import] = true
		}
		return m.Type
	}
	return r.typeName(field.Type, qualify)
}

func (r *csharpRender) typeName(n *models.TypeNode, qualify bool) string {
	switch n.Kind {
	case models.Boolean:
		return nullable("bool", n)
	case models.Integer:
		return nullable("int", n)
	case models.Long:
		return nullable("long", n)
	case models.Float:
		return nullable("double", n)
	case models.Date:
		return nullable("DateTime", n)
	case models.String:
		return "string"
	case models.Array:
		elem := r.typeName(n.Element, qualify)
		if r.opts.ArraysAsLists {
			return "List<" + elem + ">"
		}
		return elem + "[]"
	case models.Dictionary:
		return "Dictionary<string, " + r.typeName(n.Element, qualify) + ">"
	case models.Object:
		if qualify && !n.IsRoot {
			return r.main.Name + "." + n.AssignedName
		}
		return n.AssignedName
	default:
		return "object"
	}
}

func nullable(name string, n *models.TypeNode) string {
	if n.Nullable {
		return name + "?"
	}
	return name
}

// useAttributes adds the namespace of the serializer attributes.
func (r *csharpRender) useAttributes() {
	if r.systemText {
		r.usings["System.Text.Json.Serialization"] = true
		return
	}
	r.usings["Newtonsoft.Json"] = true
}

func (r *csharpRender) propertyAttribute(key string) string {
	if r.systemText {
		return fmt.Sprintf("[JsonPropertyName(%s)]", csharpString(key))
	}
	return fmt.Sprintf("[JsonProperty(%s)]", csharpString(key))
}

// classAttributes keeps obfuscators from renaming members whose names are
// the JSON keys, and from pruning fields only set by the serializer.
func (r *csharpRender) classAttributes() []string {
	if !r.opts.ObfuscationAttributes || r.opts.ExplicitDeserialization {
		return nil
	}
	var attrs []string
	if !r.opts.UsePascalCase {
		attrs = append(attrs, noRenameAttribute)
	}
	if !r.opts.UseProperties {
		attrs = append(attrs, noPruneAttribute)
	}
	if len(attrs) > 0 {
		r.usings["System.Reflection"] = true
	}
	return attrs
}

func (r *csharpRender) visibility() string {
	if r.opts.InternalVisibility {
		return "internal"
	}
	return "public"
}

func (r *csharpRender) deserializationHint() string {
	target := r.main.Name
	if r.main.FromArray && !r.main.Wrapped {
		target = "List<" + target + ">"
	}
	if r.systemText {
		return fmt.Sprintf("// %s myDeserializedClass = JsonSerializer.Deserialize<%s>(myJsonResponse);", target, target)
	}
	return fmt.Sprintf("// %s myDeserializedClass = JsonConvert.DeserializeObject<%s>(myJsonResponse);", target, target)
}

// sortedUsings lists System namespaces first.
func (r *csharpRender) sortedUsings() []string {
	usings := make([]string, 0, len(r.usings))
	for u := range r.usings {
		usings = append(usings, u)
	}
	sort.Slice(usings, func(i, j int) bool {
		si := usings[i] == "System" || strings.HasPrefix(usings[i], "System.")
		sj := usings[j] == "System" || strings.HasPrefix(usings[j], "System.")
		if si != sj {
			return si
		}
		return usings[i] < usings[j]
	})
	return usings
}

// csharpString quotes s as a regular C# string literal.
func csharpString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range s {
		switch {
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, `\u%04x`, c)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

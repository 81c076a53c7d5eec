package generator

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"

	"github.com/mcncl/jsonclassgen/internal/errors"
	"github.com/mcncl/jsonclassgen/internal/models"
)

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true, "default": true,
	"defer": true, "else": true, "fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true, "map": true, "package": true,
	"range": true, "return": true, "select": true, "struct": true, "switch": true, "type": true,
	"var": true,
}

// goPredeclared lists the universe scope identifiers and the packages the
// writer may import; a type declared under one of these names would shadow
// it.
var goPredeclared = []string{
	"any", "bool", "byte", "comparable", "complex64", "complex128", "error", "float32", "float64",
	"int", "int8", "int16", "int32", "int64", "rune", "string", "uint", "uint8", "uint16", "uint32",
	"uint64", "uintptr", "true", "false", "iota", "nil", "append", "cap", "clear", "close",
	"complex", "copy", "delete", "imag", "len", "make", "max", "min", "new", "panic", "print",
	"println", "real", "recover", "time",
}

// GoWriter renders Go struct definitions for encoding/json.
type GoWriter struct{}

// NewGoWriter creates a Go writer.
func NewGoWriter() *GoWriter {
	return &GoWriter{}
}

// Name implements CodeWriter.
func (w *GoWriter) Name() string { return "Go" }

// FileExtension implements CodeWriter.
func (w *GoWriter) FileExtension() string { return ".go" }

// Write implements CodeWriter. The output is valid Go but is only aligned
// the way gofmt would align it for flat structs; run it through the
// formatter for canonical layout.
func (w *GoWriter) Write(graph *models.FinalizedGraph, opts Options) (string, error) {
	if err := checkGraph(graph); err != nil {
		return "", err
	}

	r := &goRender{
		opts:    opts,
		imports: make(map[string]bool),
		inline:  make(map[*models.TypeNode]bool),
	}
	r.nameTypes(graph.Shapes)
	isRoot := make(map[*models.TypeNode]bool, len(graph.Roots))
	for _, root := range graph.Roots {
		isRoot[root.Shape] = true
	}
	if opts.UseNestedClasses {
		for _, shape := range graph.Shapes {
			if !isRoot[shape] {
				r.inline[shape] = true
			}
		}
	}

	wrapped := make(map[*models.TypeNode]bool)
	for _, root := range graph.Roots {
		if root.Wrapped {
			wrapped[root.Shape] = true
		}
	}

	body := newCodeBuffer("\t")
	for _, shape := range graph.Shapes {
		if r.inline[shape] {
			continue
		}
		structs, err := r.fields(shape)
		if err != nil {
			return "", err
		}
		name := r.typeName(shape)

		body.blank()
		if wrapped[shape] {
			body.linef("// %s wraps a top-level JSON value that is not an object.", name)
		}
		body.linef("type %s struct {", name)
		body.indent()
		r.writeFields(body, structs)
		body.dedent()
		body.line("}")

		if opts.ImmutableClasses {
			r.writeConstructor(body, name, structs)
		}
		if opts.UseProperties {
			r.writeGetters(body, name, structs)
		}
	}

	for _, root := range graph.Roots {
		if root.FromArray && !root.Wrapped {
			name := r.typeName(root.Shape)
			body.blank()
			body.line("// The input was a JSON array. Decode it into a slice, for example:")
			body.linef("// type %ss []%s", name, name)
		}
	}

	out := newCodeBuffer("\t")
	for _, line := range headerLines(opts.FileHeader) {
		out.line(line)
	}
	out.line("// Code generated by jsonclassgen. DO NOT EDIT.")
	out.blank()
	pkg := opts.Package
	if pkg == "" {
		pkg = "main"
	}
	out.linef("package %s", pkg)
	writeImports(out, r.imports)
	out.raw(body.String())
	return out.String(), nil
}

type goRender struct {
	opts    Options
	imports map[string]bool
	// inline holds shapes written as anonymous struct types.
	inline map[*models.TypeNode]bool
	// names holds the declared type name of every shape.
	names    map[*models.TypeNode]string
	declared memberSet
}

// nameTypes picks a Go type name for every shape. Unexported names can
// collide with keywords and predeclared identifiers, so those are reserved
// up front.
func (r *goRender) nameTypes(shapes []*models.TypeNode) {
	r.names = make(map[*models.TypeNode]string, len(shapes))
	r.declared = make(memberSet, len(shapes)+len(goKeywords)+len(goPredeclared))
	for kw := range goKeywords {
		r.declared.reserve(kw)
	}
	for _, name := range goPredeclared {
		r.declared.reserve(name)
	}
	for _, shape := range shapes {
		name := shape.AssignedName
		if r.opts.InternalVisibility {
			name = lowerFirst(name)
		}
		r.names[shape] = r.declared.reserve(name)
	}
}

// goField is one rendered struct field. When inline is set, typ is the
// prefix ("*", "[]", ...) written before the anonymous struct.
type goField struct {
	name    string
	getter  string
	typ     string
	inline  *models.TypeNode
	tag     string
	docs    []string
	inlined []goField
}

// signature is the single-line type of f, usable in function signatures.
func (f goField) signature() string {
	if f.inline == nil {
		return f.typ
	}
	parts := make([]string, 0, len(f.inlined))
	for _, sub := range f.inlined {
		part := sub.name + " " + sub.signature()
		if sub.tag != "" {
			part += " " + sub.tag
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return f.typ + "struct{}"
	}
	return f.typ + "struct { " + strings.Join(parts, "; ") + " }"
}

func (r *goRender) typeName(shape *models.TypeNode) string {
	if name, ok := r.names[shape]; ok {
		return name
	}
	return shape.AssignedName
}

func (r *goRender) fields(shape *models.TypeNode) ([]goField, error) {
	list := shape.FieldList()
	taken := make(memberSet, len(list))
	fields := make([]goField, 0, len(list))
	for _, field := range list {
		f := goField{name: r.fieldName(field.JSONKey, taken)}

		if m, ok := r.opts.typeMapping(field.JSONKey); ok {
			f.typ = m.Type
			if m.Import != "" {
				r.imports[m.Import] = true
			}
			if m.Comment != "" {
				f.docs = append(f.docs, m.Comment)
			}
		} else {
			f.typ, f.inline = r.goType(field.Type, field.Nullable, field.Optional)
			if f.inline != nil {
				inner, err := r.fields(f.inline)
				if err != nil {
					return nil, err
				}
				f.inlined = inner
			}
		}

		if r.opts.ExamplesInDocumentation {
			if ex := examplesText(field); ex != "" {
				f.docs = append(f.docs, ex)
			}
		}

		tag, err := r.tag(shape, field, f.name)
		if err != nil {
			return nil, err
		}
		f.tag = tag
		fields = append(fields, f)
	}
	// Getters share the namespace of the fields.
	if r.opts.UseProperties {
		for i := range fields {
			fields[i].getter = taken.reserve("Get" + fields[i].name)
		}
	}
	return fields, nil
}

func (r *goRender) tag(shape *models.TypeNode, field *models.FieldInfo, name string) (string, error) {
	if r.opts.ExplicitDeserialization {
		if field.ContainsSpecialChars || !strings.EqualFold(name, field.JSONKey) {
			return "", &errors.UnsupportedShapeError{
				Writer: "Go",
				Shape:  shape.AssignedName,
				Field:  field.JSONKey,
				Reason: fmt.Sprintf("the key does not match field %s and explicit deserialization writes no json tag", name),
			}
		}
		return "", nil
	}
	if !validTagName(field.JSONKey) {
		return "", &errors.UnsupportedShapeError{
			Writer: "Go",
			Shape:  shape.AssignedName,
			Field:  field.JSONKey,
			Reason: "the key cannot be written in a json struct tag",
		}
	}
	opts := ""
	if field.Optional {
		opts = ",omitempty"
	}
	return fmt.Sprintf("`json:\"%s%s\"`", field.JSONKey, opts), nil
}

// validTagName reports whether encoding/json accepts key as a tag name.
func validTagName(key string) bool {
	if key == "" {
		return false
	}
	for _, c := range key {
		switch {
		case strings.ContainsRune("!#$%&()*+-./:;<=>?@[]^_{|}~ ", c):
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c > 0x7f:
		default:
			return false
		}
	}
	return true
}

// fieldName derives a unique exported field name for key.
func (r *goRender) fieldName(key string, taken memberSet) string {
	name := r.opts.FieldNames[key]
	if name == "" {
		if r.opts.UsePascalCase {
			name = strcase.ToCamel(key)
		} else {
			name = upperFirst(sanitizeIdentifier(key))
		}
	}
	return taken.reserve(exportedName(name))
}

// exportedName makes name start with an upper case letter so that
// encoding/json can set the field.
func exportedName(name string) string {
	if name == "" {
		return "Field"
	}
	c, size := utf8.DecodeRuneInString(name)
	switch {
	case unicode.IsUpper(c):
		return name
	case unicode.IsLetter(c) && unicode.IsUpper(unicode.ToUpper(c)):
		return string(unicode.ToUpper(c)) + name[size:]
	}
	return "F" + name
}

// goType returns the type of a field. For shapes written inline it
// returns the type prefix and the shape. nullable is the flag of the slot
// holding n.
func (r *goRender) goType(n *models.TypeNode, nullable, optional bool) (string, *models.TypeNode) {
	switch n.Kind {
	case models.Boolean:
		return pointerIf("bool", n.Nullable), nil
	case models.Integer:
		return pointerIf("int", n.Nullable), nil
	case models.Long:
		return pointerIf("int64", n.Nullable), nil
	case models.Float:
		return pointerIf("float64", n.Nullable), nil
	case models.Date:
		r.imports["time"] = true
		return pointerIf("time.Time", n.Nullable), nil
	case models.String:
		return "string", nil
	case models.Array:
		elem, inline := r.elementType(n.Element, n.ElementNullable)
		return "[]" + elem, inline
	case models.Dictionary:
		elem, inline := r.elementType(n.Element, n.ElementNullable)
		return "map[string]" + elem, inline
	case models.Object:
		prefix := pointerIf("", nullable || optional)
		if r.inline[n] {
			return prefix, n
		}
		return prefix + r.typeName(n), nil
	default:
		return "interface{}", nil
	}
}

// elementType renders slice and map elements. Named structs are stored by
// pointer.
func (r *goRender) elementType(n *models.TypeNode, nullable bool) (string, *models.TypeNode) {
	if n.Kind == models.Object && !r.inline[n] {
		return "*" + r.typeName(n), nil
	}
	return r.goType(n, nullable, false)
}

func pointerIf(typ string, ok bool) string {
	if ok {
		return "*" + typ
	}
	return typ
}

func (r *goRender) writeFields(b *codeBuffer, fields []goField) {
	// Calculate the maximum width for field names and types for proper alignment
	maxNameWidth := 0
	maxTypeWidth := 0
	for _, f := range fields {
		if len(f.name) > maxNameWidth {
			maxNameWidth = len(f.name)
		}
		if f.inline == nil && len(f.typ) > maxTypeWidth {
			maxTypeWidth = len(f.typ)
		}
	}

	for _, f := range fields {
		for _, doc := range f.docs {
			b.linef("// %s", doc)
		}
		if f.inline != nil {
			b.linef("%-*s %sstruct {", maxNameWidth, f.name, f.typ)
			b.indent()
			r.writeFields(b, f.inlined)
			b.dedent()
			b.line(strings.TrimRight("} "+f.tag, " "))
			continue
		}
		if f.tag == "" {
			b.linef("%-*s %s", maxNameWidth, f.name, f.typ)
			continue
		}
		b.linef("%-*s %-*s %s", maxNameWidth, f.name, maxTypeWidth, f.typ, f.tag)
	}
}

// receiverName is the lower-cased first letter of the type, unless that
// names a declared type the getter body may refer to.
func (r *goRender) receiverName(typeName string) string {
	c, _ := utf8.DecodeRuneInString(typeName)
	recv := string(unicode.ToLower(c))
	if !unicode.IsLetter(c) {
		recv = "s"
	}
	for {
		if _, taken := r.declared[recv]; !taken {
			return recv
		}
		recv += "v"
	}
}

func (r *goRender) writeGetters(b *codeBuffer, typeName string, fields []goField) {
	recv := r.receiverName(typeName)
	for _, f := range fields {
		typ := f.signature()
		b.blank()
		b.linef("// %s returns the %s field, or its zero value when %s is nil.", f.getter, f.name, recv)
		b.linef("func (%s *%s) %s() %s {", recv, typeName, f.getter, typ)
		b.indent()
		b.linef("if %s == nil {", recv)
		b.indent()
		b.linef("var zero %s", typ)
		b.line("return zero")
		b.dedent()
		b.line("}")
		b.linef("return %s.%s", recv, f.name)
		b.dedent()
		b.line("}")
	}
}

func (r *goRender) writeConstructor(b *codeBuffer, typeName string, fields []goField) {
	ctor := "New" + upperFirst(typeName)
	if r.opts.InternalVisibility {
		ctor = "new" + upperFirst(typeName)
	}

	taken := make(memberSet, len(fields)+1)
	taken.reserve(typeName)
	params := make([]string, len(fields))
	decl := make([]string, len(fields))
	for i, f := range fields {
		name := lowerFirst(f.name)
		if goKeywords[name] {
			name += "_"
		}
		params[i] = taken.reserve(name)
		decl[i] = params[i] + " " + f.signature()
	}

	b.blank()
	b.linef("// %s creates a %s.", ctor, typeName)
	b.linef("func %s(%s) *%s {", ctor, strings.Join(decl, ", "), typeName)
	b.indent()
	if len(fields) == 0 {
		b.linef("return &%s{}", typeName)
	} else {
		width := 0
		for _, f := range fields {
			if len(f.name)+1 > width {
				width = len(f.name) + 1
			}
		}
		b.linef("return &%s{", typeName)
		b.indent()
		for i, f := range fields {
			b.linef("%-*s %s,", width, f.name+":", params[i])
		}
		b.dedent()
		b.line("}")
	}
	b.dedent()
	b.line("}")
}

// writeImports writes the import block, standard library first.
func writeImports(b *codeBuffer, imports map[string]bool) {
	if len(imports) == 0 {
		return
	}
	sorted := make([]string, 0, len(imports))
	for imp := range imports {
		sorted = append(sorted, imp)
	}
	sort.Strings(sorted)

	var stdLibImports, thirdPartyImports []string
	for _, imp := range sorted {
		if !strings.Contains(imp, ".") { // Standard library imports don't have dots
			stdLibImports = append(stdLibImports, imp)
		} else {
			thirdPartyImports = append(thirdPartyImports, imp)
		}
	}

	b.blank()
	b.line("import (")
	b.indent()
	for _, imp := range stdLibImports {
		b.linef("%q", imp)
	}
	if len(stdLibImports) > 0 && len(thirdPartyImports) > 0 {
		b.blank()
	}
	for _, imp := range thirdPartyImports {
		b.linef("%q", imp)
	}
	b.dedent()
	b.line(")")
}

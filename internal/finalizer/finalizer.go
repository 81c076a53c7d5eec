// Package finalizer turns the working type graph into the immutable graph
// consumed by code writers: pending kinds are resolved, equal object shapes
// are unified, and every shape receives a unique class name.
package finalizer

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mcncl/jsonclassgen/internal/errors"
	"github.com/mcncl/jsonclassgen/internal/lattice"
	"github.com/mcncl/jsonclassgen/internal/models"
)

// DefaultMainClass names the unnamed root when Options.MainClass is empty.
const DefaultMainClass = "Root"

// WrappedFieldKey is the member holding a root value that is not an object.
const WrappedFieldKey = "value"

// fallbackClassName is used for keys with no letters or digits.
const fallbackClassName = "Class"

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options controls naming.
type Options struct {
	MainClass string
	// PrefixParentNames prepends the enclosing class name to nested class
	// names, e.g. UserProfile instead of Profile.
	PrefixParentNames bool
	// SingularizeArrayNames derives element class names from the singular
	// of the array key, e.g. Item for "items".
	SingularizeArrayNames bool
	MaxExamples           int
}

// DefaultOptions returns the options used by the command line by default.
func DefaultOptions() Options {
	return Options{
		MainClass:             DefaultMainClass,
		SingularizeArrayNames: true,
		MaxExamples:           lattice.DefaultMaxExamples,
	}
}

// Finalize resolves graph into a FinalizedGraph. graph is not modified.
func Finalize(graph *models.Graph, opts Options) (*models.FinalizedGraph, error) {
	if graph == nil || len(graph.Roots) == 0 {
		return nil, errors.NewAnalysisError("nothing to finalize: no samples were inferred", errors.ErrNoInput)
	}
	if opts.MainClass == "" {
		opts.MainClass = DefaultMainClass
	}
	if opts.MaxExamples <= 0 {
		opts.MaxExamples = lattice.DefaultMaxExamples
	}

	f := &finalizer{
		opts:  opts,
		names: newNameRegistry(),
		dedup: newDeduper(opts.MaxExamples),
	}

	roots := make([]models.RootShape, 0, len(graph.Roots))
	for _, slot := range graph.Roots {
		shape, wrapped := wrapRoot(slot.Type.Clone())
		resolvePending(shape, make(map[*models.TypeNode]bool))
		roots = append(roots, models.RootShape{
			Shape:     shape,
			FromArray: slot.FromArray,
			Wrapped:   wrapped,
			Samples:   slot.Samples,
			Name:      slot.Name,
		})
	}

	for i := range roots {
		roots[i].Shape = f.dedup.visitRoot(roots[i].Shape)
	}

	// Roots are named before anything nested so that the main class keeps
	// its configured name.
	for i := range roots {
		name := roots[i].Name
		if name == "" {
			name = opts.MainClass
		}
		roots[i].Name = f.assign(roots[i].Shape, className(name, DefaultMainClass))
	}
	for i := range roots {
		f.nameFields(roots[i].Shape)
	}

	for _, shape := range f.shapes {
		annotateFields(shape)
	}

	slog.Debug("finalized type graph", "roots", len(roots), "shapes", len(f.shapes))
	return &models.FinalizedGraph{Shapes: f.shapes, Roots: roots}, nil
}

type finalizer struct {
	opts   Options
	names  *nameRegistry
	dedup  *deduper
	shapes []*models.TypeNode
}

// assign names shape unless it already has a name and returns the name.
func (f *finalizer) assign(shape *models.TypeNode, base string) string {
	if shape.AssignedName != "" {
		return shape.AssignedName
	}
	shape.AssignedName = f.names.reserve(base)
	f.shapes = append(f.shapes, shape)
	return shape.AssignedName
}

// nameFields walks shape in pre-order, naming each object shape after the
// first field that refers to it.
func (f *finalizer) nameFields(shape *models.TypeNode) {
	for _, field := range shape.FieldList() {
		f.nameType(field.Type, shape.AssignedName, field.JSONKey, false)
	}
}

func (f *finalizer) nameType(n *models.TypeNode, parent, key string, element bool) {
	switch n.Kind {
	case models.Array, models.Dictionary:
		f.nameType(n.Element, parent, key, true)
	case models.Object:
		if n.AssignedName != "" {
			return
		}
		base := className(key, fallbackClassName)
		if element && f.opts.SingularizeArrayNames {
			base = singularize(base)
		}
		if f.opts.PrefixParentNames {
			base = parent + base
		}
		f.assign(n, base)
		f.nameFields(n)
	}
}

// wrapRoot gives non-object roots a synthetic object with a single field.
func wrapRoot(root *models.TypeNode) (*models.TypeNode, bool) {
	if root.Kind == models.Object {
		return root, false
	}
	wrapper := models.NewNode(models.Object)
	wrapper.IsRoot = true
	wrapper.NameHint = root.NameHint
	wrapper.Observations = 1
	root.IsRoot = false

	field := wrapper.AddField(WrappedFieldKey)
	field.Type = root
	field.Occurrences = 1
	return wrapper, true
}

// resolvePending replaces slots that were never observed with
// NonConstrained and records on each slot whether null was seen there.
func resolvePending(n *models.TypeNode, seen map[*models.TypeNode]bool) {
	if n == nil || seen[n] {
		return
	}
	seen[n] = true
	switch n.Kind {
	case models.Unknown:
		n.Kind = models.NonConstrained
	case models.Array, models.Dictionary:
		if n.Element == nil {
			n.Element = models.NewNode(models.Unknown)
		}
		resolvePending(n.Element, seen)
		n.ElementNullable = n.ElementNullable || sawNull(n.Element)
	case models.Object:
		for _, field := range n.FieldList() {
			resolvePending(field.Type, seen)
			field.Nullable = field.Nullable || sawNull(field.Type)
		}
	}
}

func sawNull(n *models.TypeNode) bool {
	return n.Nullable || n.Kind == models.NullableSomething
}

// annotateFields derives the per-field flags used by writers. A shape may
// be shared by several slots, so the shape itself is never nullable.
func annotateFields(shape *models.TypeNode) {
	shape.Nullable = false
	for _, field := range shape.FieldList() {
		field.Optional = field.Occurrences < shape.Observations
		field.ContainsSpecialChars = !bareIdentifier.MatchString(field.JSONKey)
	}
}

// deduper unifies compatible object shapes: shapes with the same field
// names whose field types merge without widening to Anything. Shapes are
// visited children first, so nested shapes are compared by identity.
type deduper struct {
	merger    lattice.Merger
	buckets   map[string][]*models.TypeNode
	canonical map[*models.TypeNode]*models.TypeNode
}

func newDeduper(maxExamples int) *deduper {
	return &deduper{
		merger:    lattice.Merger{MaxExamples: maxExamples},
		buckets:   make(map[string][]*models.TypeNode),
		canonical: make(map[*models.TypeNode]*models.TypeNode),
	}
}

// visitRoot canonicalizes everything below root. A root is never merged
// into another shape, but later nested shapes may be merged into it.
func (d *deduper) visitRoot(root *models.TypeNode) *models.TypeNode {
	d.visitFields(root)
	d.canonical[root] = root
	key := fieldSet(root)
	d.buckets[key] = append(d.buckets[key], root)
	return root
}

func (d *deduper) visit(n *models.TypeNode) *models.TypeNode {
	switch n.Kind {
	case models.Array, models.Dictionary:
		n.Element = d.visit(n.Element)
		return n
	case models.Object:
		if c, ok := d.canonical[n]; ok {
			return c
		}
		d.visitFields(n)
		key := fieldSet(n)
		for _, c := range d.buckets[key] {
			if c != n && compatible(c, n) {
				d.unify(c, n)
				d.canonical[n] = c
				return c
			}
		}
		d.buckets[key] = append(d.buckets[key], n)
		d.canonical[n] = n
		return n
	default:
		return n
	}
}

func (d *deduper) visitFields(n *models.TypeNode) {
	for _, field := range n.FieldList() {
		field.Type = d.visit(field.Type)
	}
}

// fieldSet is the sorted list of field names of an object.
func fieldSet(n *models.TypeNode) string {
	fields := n.FieldList()
	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, strconv.Quote(field.JSONKey))
	}
	sort.Strings(keys)
	return "{" + strings.Join(keys, ",") + "}"
}

// compatible reports whether two objects with the same field names can be
// unified. Both have been visited, so nested shapes are canonical.
func compatible(a, b *models.TypeNode) bool {
	for _, af := range a.FieldList() {
		bf, ok := b.Field(af.JSONKey)
		if !ok || !compatibleType(af.Type, bf.Type) {
			return false
		}
	}
	return true
}

func compatibleType(a, b *models.TypeNode) bool {
	if a == b {
		return true
	}
	fa, fb := lattice.Family(a.Kind), lattice.Family(b.Kind)
	switch {
	case fa == "any" || fb == "any":
		return true
	case a.Kind == models.Object || b.Kind == models.Object:
		return false
	case a.Kind.HasElement() && a.Kind == b.Kind:
		return compatibleType(a.Element, b.Element)
	}
	return fa == fb
}

// unify merges dup into canon. Nullability of a shape stays on the slots
// that refer to it.
func (d *deduper) unify(canon, dup *models.TypeNode) {
	canon.Observations += dup.Observations
	for _, df := range dup.FieldList() {
		cf := canon.AddField(df.JSONKey)
		cf.Occurrences += df.Occurrences
		cf.Nullable = cf.Nullable || df.Nullable
		cf.Examples = lattice.MergeExamples(cf.Examples, df.Examples, d.merger.MaxExamples)
		cf.Type = d.unifyType(cf.Type, df.Type)
	}
}

func (d *deduper) unifyType(a, b *models.TypeNode) *models.TypeNode {
	switch {
	case a == b:
		return a
	case b.Kind == models.NonConstrained:
		a.Nullable = a.Nullable || b.Nullable
		return a
	case a.Kind == models.NonConstrained:
		b.Nullable = a.Nullable || b.Nullable
		return b
	case a.Kind.HasElement() && a.Kind == b.Kind:
		a.Nullable = a.Nullable || b.Nullable
		a.ElementNullable = a.ElementNullable || b.ElementNullable
		a.Element = d.unifyType(a.Element, b.Element)
		return a
	default:
		return d.merger.Merge(a, b)
	}
}

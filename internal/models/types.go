package models

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the structural kind of a TypeNode.
type Kind int

const (
	// Unknown marks a slot that has not been observed yet, such as the
	// element of an array that was only ever empty.
	Unknown Kind = iota
	Anything
	NonConstrained
	NullableSomething
	Boolean
	Integer
	Long
	Float
	String
	Date
	Array
	Dictionary
	Object
)

var kindNames = map[Kind]string{
	Unknown:           "Pending",
	Anything:          "Anything",
	NonConstrained:    "NonConstrained",
	NullableSomething: "NullableSomething",
	Boolean:           "Boolean",
	Integer:           "Integer",
	Long:              "Long",
	Float:             "Float",
	String:            "String",
	Date:              "Date",
	Array:             "Array",
	Dictionary:        "Dictionary",
	Object:            "Object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(?)"
}

// IsNumeric reports whether k is one of Integer, Long or Float.
func (k Kind) IsNumeric() bool {
	return k == Integer || k == Long || k == Float
}

// NullableEligible reports whether a null observation changes how the kind
// is rendered, i.e. it is a value type in most target languages.
func (k Kind) NullableEligible() bool {
	switch k {
	case Boolean, Integer, Long, Float, Date:
		return true
	}
	return false
}

// HasElement reports whether nodes of this kind carry an Element node.
func (k Kind) HasElement() bool {
	return k == Array || k == Dictionary
}

// TypeNode is a slot in the type graph.
//
// Nullable is tracked for every kind. Writers only change the rendered type
// for NullableEligible kinds; for reference kinds it is a hint. Object
// shapes are shared once finalized, so their nullability lives on the
// referring slot: FieldInfo.Nullable or ElementNullable.
type TypeNode struct {
	Kind     Kind
	Nullable bool

	// Element is the merged element type of an Array or the value type of a
	// Dictionary.
	Element         *TypeNode
	ElementNullable bool

	// Fields holds Object members in first-seen order.
	Fields *orderedmap.OrderedMap[string, *FieldInfo]

	// Observations counts how many object values were merged into this
	// Object node; fields seen fewer times are optional.
	Observations int

	// NameHint is the JSON key (or sample name) the node was first seen under.
	NameHint     string
	AssignedName string
	IsRoot       bool
}

// FieldInfo is one member of an Object node.
type FieldInfo struct {
	JSONKey              string
	Type                 *TypeNode
	Examples             []string
	ContainsSpecialChars bool
	Occurrences          int
	Optional             bool
	// Nullable is set when null was seen for this member.
	Nullable bool
}

// NewNode creates a node of the given kind.
func NewNode(kind Kind) *TypeNode {
	n := &TypeNode{Kind: kind}
	if kind == Object {
		n.Fields = orderedmap.New[string, *FieldInfo]()
	}
	return n
}

// Field returns the member stored under key.
func (n *TypeNode) Field(key string) (*FieldInfo, bool) {
	if n.Fields == nil {
		return nil, false
	}
	return n.Fields.Get(key)
}

// AddField returns the member stored under key, creating a pending one at
// the end of the field order when it does not exist.
func (n *TypeNode) AddField(key string) *FieldInfo {
	if n.Fields == nil {
		n.Fields = orderedmap.New[string, *FieldInfo]()
	}
	if f, ok := n.Fields.Get(key); ok {
		return f
	}
	f := &FieldInfo{JSONKey: key, Type: NewNode(Unknown)}
	n.Fields.Set(key, f)
	return f
}

// FieldList returns members in order.
func (n *TypeNode) FieldList() []*FieldInfo {
	if n.Fields == nil {
		return nil
	}
	fields := make([]*FieldInfo, 0, n.Fields.Len())
	for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, pair.Value)
	}
	return fields
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *TypeNode) Clone() *TypeNode {
	if n == nil {
		return nil
	}
	c := *n
	c.Element = n.Element.Clone()
	if n.Fields != nil {
		c.Fields = orderedmap.New[string, *FieldInfo]()
		for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
			f := *pair.Value
			f.Type = pair.Value.Type.Clone()
			f.Examples = append([]string(nil), pair.Value.Examples...)
			c.Fields.Set(pair.Key, &f)
		}
	}
	return &c
}

// Describe renders a stable structural signature, e.g.
// "Object{id:Integer,tags:Array<String>}". Named nested objects are written
// by name. A "?" suffix marks nullable slots.
func (n *TypeNode) Describe() string {
	var sb strings.Builder
	n.describe(&sb, true, false)
	return sb.String()
}

func (n *TypeNode) describe(sb *strings.Builder, top, slot bool) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case Array, Dictionary:
		sb.WriteString(n.Kind.String())
		sb.WriteByte('<')
		n.Element.describe(sb, false, n.ElementNullable)
		sb.WriteByte('>')
	case Object:
		if !top && n.AssignedName != "" {
			sb.WriteString(n.AssignedName)
			break
		}
		sb.WriteString("Object{")
		for i, f := range n.FieldList() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.JSONKey)
			sb.WriteByte(':')
			f.Type.describe(sb, false, f.Nullable)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(n.Kind.String())
	}
	// A named shape is only nullable where it is used.
	if (n.Nullable || slot) && n.Kind != NullableSomething && !(top && n.AssignedName != "") {
		sb.WriteByte('?')
	}
}

// RootSlot is the merged type of every sample sharing one root name.
type RootSlot struct {
	Name      string // empty for the main class
	Type      *TypeNode
	FromArray bool // at least one sample was a top-level array
	Samples   int
}

// Graph is the working result of inference. It is owned by a single
// inference call and is not safe for concurrent use.
type Graph struct {
	Roots []*RootSlot
}

// Root returns the slot registered under name.
func (g *Graph) Root(name string) *RootSlot {
	for _, r := range g.Roots {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RootShape is a designated root of a finalized graph.
type RootShape struct {
	Name      string
	Shape     *TypeNode
	FromArray bool
	// Wrapped is set when the sample root was not an object and Shape is a
	// synthetic object holding it in a single "value" field.
	Wrapped bool
	Samples int
}

// FinalizedGraph is the immutable input of the code writers.
type FinalizedGraph struct {
	// Shapes lists every distinct object shape, roots first, each shape
	// before the shapes its fields refer to.
	Shapes []*TypeNode
	Roots  []RootShape
}

// Main returns the first root, or nil for an empty graph.
func (g *FinalizedGraph) Main() *RootShape {
	if len(g.Roots) == 0 {
		return nil
	}
	return &g.Roots[0]
}

// Shape looks a shape up by its assigned name.
func (g *FinalizedGraph) Shape(name string) *TypeNode {
	for _, s := range g.Shapes {
		if s.AssignedName == name {
			return s
		}
	}
	return nil
}

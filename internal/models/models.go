package models

import (
	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONValue is a generic type to represent any JSON value.
// It is one of nil, bool, json.Number, string, JSONArray or *JSONObject.
type JSONValue interface{}

// JSONObject represents a JSON object. Members keep the order in which they
// first appeared in the document; a repeated key keeps its first position and
// its last value.
type JSONObject struct {
	members *orderedmap.OrderedMap[string, JSONValue]
}

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// NewJSONObject creates an empty object.
func NewJSONObject() *JSONObject {
	return &JSONObject{members: orderedmap.New[string, JSONValue]()}
}

// Set adds or replaces a member.
func (o *JSONObject) Set(key string, value JSONValue) {
	o.members.Set(key, value)
}

// Get returns the member stored under key.
func (o *JSONObject) Get(key string) (JSONValue, bool) {
	return o.members.Get(key)
}

// Len returns the number of members.
func (o *JSONObject) Len() int {
	return o.members.Len()
}

// Keys returns member names in document order.
func (o *JSONObject) Keys() []string {
	keys := make([]string, 0, o.members.Len())
	for pair := o.members.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each calls fn for every member in document order.
func (o *JSONObject) Each(fn func(key string, value JSONValue)) {
	for pair := o.members.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Number is the literal representation of a JSON number.
type Number = json.Number

// Document is one top-level JSON value read from an input.
type Document struct {
	Source string // file name or "<stdin>"
	Index  int    // position of the value inside Source
	Value  JSONValue
}

// IntermediateRepresentation is a structure to hold the parsed JSON data
// in a way that's easy for the analyzer to work with.
type IntermediateRepresentation struct {
	Documents   []Document
	RootIsArray bool // True if every document is a JSON array
}

// Root returns the first document value, or nil when there is none.
func (ir IntermediateRepresentation) Root() JSONValue {
	if len(ir.Documents) == 0 {
		return nil
	}
	return ir.Documents[0].Value
}

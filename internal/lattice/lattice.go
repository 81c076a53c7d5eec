// Package lattice defines how two observations of the same slot combine.
package lattice

import (
	"github.com/mcncl/jsonclassgen/internal/models"
)

// DefaultMaxExamples bounds the examples kept per field.
const DefaultMaxExamples = 3

// Merger combines observed type nodes.
type Merger struct {
	MaxExamples int
}

// Merge combines obs into into using a Merger with default settings.
func Merge(into, obs *models.TypeNode) *models.TypeNode {
	return Merger{MaxExamples: DefaultMaxExamples}.Merge(into, obs)
}

// Merge widens into so that it also describes obs and returns the result.
// into is updated in place when its kind survives; obs may be adopted into
// the result and must not be reused by the caller.
//
// The result never narrows: nullability is OR'ed, Integer < Long < Float,
// Date and String give String, and any other pair of incompatible kinds
// gives Anything.
func (m Merger) Merge(into, obs *models.TypeNode) *models.TypeNode {
	if into == nil {
		return obs
	}
	if obs == nil {
		return into
	}
	nullable := into.Nullable || obs.Nullable

	switch {
	case obs.Kind == models.Unknown:
		into.Nullable = nullable
		return into
	case into.Kind == models.Unknown:
		obs.Nullable = nullable
		adoptHint(obs, into)
		return obs
	case obs.Kind == models.NullableSomething:
		if into.Kind != models.NullableSomething {
			into.Nullable = true
		}
		return into
	case into.Kind == models.NullableSomething:
		obs.Nullable = true
		adoptHint(obs, into)
		return obs
	case into.Kind == models.Anything || obs.Kind == models.Anything:
		return anything(into, nullable)
	}

	if into.Kind == obs.Kind {
		into.Nullable = nullable
		switch into.Kind {
		case models.Array, models.Dictionary:
			into.Element = m.Merge(into.Element, obs.Element)
		case models.Object:
			m.mergeFields(into, obs)
		}
		return into
	}

	if into.Kind.IsNumeric() && obs.Kind.IsNumeric() {
		into.Kind = widerNumber(into.Kind, obs.Kind)
		into.Nullable = nullable
		return into
	}

	if isText(into.Kind) && isText(obs.Kind) {
		// A single non-date observation demotes the slot for good.
		into.Kind = models.String
		into.Nullable = nullable
		return into
	}

	return anything(into, nullable)
}

func (m Merger) mergeFields(into, obs *models.TypeNode) {
	into.Observations += obs.Observations
	for _, of := range obs.FieldList() {
		f := into.AddField(of.JSONKey)
		f.Type = m.Merge(f.Type, of.Type)
		f.Occurrences += of.Occurrences
		f.Examples = MergeExamples(f.Examples, of.Examples, m.MaxExamples)
	}
}

// MergeExamples appends the values of extra that are not in examples yet,
// keeping at most limit entries.
func MergeExamples(examples, extra []string, limit int) []string {
	for _, e := range extra {
		if len(examples) >= limit {
			break
		}
		if !contains(examples, e) {
			examples = append(examples, e)
		}
	}
	return examples
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func anything(n *models.TypeNode, nullable bool) *models.TypeNode {
	n.Kind = models.Anything
	n.Nullable = nullable
	n.Element = nil
	n.Fields = nil
	n.Observations = 0
	return n
}

func adoptHint(dst, src *models.TypeNode) {
	if dst.NameHint == "" {
		dst.NameHint = src.NameHint
	}
	dst.IsRoot = dst.IsRoot || src.IsRoot
}

func widerNumber(a, b models.Kind) models.Kind {
	if a == models.Float || b == models.Float {
		return models.Float
	}
	if a == models.Long || b == models.Long {
		return models.Long
	}
	return models.Integer
}

func isText(k models.Kind) bool {
	return k == models.String || k == models.Date
}

// Family groups kinds that merge without becoming Anything. Two object
// shapes whose fields have equal families can be unified.
func Family(k models.Kind) string {
	switch k {
	case models.Integer, models.Long, models.Float:
		return "number"
	case models.String, models.Date:
		return "text"
	case models.Unknown, models.NullableSomething, models.NonConstrained:
		return "any"
	default:
		return k.String()
	}
}

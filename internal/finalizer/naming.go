package finalizer

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
)

// nameRegistry hands out class names that are unique ignoring case.
type nameRegistry struct {
	fold  cases.Caser
	taken map[string]struct{}
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{
		fold:  cases.Fold(),
		taken: make(map[string]struct{}),
	}
}

// reserve returns base, or base with the first free "_N" suffix (N >= 2).
func (r *nameRegistry) reserve(base string) string {
	name := base
	for n := 2; r.isTaken(name); n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	r.taken[r.fold.String(name)] = struct{}{}
	return name
}

func (r *nameRegistry) isTaken(name string) bool {
	_, ok := r.taken[r.fold.String(name)]
	return ok
}

// className converts a JSON key or sample name into a PascalCase class name.
// fallback is used when nothing usable is left of s.
func className(s, fallback string) string {
	name := strcase.ToCamel(s)
	if name == "" {
		name = fallback
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// knownSingulars lists irregular and invariant plurals.
var knownSingulars = map[string]string{
	"series":    "series",
	"status":    "status",
	"analysis":  "analysis",
	"species":   "species",
	"news":      "news",
	"goods":     "goods",
	"children":  "child",
	"people":    "person",
	"men":       "man",
	"women":     "woman",
	"teeth":     "tooth",
	"feet":      "foot",
	"mice":      "mouse",
	"geese":     "goose",
	"data":      "data",
	"media":     "media",
	"addresses": "address",
}

// singularize attempts to convert a plural name to a singular one.
func singularize(plural string) string {
	// Only the last word of a PascalCase name is inflected.
	start := 0
	for i := len(plural) - 1; i > 0; i-- {
		if plural[i] >= 'A' && plural[i] <= 'Z' {
			start = i
			break
		}
	}
	prefix, word := plural[:start], plural[start:]
	if singular, ok := knownSingulars[strings.ToLower(word)]; ok {
		// Preserve original casing if the first letter was capitalized
		if word[0] >= 'A' && word[0] <= 'Z' {
			singular = strings.ToUpper(singular[:1]) + singular[1:]
		}
		return prefix + singular
	}

	lowerPlural := strings.ToLower(plural)

	switch {
	case strings.HasSuffix(lowerPlural, "ies") && len(lowerPlural) > 3:
		return plural[:len(plural)-3] + "y"
	case strings.HasSuffix(lowerPlural, "sses"),
		strings.HasSuffix(lowerPlural, "xes"),
		strings.HasSuffix(lowerPlural, "ches"),
		strings.HasSuffix(lowerPlural, "shes"):
		return plural[:len(plural)-2]
	// Avoid removing 's' from words like 'bus', 'gas', 'class'
	case strings.HasSuffix(lowerPlural, "ss"),
		strings.HasSuffix(lowerPlural, "us"), // e.g. status, virus
		strings.HasSuffix(lowerPlural, "is"): // e.g. analysis, basis
		return plural
	case strings.HasSuffix(lowerPlural, "s") && len(lowerPlural) > 1:
		return plural[:len(plural)-1]
	}
	return plural // Default to original if no simple rule applies
}

package lattice

import (
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcncl/jsonclassgen/internal/models"
)

// dateCacheSize bounds the memo of date detection results.
const dateCacheSize = 1024

// dateLayouts are the accepted date/time forms. Every layout carries a time
// of day; plain dates stay strings. Fractional seconds are accepted by
// time.Parse after the seconds field even though the layouts omit them.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// Classifier maps scalar JSON values to kinds.
type Classifier struct {
	detectDates bool
	dates       *lru.Cache[string, bool]
}

// NewClassifier creates a Classifier. With detectDates unset every string is
// classified as String.
func NewClassifier(detectDates bool) *Classifier {
	c := &Classifier{detectDates: detectDates}
	if detectDates {
		// lru.New only fails for a non-positive size.
		c.dates, _ = lru.New[string, bool](dateCacheSize)
	}
	return c
}

// Number classifies a JSON number literal. Literals with a fraction or
// exponent are Float; integers are Integer when they fit 32 bits, Long when
// they fit 64 bits and Float beyond that.
func (c *Classifier) Number(n models.Number) models.Kind {
	s := string(n)
	if strings.ContainsAny(s, ".eE") {
		return models.Float
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return models.Float
	}
	if v >= -1<<31 && v <= 1<<31-1 {
		return models.Integer
	}
	return models.Long
}

// String classifies a JSON string.
func (c *Classifier) String(s string) models.Kind {
	if c.IsDate(s) {
		return models.Date
	}
	return models.String
}

// IsDate reports whether s is a complete date and time in one of the
// accepted layouts.
func (c *Classifier) IsDate(s string) bool {
	if !c.detectDates || !looksLikeDate(s) {
		return false
	}
	if ok, found := c.dates.Get(s); found {
		return ok
	}
	ok := parseDate(s)
	c.dates.Add(s, ok)
	return ok
}

// looksLikeDate rejects most strings before any layout is tried.
func looksLikeDate(s string) bool {
	return len(s) >= len("2006-01-02T15:04:05") && s[4] == '-' && s[7] == '-' && (s[10] == 'T' || s[10] == ' ')
}

func parseDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// Scalar builds the node observed for a scalar JSON value. Objects and
// arrays are not scalars and yield nil.
func (c *Classifier) Scalar(v models.JSONValue) *models.TypeNode {
	switch val := v.(type) {
	case nil:
		return models.NewNode(models.NullableSomething)
	case bool:
		return models.NewNode(models.Boolean)
	case models.Number:
		return models.NewNode(c.Number(val))
	case string:
		return models.NewNode(c.String(val))
	}
	return nil
}

// Package validation collects per-field request violations.
package validation

import (
	"sort"
	"strings"
)

// Violations maps a field name to its violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the offending field names in lexical order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range v.Fields() {
		parts = append(parts, f+": "+v[f])
	}
	return strings.Join(parts, ", ")
}

// Required flags a blank value.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// RangeFloat flags a value outside [minVal, maxVal]. NaN is never in range.
func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if !(val >= minVal && val <= maxVal) {
		v[field] = "out_of_range"
	}
}

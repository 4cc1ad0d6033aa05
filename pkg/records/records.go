// Package records defines the generic row type passed between pipeline
// stages. A Record is a flat field-name → value map; values are limited to
// nil, string, int64, float64, and bool once a record has been conformed to
// a schema (see internal/schema).
package records

import "encoding/json"

// Record is a single flat row keyed by field name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the named field as a string. Missing, nil, or non-string
// values yield ("", false).
func (r Record) String(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

// Int64 returns the named field as an int64. Whole float64 values (the
// usual product of JSON decoding) are accepted; anything else yields
// (0, false).
func (r Record) Int64(field string) (int64, bool) {
	switch v := r[field].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float64 returns the named field as a float64.
func (r Record) Float64(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Package json turns streams of JSON objects into records.Record maps.
//
// Both input feeds ship as files containing one or more top-level JSON
// objects, frequently pretty-printed across multiple lines (the log feed)
// or one object per file (the catalog feed). The decoder therefore accepts:
//
//   - a single multiline object
//   - a concatenated stream of objects (NDJSON or pretty-printed)
//   - a top-level array of objects
//
// Anything else at the top level is an error. Field typing is not handled
// here; records are conformed against the schema registry by the readers.
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"songlake/pkg/records"
)

// Decoder provides a record-oriented API over encoding/json.Decoder.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder constructs a Decoder from an io.Reader. UseNumber is enabled
// so that the schema registry decides how numeric values are mapped.
func NewDecoder(r io.Reader) *Decoder {
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d}
}

// Next reads the next top-level JSON value and converts it into records.
// An object yields one record; an array of objects yields one record per
// element. io.EOF is returned when the stream is exhausted.
func (d *Decoder) Next() ([]records.Record, error) {
	var raw any
	if err := d.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("json parser: decode: %w", err)
	}

	switch v := raw.(type) {
	case map[string]any:
		return []records.Record{records.Record(v)}, nil
	case []any:
		out := make([]records.Record, 0, len(v))
		for i, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("json parser: array element %d is not an object", i)
			}
			out = append(out, records.Record(obj))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("json parser: unsupported top-level JSON type %T", v)
	}
}

// DecodeAll reads every object from r. It is the non-streaming entry point
// used by the file readers, which operate one whole batch at a time.
func DecodeAll(r io.Reader) ([]records.Record, error) {
	d := NewDecoder(r)
	var out []records.Record
	for {
		recs, err := d.Next()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		out = append(out, recs...)
	}
}

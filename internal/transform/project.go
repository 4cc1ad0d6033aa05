// Package transform contains the relational primitives the dimension and
// fact builders are composed from: column projection with rename, and keyed
// de-duplication.
package transform

import "songlake/pkg/records"

// Column maps a source field to an output field. An empty As keeps the
// source name.
type Column struct {
	From string
	As   string
}

// Col is shorthand for a column kept under its own name.
func Col(name string) Column { return Column{From: name} }

// Project returns new records holding exactly the configured columns.
// Source fields that are absent come through as nil, mirroring schema
// conformance.
func Project(in []records.Record, cols []Column) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		row := make(records.Record, len(cols))
		for _, c := range cols {
			name := c.As
			if name == "" {
				name = c.From
			}
			row[name] = r[c.From]
		}
		out[i] = row
	}
	return out
}

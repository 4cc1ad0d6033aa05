// Package schema is the fixed schema registry for the pipeline. It declares
// the two input record shapes (song catalog, activity log) and the five
// output tables of the star schema. There is no inference: a record is
// conformed to a declared field list, and a field that is absent or carries
// a value of the wrong type becomes nil rather than failing the record.
//
// The same registry drives the columnar layer: each Table renders itself to
// the parquet-go JSON schema string used by the writer, so field names and
// types exist in exactly one place.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"songlake/pkg/records"
)

// Kind is the declared type of a field.
type Kind string

const (
	String    Kind = "string"
	Int       Kind = "int"
	Double    Kind = "double"
	Timestamp Kind = "timestamp" // epoch milliseconds, stored as TIMESTAMP_MILLIS
)

// Field is one declared column.
type Field struct {
	Name string
	Kind Kind
}

// Table is a named, ordered field list. Key lists the natural-key columns
// used for de-duplication; PartitionBy lists the partition columns in
// directory order. Both may be empty.
type Table struct {
	Name        string
	Fields      []Field
	Key         []string
	PartitionBy []string
}

// Input record shapes, mirroring the raw JSON feeds field for field.
var (
	Catalog = Table{
		Name: "song_data",
		Fields: []Field{
			{"num_songs", Int},
			{"artist_id", String},
			{"artist_latitude", Double},
			{"artist_longitude", Double},
			{"artist_location", String},
			{"artist_name", String},
			{"song_id", String},
			{"title", String},
			{"duration", Double},
			{"year", Int},
		},
	}

	EventLog = Table{
		Name: "log_data",
		Fields: []Field{
			{"artist", String},
			{"auth", String},
			{"firstName", String},
			{"gender", String},
			{"itemInSession", Int},
			{"lastName", String},
			{"length", Double},
			{"level", String},
			{"location", String},
			{"method", String},
			{"page", String},
			{"registration", Double},
			{"sessionId", Int},
			{"song", String},
			{"status", Int},
			{"ts", Timestamp},
			{"userAgent", String},
			{"userId", String},
		},
	}
)

// Output tables of the star schema.
var (
	Songs = Table{
		Name: "songs",
		Fields: []Field{
			{"song_id", String},
			{"title", String},
			{"artist_id", String},
			{"year", Int},
			{"duration", Double},
		},
		Key:         []string{"song_id"},
		PartitionBy: []string{"year", "artist_id"},
	}

	Artists = Table{
		Name: "artists",
		Fields: []Field{
			{"artist_id", String},
			{"name", String},
			{"location", String},
			{"latitude", Double},
			{"longitude", Double},
		},
		Key: []string{"artist_id"},
	}

	Users = Table{
		Name: "users",
		Fields: []Field{
			{"user_id", String},
			{"first_name", String},
			{"last_name", String},
			{"gender", String},
			{"level", String},
		},
		Key: []string{"user_id"},
	}

	Time = Table{
		Name: "time",
		Fields: []Field{
			{"start_time", Timestamp},
			{"hour", Int},
			{"day", Int},
			{"week", Int},
			{"month", Int},
			{"year", Int},
			{"weekday", Int},
		},
		Key:         []string{"start_time"},
		PartitionBy: []string{"year", "month"},
	}

	Songplays = Table{
		Name: "songplays",
		Fields: []Field{
			{"songplay_id", Int},
			{"start_time", Timestamp},
			{"year", Int},
			{"month", Int},
			{"user_id", String},
			{"level", String},
			{"song_id", String},
			{"artist_id", String},
			{"session_id", Int},
			{"location", String},
			{"user_agent", String},
		},
		PartitionBy: []string{"year", "month"},
	}
)

// OutputTables lists every persisted table, in write order.
func OutputTables() []Table {
	return []Table{Songs, Artists, Users, Time, Songplays}
}

// Columns returns the field names in declaration order.
func (t Table) Columns() []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Name
	}
	return out
}

// Conform maps a raw decoded record onto the declared field list. Every
// declared field is present in the result; a source value that is missing
// or cannot be represented as the declared kind becomes nil. Extra source
// fields are discarded.
func (t Table) Conform(raw records.Record) records.Record {
	out := make(records.Record, len(t.Fields))
	for _, f := range t.Fields {
		out[f.Name] = coerce(f.Kind, raw[f.Name])
	}
	return out
}

// ConformFold behaves like Conform but matches source keys
// case-insensitively. The columnar reader needs this: parquet-go exports
// column names with an upper-cased first letter when reading a file back
// without a registered row type.
func (t Table) ConformFold(raw records.Record) records.Record {
	byFold := make(map[string]any, len(raw))
	for k, v := range raw {
		byFold[strings.ToLower(k)] = v
	}
	out := make(records.Record, len(t.Fields))
	for _, f := range t.Fields {
		out[f.Name] = coerce(f.Kind, byFold[strings.ToLower(f.Name)])
	}
	return out
}

func coerce(k Kind, v any) any {
	if v == nil {
		return nil
	}
	switch k {
	case String:
		if s, ok := v.(string); ok {
			return s
		}
	case Int, Timestamp:
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case int32:
			return int64(n)
		case float64:
			if n == float64(int64(n)) {
				return int64(n)
			}
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i
			}
		}
	case Double:
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int64:
			return float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	}
	return nil
}

// ParquetSchema renders the table as the JSON schema string consumed by
// parquet-go's JSONWriter. All columns are OPTIONAL: nullability is the
// registry's tolerance rule, not a per-field decision.
func (t Table) ParquetSchema() string {
	type node struct {
		Tag string `json:"Tag"`
	}
	root := struct {
		Tag    string `json:"Tag"`
		Fields []node `json:"Fields"`
	}{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}

	for _, f := range t.Fields {
		var typ string
		switch f.Kind {
		case String:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8"
		case Int:
			typ = "type=INT64"
		case Double:
			typ = "type=DOUBLE"
		case Timestamp:
			typ = "type=INT64, convertedtype=TIMESTAMP_MILLIS"
		}
		root.Fields = append(root.Fields, node{
			Tag: fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", f.Name, typ),
		})
	}

	b, _ := json.Marshal(root)
	return string(b)
}

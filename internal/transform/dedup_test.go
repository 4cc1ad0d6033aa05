package transform

import (
	"reflect"
	"testing"

	"songlake/pkg/records"
)

func mk(id string, fields map[string]any) records.Record {
	r := records.Record{"id": id}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func TestDeDupKeepFirst(t *testing.T) {
	in := []records.Record{
		mk("1", map[string]any{"v": "A"}),
		mk("1", map[string]any{"v": "B"}),
		mk("2", map[string]any{"v": "C"}),
	}
	got := DeDup{Keys: []string{"id"}, Policy: "keep-first"}.Apply(in)
	want := []records.Record{
		mk("1", map[string]any{"v": "A"}),
		mk("2", map[string]any{"v": "C"}),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-first: got %#v want %#v", got, want)
	}
}

func TestDeDupKeepLastIsDefault(t *testing.T) {
	in := []records.Record{
		mk("1", map[string]any{"v": "A"}),
		mk("1", map[string]any{"v": "B"}),
		mk("2", map[string]any{"v": "C"}),
	}
	got := DeDup{Keys: []string{"id"}}.Apply(in)
	want := []records.Record{
		mk("1", map[string]any{"v": "B"}),
		mk("2", map[string]any{"v": "C"}),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-last: got %#v want %#v", got, want)
	}
}

func TestDeDupCompositeKey(t *testing.T) {
	in := []records.Record{
		{"a": "x", "b": int64(1)},
		{"a": "x", "b": int64(2)},
		{"a": "x", "b": int64(1)},
	}
	got := DeDup{Keys: []string{"a", "b"}}.Apply(in)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
}

func TestDeDupNilKeyGroups(t *testing.T) {
	in := []records.Record{
		{"id": nil, "v": "A"},
		{"id": nil, "v": "B"},
	}
	got := DeDup{Keys: []string{"id"}}.Apply(in)
	if len(got) != 1 || got[0]["v"] != "B" {
		t.Fatalf("nil keys must group: got %#v", got)
	}
}

func TestDeDupNilDistinctFromEmptyString(t *testing.T) {
	in := []records.Record{
		{"id": nil},
		{"id": ""},
	}
	got := DeDup{Keys: []string{"id"}}.Apply(in)
	if len(got) != 2 {
		t.Fatalf("nil and empty string are different keys: got %#v", got)
	}
}

func TestDeDupNoKeysPassthrough(t *testing.T) {
	in := []records.Record{{"a": "1"}, {"a": "1"}}
	if got := (DeDup{}).Apply(in); len(got) != 2 {
		t.Fatalf("no keys configured should pass rows through, got %d", len(got))
	}
}

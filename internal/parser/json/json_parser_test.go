package json

import (
	"strings"
	"testing"
)

func TestDecodeAllMultilineObject(t *testing.T) {
	in := `{
  "song_id": "S1",
  "title": "Test"
}`
	recs, err := DecodeAll(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0]["song_id"] != "S1" {
		t.Fatalf("got %#v", recs)
	}
}

func TestDecodeAllObjectStream(t *testing.T) {
	in := `{"id":"a"}
{"id":"b"}
{
  "id": "c"
}`
	recs, err := DecodeAll(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[2]["id"] != "c" {
		t.Fatalf("got %#v", recs[2])
	}
}

func TestDecodeAllArray(t *testing.T) {
	recs, err := DecodeAll(strings.NewReader(`[{"id":"a"},{"id":"b"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
}

func TestDecodeAllRejectsScalars(t *testing.T) {
	if _, err := DecodeAll(strings.NewReader(`42`)); err == nil {
		t.Fatal("top-level scalar should be an error")
	}
	if _, err := DecodeAll(strings.NewReader(`[1,2]`)); err == nil {
		t.Fatal("array of scalars should be an error")
	}
}

func TestDecodeAllEmpty(t *testing.T) {
	recs, err := DecodeAll(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want 0", len(recs))
	}
}

func TestDecoderUsesNumbers(t *testing.T) {
	recs, err := DecodeAll(strings.NewReader(`{"ts":1609459200000}`))
	if err != nil {
		t.Fatal(err)
	}
	// json.Number preserves the full int64 range; plain float64 would not.
	if _, ok := recs[0]["ts"].(interface{ Int64() (int64, error) }); !ok {
		t.Fatalf("ts decoded as %T, want json.Number", recs[0]["ts"])
	}
}

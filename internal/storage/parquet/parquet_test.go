package parquet

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"songlake/internal/schema"
	"songlake/pkg/records"
)

func songRow(songID, artistID string, year int64) records.Record {
	return records.Record{
		"song_id": songID, "title": "Title " + songID, "artist_id": artistID,
		"year": year, "duration": 200.0,
	}
}

func sortBySongID(rows []records.Record) {
	sort.Slice(rows, func(i, j int) bool {
		a, _ := rows[i]["song_id"].(string)
		b, _ := rows[j]["song_id"].(string)
		return a < b
	})
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir(), 1)
	in := []records.Record{
		songRow("S1", "A1", 2000),
		songRow("S2", "A2", 2001),
	}
	if err := s.Write(schema.Songs, in); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read(schema.Songs)
	if err != nil {
		t.Fatal(err)
	}
	sortBySongID(got)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip:\n got %#v\nwant %#v", got, in)
	}
}

func TestWritePartitionLayout(t *testing.T) {
	s := NewStore(t.TempDir(), 1)
	in := []records.Record{
		songRow("S1", "A1", 2000),
		songRow("S2", "A1", 2000),
		songRow("S3", "A2", 2001),
	}
	if err := s.Write(schema.Songs, in); err != nil {
		t.Fatal(err)
	}

	for _, leaf := range []string{
		"songs/year=2000/artist_id=A1/part-00000.parquet",
		"songs/year=2001/artist_id=A2/part-00000.parquet",
	} {
		if _, err := os.Stat(filepath.Join(s.Root, leaf)); err != nil {
			t.Fatalf("missing %s: %v", leaf, err)
		}
	}
}

func TestWriteNullPartitionValue(t *testing.T) {
	s := NewStore(t.TempDir(), 1)
	row := songRow("S1", "A1", 0)
	row["year"] = nil
	if err := s.Write(schema.Songs, []records.Record{row}); err != nil {
		t.Fatal(err)
	}

	leaf := filepath.Join(s.Root, "songs", "year="+nullPartition, "artist_id=A1", "part-00000.parquet")
	if _, err := os.Stat(leaf); err != nil {
		t.Fatalf("missing %s: %v", leaf, err)
	}

	got, err := s.Read(schema.Songs)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0]["year"] != nil {
		t.Fatalf("null column must survive the round trip: %#v", got)
	}
}

func TestWriteReplacesPreviousDataset(t *testing.T) {
	s := NewStore(t.TempDir(), 1)
	if err := s.Write(schema.Songs, []records.Record{songRow("S1", "A1", 2000)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(schema.Songs, []records.Record{songRow("S2", "A2", 2001)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read(schema.Songs)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0]["song_id"] != "S2" {
		t.Fatalf("rewrite must replace, not append: %#v", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root, "songs", "year=2000")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("stale partition directory survived the rewrite")
	}
}

func TestReadUnwrittenDataset(t *testing.T) {
	s := NewStore(t.TempDir(), 1)
	_, err := s.Read(schema.Songs)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestWriteEmptyTableStillMaterializes(t *testing.T) {
	s := NewStore(t.TempDir(), 1)
	if err := s.Write(schema.Songs, nil); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read(schema.Songs)
	if err != nil {
		t.Fatalf("empty dataset must be readable: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d rows, want 0", len(got))
	}
}

func TestReadMergesPartitions(t *testing.T) {
	s := NewStore(t.TempDir(), 1)
	in := []records.Record{
		{"start_time": int64(1542285000000), "hour": int64(12), "day": int64(15),
			"week": int64(46), "month": int64(11), "year": int64(2018), "weekday": int64(4)},
		{"start_time": int64(1609459200000), "hour": int64(0), "day": int64(1),
			"week": int64(53), "month": int64(1), "year": int64(2021), "weekday": int64(5)},
	}
	if err := s.Write(schema.Time, in); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read(schema.Time)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows across partitions, want 2", len(got))
	}
}

// Package parquet persists star-schema tables as partitioned parquet
// datasets and reads them back as records.
//
// Layout follows the usual hive-style convention: one directory level per
// partition-column value, in the table's declared column order, with the
// row files at the leaves:
//
//	songs/year=2000/artist_id=A1/part-00000.parquet
//
// Partition columns are also kept as ordinary columns inside the files, so
// a read-back never has to re-derive values from directory names. A table
// write replaces the whole table path (overwrite-by-default keeps reruns
// idempotent at the output level).
package parquet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"songlake/internal/schema"
	"songlake/pkg/records"
)

// nullPartition is the directory token for a null partition value, the
// same marker Spark and Hive use.
const nullPartition = "__HIVE_DEFAULT_PARTITION__"

// ErrNotFound reports a read of a dataset that has not been written.
var ErrNotFound = errors.New("dataset not found")

// Store reads and writes table datasets under a single output root.
type Store struct {
	Root string
	// Parallel is the parquet marshal/unmarshal worker count per file.
	Parallel int64
}

// NewStore returns a Store rooted at root.
func NewStore(root string, parallel int64) *Store {
	if parallel <= 0 {
		parallel = 4
	}
	return &Store{Root: root, Parallel: parallel}
}

// Write persists rows as the table's dataset, partitioned per the table's
// PartitionBy declaration. Any previous dataset at the table path is
// removed first.
func (s *Store) Write(t schema.Table, rows []records.Record) error {
	dir := filepath.Join(s.Root, t.Name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear %s: %w", dir, err)
	}

	groups := partitionGroups(t, rows)
	if len(groups) == 0 {
		// Zero rows: still materialize an empty dataset so downstream
		// readers distinguish "empty" from "never written".
		groups = map[string][]records.Record{"": nil}
	}
	for suffix, group := range groups {
		leaf := filepath.Join(dir, suffix)
		if err := os.MkdirAll(leaf, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", leaf, err)
		}
		if err := s.writeFile(t, filepath.Join(leaf, "part-00000.parquet"), group); err != nil {
			return err
		}
	}
	return nil
}

// Read loads every row file of the table's dataset and conforms the rows
// back to the table schema. Reading a dataset that was never written is an
// error (ErrNotFound): the fact join depends on the song dimension having
// been durably persisted first.
func (s *Store) Read(t schema.Table) ([]records.Record, error) {
	dir := filepath.Join(s.Root, t.Name)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".parquet") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s holds no row files", ErrNotFound, dir)
	}

	var out []records.Record
	for _, p := range paths {
		rows, err := s.readFile(t, p)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *Store) writeFile(t schema.Table, path string, rows []records.Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	pw, err := writer.NewJSONWriter(t.ParquetSchema(), fw, s.Parallel)
	if err != nil {
		fw.Close()
		return fmt.Errorf("parquet writer %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal row for %s: %w", path, err)
		}
		if err := pw.Write(string(b)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return fw.Close()
}

func (s *Store) readFile(t schema.Table, path string) ([]records.Record, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, s.Parallel)
	if err != nil {
		return nil, fmt.Errorf("parquet reader %s: %w", path, err)
	}
	defer pr.ReadStop()

	raw, err := pr.ReadByNumber(int(pr.GetNumRows()))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// Rows come back as dynamically generated structs whose exported field
	// names differ from the column names in case only; a JSON round-trip
	// plus case-folding conformance restores the registry shape.
	out := make([]records.Record, 0, len(raw))
	for _, row := range raw {
		b, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("remap row from %s: %w", path, err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("remap row from %s: %w", path, err)
		}
		out = append(out, t.ConformFold(m))
	}
	return out, nil
}

// partitionGroups splits rows by their partition-column values and returns
// a relative directory suffix ("" for unpartitioned tables) per group.
func partitionGroups(t schema.Table, rows []records.Record) map[string][]records.Record {
	if len(t.PartitionBy) == 0 {
		return map[string][]records.Record{"": rows}
	}
	groups := make(map[string][]records.Record)
	for _, r := range rows {
		parts := make([]string, len(t.PartitionBy))
		for i, col := range t.PartitionBy {
			parts[i] = col + "=" + partitionValue(r[col])
		}
		suffix := filepath.Join(parts...)
		groups[suffix] = append(groups[suffix], r)
	}
	return groups
}

func partitionValue(v any) string {
	if v == nil {
		return nullPartition
	}
	return fmt.Sprint(v)
}

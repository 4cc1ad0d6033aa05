// Package reader loads the two input feeds under their registered schemas.
//
// Failure semantics follow the batch contract: an unresolvable glob or an
// unreadable file aborts the run (partial ingestion would silently corrupt
// the dimensions), while a malformed field inside a record merely becomes
// nil via schema conformance.
package reader

import (
	"context"
	"fmt"

	"songlake/internal/datasource/file"
	jsonparser "songlake/internal/parser/json"
	"songlake/internal/schema"
	"songlake/pkg/records"
)

// Glob patterns relative to the input root. Depths are fixed by the feed
// layout: the catalog nests four levels before the leaf, the log three.
const (
	CatalogGlob = "song_data/*/*/*/*.json"
	LogGlob     = "log_data/*/*/*.json"
)

// PageNextSong is the sole page value admitted as a song play. Every other
// event type (auth, browsing, settings) is discarded by the event reader.
const PageNextSong = "NextSong"

// ReadCatalog loads every catalog record under the song schema.
func ReadCatalog(ctx context.Context, inputRoot string) ([]records.Record, error) {
	return readConformed(ctx, inputRoot, CatalogGlob, schema.Catalog)
}

// ReadEvents loads the activity log under the log schema and applies the
// NextSong admission filter. It returns the retained records and the count
// of records dropped by the filter.
func ReadEvents(ctx context.Context, inputRoot string) ([]records.Record, int, error) {
	all, err := readConformed(ctx, inputRoot, LogGlob, schema.EventLog)
	if err != nil {
		return nil, 0, err
	}
	kept := all[:0]
	for _, r := range all {
		if page, _ := r.String("page"); page == PageNextSong {
			kept = append(kept, r)
		}
	}
	return kept, len(all) - len(kept), nil
}

func readConformed(ctx context.Context, root, pattern string, t schema.Table) ([]records.Record, error) {
	paths, err := file.List(root, pattern)
	if err != nil {
		return nil, err
	}

	var out []records.Record
	for _, p := range paths {
		rc, err := file.Open(ctx, p)
		if err != nil {
			return nil, err
		}
		raw, err := jsonparser.DecodeAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		for _, r := range raw {
			out = append(out, t.Conform(r))
		}
	}
	return out, nil
}

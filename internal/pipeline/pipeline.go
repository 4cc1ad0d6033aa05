// Package pipeline sequences the full batch run: catalog feed into the
// song and artist dimensions, log feed into the user and time dimensions,
// then the fact join against the persisted song dimension.
//
// Stage ordering is the one piece of synchronization the design owns: the
// fact build re-reads the song dimension from storage instead of reusing
// the in-memory rows, so ProcessCatalog must have durably completed before
// ProcessEvents reaches the join. Run encodes that as plain sequencing;
// within a stage, independent table builds run concurrently and the first
// error cancels the rest. Any fatal error aborts the whole run; there is
// no partial-table commit and no retry policy at this layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"songlake/internal/config"
	"songlake/internal/metrics"
	"songlake/internal/reader"
	"songlake/internal/schema"
	"songlake/internal/star"
	"songlake/internal/storage/parquet"
	"songlake/internal/storage/postgres"
	"songlake/internal/storage/s3sync"
	"songlake/pkg/records"
)

// counters holds cross-goroutine row statistics for one run.
type counters struct {
	catalogRead   atomic.Int64
	eventsRead    atomic.Int64
	pageFiltered  atomic.Int64
	joinMisses    atomic.Int64
	rowsWritten   atomic.Int64
	tablesWritten atomic.Int64
}

// Pipeline executes one full batch recompute.
type Pipeline struct {
	cfg   *config.Config
	store *parquet.Store
	log   *slog.Logger

	stats counters
}

// New constructs a Pipeline from the validated run configuration.
func New(cfg *config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		store: parquet.NewStore(cfg.OutputRoot, cfg.Runtime.ParquetParallel),
		log:   log,
	}
}

// Run processes the catalog feed, then the event feed, then the optional
// warehouse load and S3 sync, and logs a run summary.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	if err := p.ProcessCatalog(ctx); err != nil {
		return fmt.Errorf("process catalog: %w", err)
	}
	if err := p.ProcessEvents(ctx); err != nil {
		return fmt.Errorf("process events: %w", err)
	}

	if p.cfg.Warehouse.DSN != "" {
		if err := p.loadWarehouse(ctx); err != nil {
			return fmt.Errorf("warehouse load: %w", err)
		}
	}
	if p.cfg.AWS.Bucket != "" {
		if err := p.syncOutput(ctx); err != nil {
			return fmt.Errorf("s3 sync: %w", err)
		}
	}

	p.log.Info("run complete",
		"catalog_records", p.stats.catalogRead.Load(),
		"event_records", p.stats.eventsRead.Load(),
		"page_filtered", p.stats.pageFiltered.Load(),
		"join_misses", p.stats.joinMisses.Load(),
		"tables", p.stats.tablesWritten.Load(),
		"rows_written", p.stats.rowsWritten.Load(),
		"elapsed", time.Since(start).Truncate(time.Millisecond),
	)
	return nil
}

// ProcessCatalog reads the song feed and writes the song and artist
// dimensions. The song write completing here is the barrier the fact
// build in ProcessEvents depends on.
func (p *Pipeline) ProcessCatalog(ctx context.Context) error {
	catalog, err := reader.ReadCatalog(ctx, p.cfg.InputRoot)
	if err != nil {
		return err
	}
	p.stats.catalogRead.Store(int64(len(catalog)))
	metrics.CountRows(metrics.RecordsRead, "feed", "catalog", len(catalog))

	var g errgroup.Group
	g.Go(func() error { return p.writeTable(schema.Songs, star.BuildSongs(catalog)) })
	g.Go(func() error { return p.writeTable(schema.Artists, star.BuildArtists(catalog)) })
	return g.Wait()
}

// ProcessEvents reads and filters the activity log, writes the user and
// time dimensions, and builds the fact table from the persisted song
// dimension.
func (p *Pipeline) ProcessEvents(ctx context.Context) error {
	events, filtered, err := reader.ReadEvents(ctx, p.cfg.InputRoot)
	if err != nil {
		return err
	}
	p.stats.eventsRead.Store(int64(len(events) + filtered))
	p.stats.pageFiltered.Store(int64(filtered))
	metrics.CountRows(metrics.RecordsRead, "feed", "log", len(events)+filtered)
	metrics.CountRows(metrics.RecordsDropped, "reason", "page_filter", filtered)
	if filtered > 0 {
		p.log.Info("page filter", "dropped", filtered, "kept", len(events))
	}

	var g errgroup.Group
	g.Go(func() error { return p.writeTable(schema.Users, star.BuildUsers(events)) })
	g.Go(func() error { return p.writeTable(schema.Time, star.BuildTime(events)) })
	if err := g.Wait(); err != nil {
		return err
	}

	// Join against the persisted song dimension, not the in-memory rows.
	songs, err := p.store.Read(schema.Songs)
	if err != nil {
		if errors.Is(err, parquet.ErrNotFound) {
			return fmt.Errorf("song dimension must be written before the fact build: %w", err)
		}
		return err
	}

	facts, misses := star.BuildSongplays(events, songs, star.NewIDAllocator(0))
	p.stats.joinMisses.Store(int64(misses))
	metrics.CountRows(metrics.RecordsDropped, "reason", "join_miss", misses)
	if misses > 0 {
		p.log.Info("fact join", "unmatched_events", misses, "fact_rows", len(facts))
	}

	return p.writeTable(schema.Songplays, facts)
}

func (p *Pipeline) writeTable(t schema.Table, rows []records.Record) error {
	if err := p.store.Write(t, rows); err != nil {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}
	p.stats.rowsWritten.Add(int64(len(rows)))
	p.stats.tablesWritten.Add(1)
	metrics.CountRows(metrics.RowsWritten, "table", t.Name, len(rows))
	p.log.Info("table written", "table", t.Name, "rows", len(rows))
	return nil
}

// loadWarehouse mirrors the persisted tables into Postgres. It reads each
// dataset back from storage so the warehouse matches what was written, not
// what was in memory.
func (p *Pipeline) loadWarehouse(ctx context.Context) error {
	repo, err := postgres.New(ctx, p.cfg.Warehouse.DSN)
	if err != nil {
		return err
	}
	defer repo.Close()

	for _, t := range schema.OutputTables() {
		rows, err := p.store.Read(t)
		if err != nil {
			return err
		}
		n, err := repo.LoadTable(ctx, t, rows)
		if err != nil {
			return err
		}
		p.log.Info("warehouse table loaded", "table", t.Name, "rows", n)
	}
	return nil
}

func (p *Pipeline) syncOutput(ctx context.Context) error {
	syncer, err := s3sync.New(ctx, p.cfg, p.log)
	if err != nil {
		return err
	}
	n, err := syncer.SyncDir(ctx, p.cfg.OutputRoot)
	if err != nil {
		return err
	}
	p.log.Info("output synced", "bucket", p.cfg.AWS.Bucket, "objects", n)
	return nil
}

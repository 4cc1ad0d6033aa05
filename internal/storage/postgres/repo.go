// Package postgres implements the optional warehouse load using pgx v5.
// After the columnar write, each star-schema table can be mirrored into
// Postgres for SQL access: the target table is created from the schema
// registry if missing, truncated, and re-filled with COPY. That matches
// the pipeline's full-recompute semantics; there is no upsert path
// because no run ever updates rows in place.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"songlake/internal/schema"
	"songlake/pkg/records"
)

// Repository is a Postgres-backed warehouse target.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository from a DSN.
func New(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() { r.pool.Close() }

// LoadTable replaces the contents of the warehouse table with rows and
// returns the number of rows copied.
func (r *Repository) LoadTable(ctx context.Context, t schema.Table, rows []records.Record) (int64, error) {
	if err := r.ensureTable(ctx, t); err != nil {
		return 0, err
	}
	if _, err := r.pool.Exec(ctx, "TRUNCATE "+pgIdent(t.Name)); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", t.Name, err)
	}

	cols := t.Columns()
	src := make([][]any, len(rows))
	for i, rec := range rows {
		vals := make([]any, len(t.Fields))
		for j, f := range t.Fields {
			vals[j] = pgValue(f.Kind, rec[f.Name])
		}
		src[i] = vals
	}

	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{t.Name}, cols, pgx.CopyFromRows(src))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", t.Name, err)
	}
	return n, nil
}

func (r *Repository) ensureTable(ctx context.Context, t schema.Table) error {
	ddl := CreateTableSQL(t)
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}
	return nil
}

// CreateTableSQL renders the CREATE TABLE statement for a registry table.
// All columns are nullable; natural keys are enforced upstream by the
// dedup stage, the warehouse is a mirror, not a constraint system.
func CreateTableSQL(t schema.Table) string {
	defs := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		defs[i] = pgIdent(f.Name) + " " + pgType(f.Kind)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgIdent(t.Name), strings.Join(defs, ", "))
}

func pgType(k schema.Kind) string {
	switch k {
	case schema.Int:
		return "bigint"
	case schema.Double:
		return "double precision"
	case schema.Timestamp:
		return "timestamptz"
	default:
		return "text"
	}
}

// pgValue converts a record value to its driver representation. Epoch-ms
// timestamps become UTC time.Time for the timestamptz column.
func pgValue(k schema.Kind, v any) any {
	if v == nil {
		return nil
	}
	if k == schema.Timestamp {
		switch ms := v.(type) {
		case int64:
			return time.UnixMilli(ms).UTC()
		case float64:
			return time.UnixMilli(int64(ms)).UTC()
		}
		return nil
	}
	return v
}

// pgIdent quotes a SQL identifier.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

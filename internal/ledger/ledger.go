// Package ledger implements the Run Ledger: an optional PostgreSQL-backed
// audit trail of per-document run outcomes for longitudinal corpus
// reporting. It is append-only and never consulted by the pipeline itself,
// so its unavailability never changes a document's output.
//
// Construction and pool tuning mirror the teacher repo's PostgresClient.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/lawdocs/pipeline/internal/model"
)

// Ledger wraps a PostgreSQL connection pool.
type Ledger struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS lawdocs_runs (
	id          BIGSERIAL PRIMARY KEY,
	doc_id      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	fingerprint TEXT NOT NULL,
	found_bab   INTEGER NOT NULL,
	found_pasal INTEGER NOT NULL,
	kpi_pass    BOOLEAN NOT NULL,
	error_code  TEXT
);
`

// Connect opens the pool, tunes it, verifies connectivity, and ensures the
// ledger table exists. Any failure here should be treated by the caller as
// "ledger disabled for this run", not a reason to abort.
func Connect(ctx context.Context, databaseURL string) (*Ledger, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the run ledger")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Row is one completed run to append.
type Row struct {
	DocID      string
	Started    time.Time
	Finished   time.Time
	Meta       model.Metadata
	KPIPass    bool
	ErrorCode  string
}

// Append writes one row. It never reads its own prior rows back; the
// ledger is strictly append-only.
func (l *Ledger) Append(ctx context.Context, r Row) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO lawdocs_runs (doc_id, started_at, finished_at, fingerprint, found_bab, found_pasal, kpi_pass, error_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))`,
		r.DocID, r.Started, r.Finished, r.Meta.MetaFingerprint, r.Meta.Found.BAB, r.Meta.Found.Pasal, r.KPIPass, r.ErrorCode)
	return err
}

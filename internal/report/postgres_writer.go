package report

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	"TCPSpectra/internal/model"
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// DefaultPostgresTable is used when the writer configuration names no table.
const DefaultPostgresTable = "tcp_comparison"

func init() {
	factory.RegisterWriter("postgres", func(def config.WriterDef) (model.Writer, error) {
		db, err := sql.Open("postgres", def.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		w := NewPostgresWriter(db, def.Postgres.Table)
		if err := w.EnsureTable(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
		return w, nil
	})
}

// PostgresWriter inserts one row per algorithm. Rows are keyed by
// (run_id, algorithm), so writing the same report twice is a no-op.
type PostgresWriter struct {
	db        *sql.DB
	tableName string
}

func NewPostgresWriter(db *sql.DB, table string) *PostgresWriter {
	if table == "" {
		table = DefaultPostgresTable
	}
	return &PostgresWriter{db: db, tableName: table}
}

func (w *PostgresWriter) Name() string { return "postgres" }

// EnsureTable creates the report table if it does not exist.
func (w *PostgresWriter) EnsureTable(ctx context.Context) error {
	stmt := "CREATE TABLE IF NOT EXISTS " + w.tableName + ` (
    run_id TEXT NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL,
    algorithm TEXT NOT NULL,
    throughput_mbps DOUBLE PRECISION NOT NULL,
    mean_delay_seconds DOUBLE PRECISION NOT NULL,
    fairness DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, algorithm)
)`
	if _, err := w.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", w.tableName, err)
	}
	return nil
}

func (w *PostgresWriter) Write(ctx context.Context, report *model.Report) error {
	if len(report.Metrics) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(w.tableName)
	b.WriteString(" (run_id, generated_at, algorithm, throughput_mbps, mean_delay_seconds, fairness) VALUES ")

	args := make([]any, 0, len(report.Metrics)*6)
	for i, m := range report.Metrics {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5, len(args)+6))
		args = append(args,
			report.RunID,
			report.GeneratedAt,
			m.Label,
			m.ThroughputMbps,
			m.MeanDelaySeconds,
			report.Fairness.Index,
		)
	}

	b.WriteString(" ON CONFLICT (run_id, algorithm) DO NOTHING")

	if _, err := w.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("failed to insert report %s: %w", report.RunID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (w *PostgresWriter) Close() error {
	return w.db.Close()
}

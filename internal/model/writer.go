package model

import "context"

// Writer defines a generic interface for persisting a comparison report.
type Writer interface {
	// Name returns the writer type, e.g. "json" or "clickhouse".
	Name() string

	// Write persists the report. Implementations must not modify it.
	Write(ctx context.Context, report *Report) error
}

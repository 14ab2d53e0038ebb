package report

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	"TCPSpectra/internal/model"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

func init() {
	factory.RegisterWriter("csv", func(def config.WriterDef) (model.Writer, error) {
		return NewCSVWriter(def.Path), nil
	})
}

var csvHeader = []string{"run_id", "algorithm", "throughput_mbps", "mean_delay_s", "fairness"}

// CSVWriter writes one row per algorithm to <root>/<run_id>/metrics.csv.
// The run-scoped fairness index is repeated on every row.
type CSVWriter struct {
	rootPath string
}

func NewCSVWriter(rootPath string) *CSVWriter {
	return &CSVWriter{rootPath: rootPath}
}

func (w *CSVWriter) Name() string { return "csv" }

func (w *CSVWriter) Write(_ context.Context, report *model.Report) error {
	runDir, err := runDirectory(w.rootPath, report)
	if err != nil {
		return err
	}

	path := filepath.Join(runDir, "metrics.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file '%s': %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	fairness := formatFloat(report.Fairness.Index)
	for _, m := range report.Metrics {
		row := []string{
			report.RunID,
			m.Label,
			formatFloat(m.ThroughputMbps),
			formatFloat(m.MeanDelaySeconds),
			fairness,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv file '%s': %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

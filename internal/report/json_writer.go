// Package report persists comparison reports. Every writer registers itself
// with the factory under its configuration type.
package report

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	"TCPSpectra/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func init() {
	factory.RegisterWriter("json", func(def config.WriterDef) (model.Writer, error) {
		return NewJSONWriter(def.Path), nil
	})
}

// JSONWriter writes each report as an indented summary.json under a
// directory named after the run.
type JSONWriter struct {
	rootPath string
}

// NewJSONWriter creates a writer rooted at rootPath.
func NewJSONWriter(rootPath string) *JSONWriter {
	return &JSONWriter{rootPath: rootPath}
}

func (w *JSONWriter) Name() string { return "json" }

// Write stores report at <root>/<run_id>/summary.json.
func (w *JSONWriter) Write(_ context.Context, report *model.Report) error {
	runDir, err := runDirectory(w.rootPath, report)
	if err != nil {
		return err
	}

	summaryFilePath := filepath.Join(runDir, "summary.json")
	summaryFile, err := os.Create(summaryFilePath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report to json: %w", err)
	}
	return summaryFile.Close()
}

// runDirectory creates and returns the per-run output directory.
func runDirectory(rootPath string, report *model.Report) (string, error) {
	if report.RunID == "" {
		return "", fmt.Errorf("report has no run id")
	}
	runDir := filepath.Join(rootPath, report.RunID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	return runDir, nil
}

package api

import (
	"TCPSpectra/internal/compare"
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/metrics"
	"TCPSpectra/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func writeFlowDoc(t *testing.T, dir, name string, rxBytes uint64) string {
	t.Helper()
	doc := fmt.Sprintf(`<FlowMonitor><FlowStats><Flow flowId="1" txBytes="%d" rxBytes="%d" delaySum="+1000000000.0ns" /></FlowStats></FlowMonitor>`, rxBytes, rxBytes)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func newTestServer(t *testing.T, documentsRoot string) (*httptest.Server, *Handler) {
	t.Helper()
	reg := prometheus.NewRegistry()
	runner := compare.NewRunner(&config.Config{}, nil, nil, nil, metrics.New(reg))
	h := NewHandler(runner, reg, documentsRoot)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, h
}

func postCompare(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/compare", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCompareHandler(t *testing.T) {
	dir := t.TempDir()
	srv, h := newTestServer(t, dir)
	body, _ := json.Marshal(compare.RequestBody{
		WindowSeconds: 5,
		Algorithms: []config.AlgorithmDef{
			{Label: "Reno", Document: writeFlowDoc(t, dir, "reno.xml", 3125000)},
			{Label: "Vegas", Document: writeFlowDoc(t, dir, "vegas.xml", 3125000)},
		},
	})

	resp := postCompare(t, srv, string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var report model.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if len(report.Metrics) != 2 || report.Metrics[0].ThroughputMbps != 5 {
		t.Errorf("Unexpected metrics: %+v", report.Metrics)
	}
	if report.Fairness.Index != 1 {
		t.Errorf("Expected fairness 1 for equal throughputs, got %v", report.Fairness.Index)
	}
	if h.Latest() == nil || h.Latest().RunID != report.RunID {
		t.Error("Expected the report to become the latest report")
	}

	latest, err := http.Get(srv.URL + "/api/v1/reports/latest")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer latest.Body.Close()
	if latest.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 for latest report, got %d", latest.StatusCode)
	}
}

func TestCompareHandler_Errors(t *testing.T) {
	dir := t.TempDir()
	srv, _ := newTestServer(t, dir)
	empty := filepath.Join(dir, "empty.xml")
	if err := os.WriteFile(empty, []byte(`<FlowMonitor><FlowStats/></FlowMonitor>`), 0644); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	cases := []struct {
		name     string
		body     string
		wantCode int
		wantKind string
	}{
		{"bad json", `{"window_seconds":`, http.StatusBadRequest, compare.KindInvalidRequest},
		{"no algorithms", `{"window_seconds": 5, "algorithms": []}`, http.StatusUnprocessableEntity, compare.KindInvalidRequest},
		{"missing flow data", fmt.Sprintf(`{"window_seconds": 5, "algorithms": [{"label": "Reno", "document": %q}]}`, empty), http.StatusUnprocessableEntity, compare.KindMissingFlowData},
		{"zero window", fmt.Sprintf(`{"window_seconds": 0, "algorithms": [{"label": "Reno", "document": %q}]}`, writeFlowDoc(t, dir, "reno.xml", 1000)), http.StatusUnprocessableEntity, compare.KindInvalidWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postCompare(t, srv, tc.body)
			if resp.StatusCode != tc.wantCode {
				t.Fatalf("Expected status %d, got %d", tc.wantCode, resp.StatusCode)
			}
			var e ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if e.Kind != tc.wantKind {
				t.Errorf("Expected kind %s, got %s (%s)", tc.wantKind, e.Kind, e.Error)
			}
		})
	}
}

func TestCompareHandler_OutsideDocumentsRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "docs")
	if err := os.Mkdir(root, 0755); err != nil {
		t.Fatalf("Failed to create documents root: %v", err)
	}
	outside := writeFlowDoc(t, parent, "outside.xml", 1000)
	srv, _ := newTestServer(t, root)

	for _, doc := range []string{"../outside.xml", outside} {
		resp := postCompare(t, srv, fmt.Sprintf(`{"window_seconds": 5, "algorithms": [{"label": "Reno", "document": %q}]}`, doc))
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", doc, resp.StatusCode)
		}
		var e ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
			t.Fatalf("Failed to decode error body: %v", err)
		}
		if e.Kind != compare.KindInvalidRequest {
			t.Errorf("%s: expected kind %s, got %s", doc, compare.KindInvalidRequest, e.Kind)
		}
		if strings.Contains(e.Error, parent) && doc != outside {
			t.Errorf("Error must not reveal the resolved path: %s", e.Error)
		}
	}
}

func TestCompareHandler_BodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	body := `{"window_seconds": 5, "delay_mode": "` + strings.Repeat("x", maxRequestBytes) + `"}`
	resp := postCompare(t, srv, body)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", resp.StatusCode)
	}
}

func TestLatestHandler_NoReport(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	resp, err := http.Get(srv.URL + "/api/v1/reports/latest")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}

type failingComparer struct{}

func (failingComparer) Compare(context.Context, compare.Request) (*model.Report, error) {
	return nil, fmt.Errorf("disk on fire")
}

func TestCompareHandler_InternalError(t *testing.T) {
	h := NewHandler(failingComparer{}, nil, t.TempDir())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", bytes.NewBufferString(`{"window_seconds": 5}`))
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected no metrics route without a gatherer, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	dir := t.TempDir()
	srv, _ := newTestServer(t, dir)
	postCompare(t, srv, fmt.Sprintf(`{"window_seconds": 5, "algorithms": [{"label": "Reno", "document": %q}]}`, writeFlowDoc(t, dir, "reno.xml", 1000)))

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `tcpspectra_comparisons_total{outcome="success"} 1`) {
		t.Errorf("Expected the successful comparison to be counted, got:\n%s", buf.String())
	}
}

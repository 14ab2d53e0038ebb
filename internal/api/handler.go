// Package api exposes comparisons over HTTP.
package api

import (
	"TCPSpectra/internal/compare"
	"TCPSpectra/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBytes bounds the size of a comparison request body.
const maxRequestBytes = 1 << 20

// Comparer runs one comparison. *compare.Runner satisfies it.
type Comparer interface {
	Compare(ctx context.Context, req compare.Request) (*model.Report, error)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Handler holds the dependencies for API handlers and the most recent report.
type Handler struct {
	comparer      Comparer
	gatherer      prometheus.Gatherer
	documentsRoot string

	mu     sync.RWMutex
	latest *model.Report
}

// NewHandler creates a handler. Input paths in requests are resolved against
// documentsRoot and may not leave it. Metrics are served from gatherer when it
// is not nil.
func NewHandler(comparer Comparer, gatherer prometheus.Gatherer, documentsRoot string) *Handler {
	return &Handler{comparer: comparer, gatherer: gatherer, documentsRoot: documentsRoot}
}

// Router returns the API routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/compare", h.compareHandler).Methods("POST")
	r.HandleFunc("/api/v1/reports/latest", h.latestHandler).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	return r
}

// Latest returns the last successful report, or nil.
func (h *Handler) Latest() *model.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// compareHandler runs a comparison over the documents named in the request.
func (h *Handler) compareHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, compare.KindInvalidRequest, fmt.Errorf("failed to read request body: %w", err))
		return
	}
	var reqBody compare.RequestBody
	if err := json.Unmarshal(body, &reqBody); err != nil {
		writeError(w, http.StatusBadRequest, compare.KindInvalidRequest, fmt.Errorf("failed to decode request: %w", err))
		return
	}

	req, err := reqBody.RequestWithin(h.documentsRoot)
	if err != nil {
		writeCompareError(w, err)
		return
	}

	report, err := h.comparer.Compare(r.Context(), req)
	if err != nil {
		writeCompareError(w, err)
		return
	}

	h.mu.Lock()
	h.latest = report
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, report)
}

// writeCompareError maps a comparison error onto a status code. Problems with
// the request or the simulation output are 422.
func writeCompareError(w http.ResponseWriter, err error) {
	kind := compare.Kind(err)
	status := http.StatusInternalServerError
	switch {
	case compare.IsDataError(err):
		status = http.StatusUnprocessableEntity
	case kind == compare.KindCanceled:
		status = http.StatusServiceUnavailable
	}
	log.Printf("Comparison failed (%s): %v", kind, err)
	writeError(w, status, kind, err)
}

// latestHandler returns the most recent report.
func (h *Handler) latestHandler(w http.ResponseWriter, _ *http.Request) {
	report := h.Latest()
	if report == nil {
		writeError(w, http.StatusNotFound, compare.KindNotFound, fmt.Errorf("no report available yet"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBytes)
}

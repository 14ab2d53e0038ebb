package compare

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	_ "TCPSpectra/internal/flowmon" // Registers the flowmon source
	"TCPSpectra/internal/metric"
	"TCPSpectra/internal/metrics"
	"TCPSpectra/internal/model"
	_ "TCPSpectra/internal/pcaptrace" // Registers the pcap source
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request describes one comparison: the ordered algorithms and the reduction settings.
type Request struct {
	Algorithms    []config.AlgorithmDef
	WindowSeconds float64
	DelayMode     string
	MissingPolicy string
}

// Runner orchestrates extraction, reduction and delivery of comparison reports.
type Runner struct {
	cfg       *config.Config
	renderer  model.Renderer
	writers   []model.Writer
	publisher model.Publisher
	metrics   *metrics.Metrics

	// renderMu serializes rendering; the renderer writes fixed file names.
	renderMu sync.Mutex

	// now is replaceable in tests.
	now func() time.Time
}

// NewRunner creates a Runner. renderer, publisher and m may be nil.
func NewRunner(cfg *config.Config, renderer model.Renderer, writers []model.Writer, publisher model.Publisher, m *metrics.Metrics) *Runner {
	return &Runner{
		cfg:       cfg,
		renderer:  renderer,
		writers:   writers,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// RequestFromConfig builds the request described by the comparison section of cfg.
func RequestFromConfig(cfg config.ComparisonConfig) (Request, error) {
	window, err := cfg.WindowSeconds()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Algorithms:    cfg.Algorithms,
		WindowSeconds: window,
		DelayMode:     cfg.DelayMode,
		MissingPolicy: cfg.MissingPolicy,
	}, nil
}

// Run compares the configured algorithms and delivers the report to the
// renderer, writers and publisher. A report is returned together with a
// delivery error when only delivery failed.
func (r *Runner) Run(ctx context.Context) (*model.Report, error) {
	req, err := RequestFromConfig(r.cfg.Comparison)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	report, err := r.Compare(ctx, req)
	if err != nil {
		return nil, err
	}
	return report, r.Deliver(ctx, report)
}

// Compare extracts one observation per algorithm and reduces them into a report.
// It performs no rendering or writing.
func (r *Runner) Compare(ctx context.Context, req Request) (*model.Report, error) {
	start := time.Now()
	report, err := r.compare(ctx, req)
	if err != nil {
		r.metrics.ObserveComparison("error", time.Since(start))
		return nil, err
	}
	r.metrics.ObserveComparison("success", time.Since(start))
	r.metrics.SetFairness(report.Fairness.Index)
	return report, nil
}

func (r *Runner) compare(ctx context.Context, req Request) (*model.Report, error) {
	if err := config.ValidateAlgorithms(req.Algorithms); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	policy := req.MissingPolicy
	if policy == "" {
		policy = config.MissingPolicyAbort
	}
	if policy != config.MissingPolicyAbort && policy != config.MissingPolicyExclude {
		return nil, fmt.Errorf("%w: unknown missing_policy '%s'", ErrInvalidRequest, policy)
	}
	delayMode := req.DelayMode
	if delayMode == "" {
		delayMode = config.DelayModeCumulative
	}

	extracted, err := r.extractAll(ctx, req.Algorithms)
	if err != nil {
		return nil, err
	}

	observations := make([]model.LabeledObservation, 0, len(extracted))
	var excluded []model.ExcludedAlgorithm
	for i, res := range extracted {
		label := req.Algorithms[i].Label
		if res.err == nil {
			observations = append(observations, model.LabeledObservation{Label: label, Observation: res.obs})
			continue
		}
		r.metrics.IncExtractionFailure(Kind(res.err))
		if policy == config.MissingPolicyAbort {
			return nil, fmt.Errorf("algorithm '%s': %w", label, res.err)
		}
		log.Printf("Excluding algorithm '%s' from comparison: %v", label, res.err)
		excluded = append(excluded, model.ExcludedAlgorithm{Label: label, Reason: res.err.Error()})
	}

	result, err := metric.Reduce(observations, metric.Config{WindowSeconds: req.WindowSeconds, DelayMode: delayMode})
	if err != nil {
		return nil, err
	}

	return &model.Report{
		RunID:         uuid.NewString(),
		GeneratedAt:   r.now().UTC(),
		WindowSeconds: req.WindowSeconds,
		DelayMode:     delayMode,
		Metrics:       result.Metrics,
		Fairness:      result.Fairness,
		Excluded:      excluded,
	}, nil
}

type extraction struct {
	obs model.FlowObservation
	err error
}

// extractAll observes every algorithm concurrently. Results are stored by
// index so they keep the configured order.
func (r *Runner) extractAll(ctx context.Context, defs []config.AlgorithmDef) ([]extraction, error) {
	results := make([]extraction, len(defs))

	var wg sync.WaitGroup
	wg.Add(len(defs))
	for i, def := range defs {
		go func(i int, def config.AlgorithmDef) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return
			}
			src, err := factory.NewSource(def)
			if err != nil {
				results[i].err = err
				return
			}
			results[i].obs, results[i].err = src.Observe()
		}(i, def)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Deliver renders the report and hands it to every writer and the publisher.
// Every target is attempted; their failures are joined. Deliver is safe for
// concurrent use; renders of concurrent reports do not overlap.
func (r *Runner) Deliver(ctx context.Context, report *model.Report) error {
	var errs []error

	if r.renderer != nil {
		r.renderMu.Lock()
		artifacts, err := r.renderer.Render(report.Metrics, report.Fairness)
		r.renderMu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("render: %w", err))
		}
		for _, a := range artifacts {
			log.Printf("Rendered %s chart to %s", a.Name, a.Path)
		}
	}

	for _, w := range r.writers {
		if err := w.Write(ctx, report); err != nil {
			log.Printf("Error writing report %s with %s writer: %v", report.RunID, w.Name(), err)
			errs = append(errs, fmt.Errorf("writer %s: %w", w.Name(), err))
		}
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(report); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Package metric reduces flow observations into the comparison metrics.
package metric

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInsufficientData is returned when fairness is requested over zero observations.
	ErrInsufficientData = errors.New("insufficient data for fairness")
	// ErrDegenerateFairness is returned when every throughput is zero and the index is 0/0.
	ErrDegenerateFairness = errors.New("degenerate fairness: all throughputs are zero")
	// ErrInvalidWindow is returned for a non-positive or non-finite observation window.
	ErrInvalidWindow = errors.New("observation window must be positive")
	// ErrNoPackets is returned in per-packet delay mode for a flow that received no packets.
	ErrNoPackets = errors.New("flow received no packets")
)

const bitsPerMegabit = 1e6

// Config holds the reduction settings of a run.
type Config struct {
	// WindowSeconds is the simulated capture duration the byte counters cover.
	WindowSeconds float64
	// DelayMode is config.DelayModeCumulative (default) or config.DelayModePerPacket.
	DelayMode string
}

// Result is the output of Reduce.
type Result struct {
	Metrics  []model.AlgorithmMetrics
	Fairness model.FairnessResult
}

// Reduce converts the ordered observations into per-algorithm metrics and the
// run-wide fairness index. The metrics keep the input order.
func Reduce(observations []model.LabeledObservation, cfg Config) (Result, error) {
	if cfg.WindowSeconds <= 0 || math.IsNaN(cfg.WindowSeconds) || math.IsInf(cfg.WindowSeconds, 0) {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidWindow, cfg.WindowSeconds)
	}
	if len(observations) == 0 {
		return Result{}, ErrInsufficientData
	}

	metrics := make([]model.AlgorithmMetrics, len(observations))
	throughputs := make([]float64, len(observations))
	for i, lo := range observations {
		delay, err := meanDelay(lo.Observation, cfg.DelayMode)
		if err != nil {
			return Result{}, fmt.Errorf("algorithm '%s': %w", lo.Label, err)
		}
		tput := ThroughputMbps(lo.Observation.RxBytes, cfg.WindowSeconds)
		if math.IsInf(tput, 0) {
			return Result{}, fmt.Errorf("%w: algorithm '%s': throughput overflows for window %v", ErrInvalidWindow, lo.Label, cfg.WindowSeconds)
		}
		metrics[i] = model.AlgorithmMetrics{
			Label:            lo.Label,
			ThroughputMbps:   tput,
			MeanDelaySeconds: delay,
		}
		throughputs[i] = tput
	}

	index, err := JainIndex(throughputs)
	if err != nil {
		return Result{}, err
	}
	return Result{Metrics: metrics, Fairness: model.FairnessResult{Index: index}}, nil
}

// ThroughputMbps is the received data rate over the window in megabits per second.
func ThroughputMbps(rxBytes uint64, windowSeconds float64) float64 {
	return float64(rxBytes) * 8 / (windowSeconds * bitsPerMegabit)
}

// JainIndex computes (Σx)² / (n·Σx²). The result lies in [1/n, 1] for
// non-negative input with at least one positive value.
//
// The values are scaled by a power of two so that the largest lies in [0.5, 1)
// before summing. The index is scale-invariant and power-of-two scaling is
// exact, so results match the unscaled formula wherever that does not
// overflow or underflow.
func JainIndex(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, ErrInsufficientData
	}
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("fairness input %v is not a finite non-negative value", v)
		}
	}
	peak := floats.Max(values)
	if peak == 0 {
		return 0, ErrDegenerateFairness
	}

	_, exp := math.Frexp(peak)
	scaled := make([]float64, n)
	for i, v := range values {
		scaled[i] = math.Ldexp(v, -exp)
	}
	sum := floats.Sum(scaled)
	sumSquares := floats.Dot(scaled, scaled)
	index := sum * sum / (float64(n) * sumSquares)
	if math.IsNaN(index) || math.IsInf(index, 0) {
		return 0, fmt.Errorf("fairness index is not finite for %d values", n)
	}
	return index, nil
}

func meanDelay(obs model.FlowObservation, mode string) (float64, error) {
	switch mode {
	case "", config.DelayModeCumulative:
		return obs.DelaySumSeconds, nil
	case config.DelayModePerPacket:
		if obs.RxPackets == 0 {
			return 0, ErrNoPackets
		}
		return obs.DelaySumSeconds / float64(obs.RxPackets), nil
	default:
		return 0, fmt.Errorf("unknown delay mode: '%s'", mode)
	}
}

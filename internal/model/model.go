package model

import "time"

// FlowObservation holds the counters extracted from a single flow record.
// It is produced once per algorithm and never modified afterwards.
type FlowObservation struct {
	FlowID          uint32
	TxBytes         uint64
	RxBytes         uint64
	TxPackets       uint64
	RxPackets       uint64
	LostPackets     uint64
	DelaySumSeconds float64
}

// LabeledObservation pairs an observation with the algorithm label supplied by the caller.
// A slice of these is the ordered label -> observation mapping consumed by the reducer.
type LabeledObservation struct {
	Label       string
	Observation FlowObservation
}

// AlgorithmMetrics is one row of the comparison table.
type AlgorithmMetrics struct {
	Label            string  `json:"algorithm"`
	ThroughputMbps   float64 `json:"throughput_mbps"`
	MeanDelaySeconds float64 `json:"mean_delay_seconds"`
}

// FairnessResult is the Jain fairness index over all throughputs of a run.
type FairnessResult struct {
	Index float64 `json:"index"`
}

// ExcludedAlgorithm records an algorithm dropped from a run and why.
type ExcludedAlgorithm struct {
	Label  string `json:"algorithm"`
	Reason string `json:"reason"`
}

// Report is the result of one comparison run.
// Fairness is run-scoped: it belongs to the report, not to any single row.
type Report struct {
	RunID         string              `json:"run_id"`
	GeneratedAt   time.Time           `json:"generated_at"`
	WindowSeconds float64             `json:"window_seconds"`
	DelayMode     string              `json:"delay_mode"`
	Metrics       []AlgorithmMetrics  `json:"metrics"`
	Fairness      FairnessResult      `json:"fairness"`
	Excluded      []ExcludedAlgorithm `json:"excluded,omitempty"`
}

// Labels returns the algorithm labels in report order.
func (r *Report) Labels() []string {
	labels := make([]string, len(r.Metrics))
	for i, m := range r.Metrics {
		labels[i] = m.Label
	}
	return labels
}

// Artifact describes a file produced by a Renderer.
type Artifact struct {
	Name string
	Path string
}

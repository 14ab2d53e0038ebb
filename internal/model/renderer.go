package model

// Renderer turns computed metrics into visual artifacts.
// The metrics slice is complete and ordered; the fairness value applies to the whole run.
type Renderer interface {
	Render(metrics []AlgorithmMetrics, fairness FairnessResult) ([]Artifact, error)
}

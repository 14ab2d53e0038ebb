package model

// Source produces the single flow observation for one algorithm.
// Implementations read static simulation output and are safe to call repeatedly;
// every call returns an identical observation for unchanged input.
type Source interface {
	Observe() (FlowObservation, error)
	Name() string
}

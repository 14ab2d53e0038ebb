package flowmon

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	"TCPSpectra/internal/model"
	"fmt"
)

func init() {
	factory.RegisterSource(config.SourceFlowmon, NewSource)
}

// Source reads the observation of one algorithm from a FlowMonitor XML file.
type Source struct {
	path string
}

// NewSource creates a FlowMonitor source for the definition's document.
func NewSource(def config.AlgorithmDef) (model.Source, error) {
	if def.Document == "" {
		return nil, fmt.Errorf("flowmon source requires a document path")
	}
	return &Source{path: def.Document}, nil
}

// Observe parses the document and returns its first flow record.
func (s *Source) Observe() (model.FlowObservation, error) {
	return ParseFile(s.path)
}

// Name returns the document path.
func (s *Source) Name() string {
	return s.path
}

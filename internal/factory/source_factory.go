package factory

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"fmt"
	"sort"
	"sync"
)

// SourceFactory creates the observation source for a single algorithm definition.
type SourceFactory func(def config.AlgorithmDef) (model.Source, error)

var (
	sourceMu       sync.RWMutex
	sourceRegistry = make(map[string]SourceFactory)
)

// RegisterSource registers a new source type with its factory function.
func RegisterSource(name string, factory SourceFactory) {
	sourceMu.Lock()
	defer sourceMu.Unlock()
	if _, exists := sourceRegistry[name]; exists {
		panic(fmt.Sprintf("source type '%s' already registered", name))
	}
	sourceRegistry[name] = factory
}

// NewSource creates the source named by def.Source.
func NewSource(def config.AlgorithmDef) (model.Source, error) {
	sourceType := def.Source
	if sourceType == "" {
		sourceType = config.SourceFlowmon
	}

	sourceMu.RLock()
	factory, ok := sourceRegistry[sourceType]
	sourceMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown source type: '%s'", sourceType)
	}

	src, err := factory(def)
	if err != nil {
		return nil, fmt.Errorf("error creating source '%s' for '%s': %w", sourceType, def.Label, err)
	}
	return src, nil
}

// Sources returns the registered source type names, sorted.
func Sources() []string {
	sourceMu.RLock()
	defer sourceMu.RUnlock()
	names := make([]string, 0, len(sourceRegistry))
	for name := range sourceRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package factory

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"fmt"
	"io"
	"log"
	"sync"
)

// WriterFactory creates a report writer from its configuration.
type WriterFactory func(def config.WriterDef) (model.Writer, error)

var (
	writerMu       sync.RWMutex
	writerRegistry = make(map[string]WriterFactory)
)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	writerMu.Lock()
	defer writerMu.Unlock()
	if _, exists := writerRegistry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	writerRegistry[name] = factory
}

// NewWriters creates every enabled writer in the order they are configured.
// On error, writers already created are closed before returning.
func NewWriters(defs []config.WriterDef) (writers []model.Writer, err error) {
	defer func() {
		if err != nil {
			closeWriters(writers)
			writers = nil
		}
	}()

	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		log.Printf("Creating report writer of type: '%s'\n", def.Type)

		writerMu.RLock()
		factory, ok := writerRegistry[def.Type]
		writerMu.RUnlock()
		if !ok {
			return writers, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}

		w, err := factory(def)
		if err != nil {
			return writers, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		writers = append(writers, w)
	}
	return writers, nil
}

// closeWriters closes every writer that holds resources.
func closeWriters(writers []model.Writer) {
	for _, w := range writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Printf("Error closing %s writer: %v", w.Name(), err)
			}
		}
	}
}

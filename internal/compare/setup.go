package compare

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	"TCPSpectra/internal/metrics"
	"TCPSpectra/internal/model"
	"TCPSpectra/internal/publish"
	"TCPSpectra/internal/render"
	_ "TCPSpectra/internal/report" // Registers the report writers
	"fmt"
	"io"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// Build assembles a Runner with the renderer, writers and publisher enabled
// in cfg. The returned cleanup function closes every connection Build opened.
func Build(cfg *config.Config, reg prometheus.Registerer) (*Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var renderer model.Renderer
	if cfg.Render.Enabled {
		r, err := render.NewBarRenderer(cfg.Render)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create renderer: %w", err)
		}
		renderer = r
	}

	writers, err := factory.NewWriters(cfg.Writers)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range writers {
		if c, ok := w.(io.Closer); ok {
			closers = append(closers, func() {
				if err := c.Close(); err != nil {
					log.Printf("Error closing %s writer: %v", w.Name(), err)
				}
			})
		}
	}

	var publisher model.Publisher
	if cfg.Publisher.Enabled {
		p, err := publish.NewPublisher(cfg.Publisher)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		closers = append(closers, p.Close)
		publisher = p
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	return NewRunner(cfg, renderer, writers, publisher, m), cleanup, nil
}

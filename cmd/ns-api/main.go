package main

import (
	"TCPSpectra/internal/api"
	"TCPSpectra/internal/compare"
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// deliveringComparer hands every successful report to the configured outputs.
type deliveringComparer struct {
	runner *compare.Runner
}

func (d deliveringComparer) Compare(ctx context.Context, req compare.Request) (*model.Report, error) {
	report, err := d.runner.Compare(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := d.runner.Deliver(ctx, report); err != nil {
		log.Printf("Report %s delivered with errors: %v", report.RunID, err)
	}
	return report, nil
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	runner, cleanup, err := compare.Build(cfg, reg)
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}
	defer cleanup()

	// Create API handler with runner dependency
	apiHandler := api.NewHandler(deliveringComparer{runner: runner}, reg, cfg.API.DocumentsRoot)

	// Start HTTP server
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: apiHandler.Router(),
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

package main

import (
	"TCPSpectra/internal/compare"
	"TCPSpectra/internal/config"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	window := flag.String("window", "", "Override the observation window (e.g. 5s)")
	delayMode := flag.String("delay-mode", "", "Override the delay mode: 'cumulative' or 'per_packet'")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *window != "" {
		cfg.Comparison.Window = *window
	}
	if *delayMode != "" {
		cfg.Comparison.DelayMode = *delayMode
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize the runner and its outputs
	runner, cleanup, err := compare.Build(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Compare and deliver
	report, err := runner.Run(ctx)
	if report == nil {
		log.Fatalf("Comparison failed (%s): %v", compare.Kind(err), err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tTHROUGHPUT (Mbps)\tDELAY (s)")
	for _, m := range report.Metrics {
		fmt.Fprintf(tw, "%s\t%.2f\t%.4f\n", m.Label, m.ThroughputMbps, m.MeanDelaySeconds)
	}
	tw.Flush()
	fmt.Printf("Jain fairness index: %.4f\n", report.Fairness.Index)
	for _, e := range report.Excluded {
		fmt.Printf("Excluded %s: %s\n", e.Label, e.Reason)
	}

	if err != nil {
		log.Fatalf("Report %s delivered with errors: %v", report.RunID, err)
	}
	log.Printf("Report %s complete.", report.RunID)
}

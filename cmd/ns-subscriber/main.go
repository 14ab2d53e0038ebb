package main

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"TCPSpectra/internal/publish"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file; NATS defaults are used when empty")
	flag.Parse()

	subCfg := config.PublisherConfig{NATSURL: nats.DefaultURL, Subject: "tcpspectra.reports"}
	if *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if cfg.Publisher.NATSURL != "" {
			subCfg.NATSURL = cfg.Publisher.NATSURL
		}
		subCfg.Subject = cfg.Publisher.Subject
	}

	sub, err := publish.NewSubscriber(subCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Start(func(report *model.Report) {
		log.Printf("Report %s at %s (window %.1fs, %s delay)", report.RunID, report.GeneratedAt.Format("2006-01-02 15:04:05"), report.WindowSeconds, report.DelayMode)
		for _, m := range report.Metrics {
			log.Printf("  %-10s %8.2f Mbps %10.4f s", m.Label, m.ThroughputMbps, m.MeanDelaySeconds)
		}
		log.Printf("  fairness %.4f", report.Fairness.Index)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down subscriber...")
}

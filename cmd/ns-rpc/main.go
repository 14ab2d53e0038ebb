package main

import (
	"TCPSpectra/internal/compare"
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/rpc"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	metricsAddr := flag.String("metrics-addr", "", "Optional address to serve /metrics on")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reg := prometheus.NewRegistry()
	runner, cleanup, err := compare.Build(cfg, reg)
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}
	defer cleanup()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Printf("Metrics server starting on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	lis, err := net.Listen("tcp", cfg.RPC.ListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.RPC.ListenAddr, err)
	}

	// The RPC path returns reports to the caller only; it does not render or write them.
	server := rpc.NewGRPCServer(runner, cfg.RPC.DocumentsRoot)
	go func() {
		log.Printf("gRPC server starting on %s", lis.Addr())
		if err := server.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("gRPC server shutting down...")
	server.GracefulStop()
	log.Println("gRPC server exited.")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func main() {
	// Define command-line flags
	mode := flag.String("mode", "api", "Query mode: 'api' to fetch the latest report via HTTP API, 'direct' to query ClickHouse directly.")
	apiAddr := flag.String("api", "http://localhost:8080", "Base URL of the HTTP API.")
	algorithm := flag.String("algorithm", "", "Restrict the direct query to one algorithm (optional).")
	since := flag.Duration("since", 24*time.Hour, "How far back the direct query looks.")
	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		queryViaAPI(*apiAddr)
	case "direct":
		directQueryClickHouse(*algorithm, *since)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'direct'.", *mode)
	}
}

// --- API Query Logic ---
func queryViaAPI(baseURL string) {
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v1/reports/latest"

	resp, err := http.Get(apiURL)
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, respBody, "", "  "); err != nil {
		log.Printf("Could not prettify JSON, printing raw response:")
		fmt.Println(string(respBody))
		return
	}

	log.Println("---")
	fmt.Println(prettyJSON.String())
}

// --- Direct ClickHouse Query Logic ---
func directQueryClickHouse(algorithm string, since time.Duration) {
	connOpts := clickhouse.Options{
		Addr: []string{"localhost:19000"},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "123",
		},
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			Algorithm,
			count() AS Runs,
			avg(ThroughputMbps) AS AvgThroughput,
			avg(MeanDelaySeconds) AS AvgDelay,
			avg(Fairness) AS AvgFairness
		FROM tcp_comparison`)

	whereClauses := []string{"GeneratedAt >= ?"}
	args := []interface{}{time.Now().UTC().Add(-since)}
	if algorithm != "" {
		whereClauses = append(whereClauses, "Algorithm = ?")
		args = append(args, algorithm)
	}
	queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	queryBuilder.WriteString("\n\t\tGROUP BY Algorithm\n\t\tORDER BY AvgThroughput DESC\n")

	conn, err := clickhouse.Open(&connOpts)
	if err != nil {
		log.Fatalf("Error connecting to ClickHouse: %v", err)
	}
	defer conn.Close()

	log.Println("Successfully connected to ClickHouse.")

	rows, err := conn.Query(context.Background(), queryBuilder.String(), args...)
	if err != nil {
		log.Fatalf("Error executing query: %v", err)
	}
	defer rows.Close()

	log.Println("--- Per-Algorithm Averages (Direct) ---")

	var foundResult bool
	for rows.Next() {
		foundResult = true
		var (
			name       string
			runs       uint64
			throughput float64
			delay      float64
			fairness   float64
		)

		if err := rows.Scan(&name, &runs, &throughput, &delay, &fairness); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		fmt.Printf("Algorithm: %s\n", name)
		fmt.Printf("  Runs: %d\n", runs)
		fmt.Printf("  Throughput: %.2f Mbps\n", throughput)
		fmt.Printf("  Delay: %.4f s\n", delay)
		fmt.Printf("  Fairness: %.4f\n", fairness)
		fmt.Println("---------------------")
	}

	if !foundResult {
		log.Println("No data found for the specified criteria.")
	}

	if err := rows.Err(); err != nil {
		log.Printf("An error occurred during row iteration: %v", err)
	}
}

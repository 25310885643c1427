// Package main provides a performance benchmarking tool for the sonarissues CLI.
// It serves synthetic issues from a local stand-in for the search API and times
// full exports across result sizes and output formats, running each test multiple
// times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - sonarissues binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory receiving the exported files and the history database
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, cold run and average of warm runs).
type BenchmarkResult struct {
	Issues        int
	Format        string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	PageSize      int
	NoHistoryRuns int
	HistoryRuns   int
	IssueCounts   []int
	Formats       []string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       5 * time.Minute,
		PageSize:      500,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
		IssueCounts:   []int{1000, 10000, 50000},
		Formats:       []string{"parquet", "csv", "json"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the sonarissues binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("sonarissues"); err != nil {
		return fmt.Errorf("sonarissues binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// newIssueServer answers the search endpoint with total synthetic issues, paged by ps.
func newIssueServer(total int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps, _ := strconv.Atoi(r.URL.Query().Get("ps"))
		p, _ := strconv.Atoi(r.URL.Query().Get("p"))
		issues := make([]map[string]any, 0, ps)
		for i := (p - 1) * ps; i < p*ps && i < total; i++ {
			issues = append(issues, map[string]any{
				"key":          fmt.Sprintf("BENCH-%d", i),
				"type":         "CODE_SMELL",
				"severity":     "MAJOR",
				"status":       "OPEN",
				"component":    fmt.Sprintf("bench:pkg/mod%d/file%d.go", i%50, i),
				"line":         i%500 + 1,
				"message":      "Reduce the cognitive complexity of this function",
				"creationDate": "2024-01-02T03:04:05+0000",
				"author":       "dev@bench.io",
				"rule":         "go:S3776",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paging": map[string]int{"pageIndex": p, "pageSize": ps, "total": total},
			"issues": issues,
		})
	}))
}

// runBenchmarks executes all benchmark tests across configured sizes and formats
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %d formats, %v timeout, no-history: %d runs, history: %d runs\n",
		len(config.IssueCounts), len(config.Formats), config.Timeout, config.NoHistoryRuns, config.HistoryRuns)

	for _, count := range config.IssueCounts {
		fmt.Printf("Benchmarking %d issues\n", count)
		srv := newIssueServer(count)
		for _, format := range config.Formats {
			results = append(results, runBenchmarkSuite(config, srv.URL, count, format))
		}
		srv.Close()
	}

	return results
}

// runBenchmarkSuite runs both no-history and history benchmarks for a format
func runBenchmarkSuite(config BenchmarkConfig, baseURL string, count int, format string) BenchmarkResult {
	fmt.Printf("Running %s export of %d issues\n", format, count)

	// Helper to run a benchmark phase
	runPhase := func(historyBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, baseURL, format, historyBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-history runs
	_, noHistoryAvg := runPhase("none", config.NoHistoryRuns, "No-history")

	// Phase 2: History runs
	coldTime, warmAvg := runPhase("sqlite", config.HistoryRuns, "History")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", noHistoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Issues:        count,
		Format:        format,
		NoHistoryTime: noHistoryAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes an export multiple times with the given history backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, baseURL, format, historyBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	outDir := filepath.Join(config.WorkDir, "out")
	args := []string{
		"export",
		"--formats", format,
		"--output-dir", outDir,
		"--page-size", strconv.Itoa(config.PageSize),
		"--history-backend", historyBackend,
	}
	if historyBackend == "sqlite" {
		args = append(args, "--history-db-connect", filepath.Join(config.WorkDir, "history.db"))
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("sonarissues", args...)
		cmd.Dir = config.WorkDir
		cmd.Env = append(os.Environ(),
			"SONARISSUES_TOKEN=bench",
			"SONARISSUES_PROJECT=bench",
			"SONARISSUES_ORGANIZATION=bench",
			"SONARISSUES_BASE_URL="+baseURL,
		)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
		_ = os.RemoveAll(outDir)
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Exported") && strings.Contains(outputStr, "file(s) in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/sonarissues_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"issues", "format", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		record := []string{strconv.Itoa(result.Issues), result.Format, result.NoHistoryTime, result.ColdTime, result.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	for _, format := range config.Formats {
		printFormatSummary(results, format, strings.ToUpper(format)+" Export:")
	}

	fmt.Printf("Benchmark script completed successfully\n")
}

// printFormatSummary displays results for a specific output format
func printFormatSummary(results []BenchmarkResult, format, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Format == format {
			fmt.Printf("  %-8d: No-history: %s, Cold: %s, Warm: %s\n", result.Issues, result.NoHistoryTime, result.ColdTime, result.WarmTime)
		}
	}
}

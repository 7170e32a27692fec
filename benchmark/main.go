// Package main provides a performance benchmarking tool for the formpath CLI.
// It measures execution times of the main commands against a SQLite graph store,
// running each command multiple times, treating the first successful run as cold and
// averaging the rest as warm, and writes CSV output for performance analysis.
//
// Prerequisites:
// - formpath binary installed and available in PATH
//
// Usage: go run benchmark/main.go [questionnaire.yaml] [answers.yaml]
//
//	questionnaire.yaml: questionnaire imported before the runs
//	answers.yaml: scripted answers used by the fill runs
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Command  string
	ColdTime string
	WarmTime string
	Failures int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Questionnaire string
	Answers       string
	WorkDir       string
	Timeout       time.Duration
	Runs          int
	Forms         int
}

// benchCase is one command line to time. args receives the run number so
// fill can use a fresh form name each time.
type benchCase struct {
	name string
	args func(run int) []string
}

func main() {
	if len(os.Args) != 3 {
		fmt.Printf("Usage: %s [questionnaire.yaml] [answers.yaml]\n", os.Args[0])
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "formpath-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	config := BenchmarkConfig{
		Questionnaire: os.Args[1],
		Answers:       os.Args[2],
		WorkDir:       workDir,
		Timeout:       time.Minute,
		Runs:          5,
		Forms:         50,
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Importing questionnaire...\n")
	if output, err := formpath(config, "graph", "import", "--file", config.Questionnaire); err != nil {
		fmt.Printf("Failed to import questionnaire: %v\nOutput: %s\n", err, string(output))
		os.Exit(1)
	}

	fmt.Printf("Seeding %d forms...\n", config.Forms)
	for i := range config.Forms {
		if output, err := formpath(config, "fill", fmt.Sprintf("seed_%d", i), "--answers", config.Answers); err != nil {
			fmt.Printf("Warning: failed to seed form %d: %v\nOutput: %s\n", i, err, string(output))
		}
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the formpath binary and input files exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("formpath"); err != nil {
		return fmt.Errorf("formpath binary not found in PATH")
	}
	for _, path := range []string{config.Questionnaire, config.Answers} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file %s not found", path)
		}
	}
	return nil
}

// runBenchmarks executes every benchmark case
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	cases := []benchCase{
		{name: "fill", args: func(run int) []string {
			return []string{"fill", fmt.Sprintf("bench_%d", run), "--answers", config.Answers}
		}},
		{name: "forms show", args: func(int) []string { return []string{"forms", "show", "seed_0"} }},
		{name: "forms list", args: func(int) []string { return []string{"forms", "list"} }},
		{name: "forms stats", args: func(int) []string { return []string{"forms", "stats"} }},
		{name: "graph status", args: func(int) []string { return []string{"graph", "status"} }},
	}

	fmt.Printf("Starting benchmark: %d commands, %v timeout, %d runs each\n", len(cases), config.Timeout, config.Runs)

	var results []BenchmarkResult
	for _, c := range cases {
		fmt.Printf("Running %s\n", c.name)
		cold, warm, failures := runBenchmark(config, c)

		result := BenchmarkResult{Command: c.name, ColdTime: "FAILED", WarmTime: "FAILED", Failures: failures}
		if cold > 0 {
			result.ColdTime = fmt.Sprintf("%.3fs", cold)
		}
		if len(warm) > 0 {
			var sum float64
			for _, t := range warm {
				sum += t
			}
			result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
		}
		fmt.Printf("  Cold time: %s, Warm average: %s, Failures: %d\n", result.ColdTime, result.WarmTime, failures)
		results = append(results, result)
	}
	return results
}

// runBenchmark executes one case several times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, c benchCase) (coldTime float64, warmTimes []float64, failures int) {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		done := make(chan error, 1)
		go func() {
			_, err := formpath(config, c.args(run)...)
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			} else {
				failures++
			}
		case <-time.After(config.Timeout):
			failures++
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// formpath runs the CLI against the benchmark stores.
func formpath(config BenchmarkConfig, args ...string) ([]byte, error) {
	cmd := exec.Command("formpath", append(args, "--user", "bench", "--output", "json")...)
	cmd.Env = append(os.Environ(),
		"FORMPATH_GRAPH_BACKEND=sqlite",
		"FORMPATH_GRAPH_DB_CONNECT="+filepath.Join(config.WorkDir, "graph.db"),
		"FORMPATH_TRACKING_BACKEND=none",
	)
	return cmd.CombinedOutput()
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/formpath_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"cmd", "cold_time", "warm_avg", "failures"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Command, result.ColdTime, result.WarmTime, fmt.Sprint(result.Failures)}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-14s: Cold: %s, Warm: %s, Failures: %d\n", result.Command, result.ColdTime, result.WarmTime, result.Failures)
	}
}

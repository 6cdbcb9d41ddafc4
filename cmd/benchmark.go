/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/moamenhredeen/jptest/internal/benchmarker"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/output"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	// Benchmark-specific flags
	benchIterations   int
	benchConcurrency  int
	benchWarmup       int
	benchRateLimit    float64
	benchNoKeepAlive  bool
	benchOutputFormat string
	benchOutputFile   string
)

// benchmarkCmd represents the benchmark command
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Benchmark API performance",
	Long: `Benchmark the selected cases by firing each one repeatedly and measuring
response times and throughput. Expectations are not checked.

This command collects latency percentiles (p50, p90, p99), requests per
second and error rates for every case.

Please be considerate when benchmarking the public JSONPlaceholder service.
Prefer a local fake (jptest serve) for anything beyond a few requests.

Examples:
  # Basic benchmark with defaults (100 iterations, 1 concurrent)
  jptest benchmark --base-url http://localhost:3000

  # High-load benchmark with concurrency, GET cases only
  jptest benchmark --base-url http://localhost:3000 --run '^get_' -n 1000 -c 10

  # Rate-limited benchmark
  jptest benchmark -n 50 --rate 5

  # Export results to JSON
  jptest benchmark -o json --output-file results.json`,
	Args: cobra.NoArgs,
	Run:  runBenchmark,
}

func runBenchmark(cmd *cobra.Command, args []string) {
	all, err := selectedCases()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cases: %v\n", err)
		os.Exit(1)
	}

	selected := lo.Filter(all, func(c models.Case, _ int) bool {
		return filters.Match(c.ID)
	})
	if len(selected) == 0 {
		fmt.Println("No cases found matching the criteria")
		os.Exit(0)
	}

	// Create benchmark configuration
	config := benchmarker.Config{
		BaseURL:          cfg.BaseURL,
		UserAgent:        cfg.UserAgent,
		Iterations:       benchIterations,
		Concurrency:      benchConcurrency,
		WarmupRuns:       benchWarmup,
		RateLimit:        benchRateLimit,
		Timeout:          cfg.Timeout,
		DisableKeepAlive: benchNoKeepAlive,
	}

	// Print benchmark info
	fmt.Printf("\n%s\n", white("=== Benchmark Configuration ==="))
	fmt.Printf("Base URL:    %s\n", config.BaseURL)
	fmt.Printf("Cases:       %d\n", len(selected))
	fmt.Printf("Iterations:  %d per case\n", config.Iterations)
	fmt.Printf("Concurrency: %d\n", config.Concurrency)
	fmt.Printf("Warmup:      %d iterations\n", config.WarmupRuns)
	if config.RateLimit > 0 {
		fmt.Printf("Rate Limit:  %.0f req/sec\n", config.RateLimit)
	}
	fmt.Printf("Timeout:     %v\n", config.Timeout)
	fmt.Printf("Keep-Alive:  %v\n", !config.DisableKeepAlive)
	fmt.Println()

	bench := benchmarker.NewBenchmarker(config)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\n\nBenchmark interrupted, generating partial results...")
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := &benchmarkProgress{}
	summary := bench.BenchmarkCases(ctx, selected, progress.onEvent)

	if benchOutputFormat != "" {
		format, err := output.ParseFormat(benchOutputFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := output.ExportBenchmarkSummary(summary, format, benchOutputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting results: %v\n", err)
			os.Exit(1)
		}

		// If writing to file, still show summary
		if benchOutputFile != "" {
			fmt.Printf("\nResults exported to: %s\n", benchOutputFile)
			displayBenchmarkSummary(summary)
		}
		return
	}

	displayBenchmarkSummary(summary)
}

// benchmarkProgress renders benchmark events, with a spinner on terminals
type benchmarkProgress struct {
	s          *spinner.Spinner
	phaseStart time.Time
}

func (p *benchmarkProgress) startSpinner(suffix string) {
	p.s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	p.s.Suffix = suffix
	p.s.Start()
}

func (p *benchmarkProgress) stopSpinner() {
	if p.s != nil {
		p.s.Stop()
		p.s = nil
	}
}

func (p *benchmarkProgress) onEvent(event benchmarker.BenchmarkEvent) {
	prefix := fmt.Sprintf("[%d/%d]", event.Index+1, event.Total)
	name := fmt.Sprintf("%s %s", event.Case.Method, event.Case.ID)

	switch event.Type {
	case benchmarker.EventWarmupStarting:
		p.phaseStart = time.Now()
		if isTTY {
			p.startSpinner(fmt.Sprintf(" %s %s - Warming up...", prefix, name))
		} else {
			fmt.Printf("%s %s - Warming up (%d iterations)...\n", prefix, name, event.MaxIter)
		}

	case benchmarker.EventWarmupProgress:
		if p.s != nil {
			p.s.Suffix = fmt.Sprintf(" %s %s - Warmup %d/%d", prefix, name, event.Progress, event.MaxIter)
		}

	case benchmarker.EventWarmupCompleted:
		p.stopSpinner()
		fmt.Printf("%s %s Warmup completed in %v\n",
			prefix, yellow("●"), time.Since(p.phaseStart).Round(time.Millisecond))

	case benchmarker.EventBenchmarkStarting:
		p.phaseStart = time.Now()
		if isTTY {
			p.startSpinner(fmt.Sprintf(" %s %s - Benchmarking 0/%d...", prefix, name, event.MaxIter))
		} else {
			fmt.Printf("%s %s - Running benchmark (%d iterations)...\n", prefix, name, event.MaxIter)
		}

	case benchmarker.EventBenchmarkProgress:
		if p.s != nil {
			avgMs := float64(event.RunningAvg.Microseconds()) / 1000
			p.s.Suffix = fmt.Sprintf(" %s %s - %d/%d (avg: %.1fms, %.1f req/s, %d errors)",
				prefix, name, event.Progress, event.MaxIter, avgMs, event.RunningReqSec, event.ErrorCount)
		}

	case benchmarker.EventBenchmarkCompleted:
		p.stopSpinner()
		if event.Result == nil {
			return
		}
		printBenchmarkResult(prefix, *event.Result, time.Since(p.phaseStart))
	}
}

func printBenchmarkResult(prefix string, result models.BenchmarkResult, elapsed time.Duration) {
	// Status indicator based on error rate
	var status string
	switch {
	case result.ErrorRate == 0:
		status = green("✓")
	case result.ErrorRate < 5:
		status = yellow("●")
	default:
		status = red("✗")
	}

	fmt.Printf("%s %s %s %s\n", prefix, status, result.Method, result.CaseID)

	avgMs := float64(result.AvgTime.Microseconds()) / 1000
	p99Ms := float64(result.P99Time.Microseconds()) / 1000
	fmt.Printf("    %s avg: %.2fms | p99: %.2fms | %.1f req/s | errors: %d (%.1f%%)\n",
		cyan("→"), avgMs, p99Ms, result.RequestsPerSec, result.ErrorCount, result.ErrorRate)

	if !verbose {
		return
	}

	minMs := float64(result.MinTime.Microseconds()) / 1000
	maxMs := float64(result.MaxTime.Microseconds()) / 1000
	p50Ms := float64(result.P50Time.Microseconds()) / 1000
	p90Ms := float64(result.P90Time.Microseconds()) / 1000

	fmt.Printf("    Latency:  min=%.2fms | p50=%.2fms | p90=%.2fms | max=%.2fms\n",
		minMs, p50Ms, p90Ms, maxMs)
	fmt.Printf("    Duration: %v | Success: %d | Errors: %d\n",
		elapsed.Round(time.Millisecond), result.SuccessCount, result.ErrorCount)

	if len(result.StatusCodes) > 0 {
		fmt.Printf("    Status codes: %s\n", formatStatusCodes(result.StatusCodes))
	}

	if len(result.SampleErrors) > 0 {
		fmt.Printf("    Sample errors:\n")
		for _, e := range result.SampleErrors {
			fmt.Printf("      - %s\n", red(e))
		}
	}
}

func formatStatusCodes(counts map[int]int) string {
	codes := lo.Keys(counts)
	sort.Ints(codes)
	return strings.Join(lo.Map(codes, func(code int, _ int) string {
		return fmt.Sprintf("%d:%d", code, counts[code])
	}), ", ")
}

func displayBenchmarkSummary(summary models.BenchmarkSummary) {
	fmt.Println()
	fmt.Printf("%s\n", white("=== Benchmark Summary ==="))
	fmt.Printf("Total Cases:        %d\n", summary.TotalCases)
	fmt.Printf("Total Requests:     %d\n", summary.TotalRequests)
	fmt.Printf("Total Duration:     %v\n", summary.TotalDuration.Round(time.Millisecond))
	fmt.Printf("Overall Throughput: %s\n", cyan(fmt.Sprintf("%.1f req/sec", summary.OverallReqsPerSec)))
	fmt.Println()

	fmt.Printf("%s\n", white("Latency Overview:"))
	fmt.Printf("  Min: %.2fms\n", float64(summary.OverallMinTime.Microseconds())/1000)
	fmt.Printf("  Avg: %.2fms\n", float64(summary.OverallAvgTime.Microseconds())/1000)
	fmt.Printf("  Max: %.2fms\n", float64(summary.OverallMaxTime.Microseconds())/1000)
	fmt.Println()

	if summary.TotalErrors > 0 {
		fmt.Printf("%s\n", white("Error Summary:"))
		fmt.Printf("  Total Errors: %s\n", red(summary.TotalErrors))
		fmt.Printf("  Error Rate:   %s\n", red(fmt.Sprintf("%.2f%%", summary.OverallErrorRate)))
		fmt.Println()
	} else {
		fmt.Printf("Errors: %s\n", green("0"))
		fmt.Println()
	}

	// Per-case table (if verbose or few cases)
	if verbose || len(summary.Results) <= 20 {
		fmt.Printf("%s\n", white("Per-Case Results:"))
		fmt.Printf("%-8s %-44s %10s %10s %10s %10s\n",
			"METHOD", "CASE", "AVG(ms)", "P99(ms)", "REQ/S", "ERR%")
		fmt.Println(strings.Repeat("-", 96))

		for _, r := range summary.Results {
			id := r.CaseID
			if len(id) > 42 {
				id = id[:39] + "..."
			}
			fmt.Printf("%-8s %-44s %10.2f %10.2f %10.1f %10.1f\n",
				r.Method, id,
				float64(r.AvgTime.Microseconds())/1000,
				float64(r.P99Time.Microseconds())/1000,
				r.RequestsPerSec,
				r.ErrorRate)
		}
	}
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)

	benchmarkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")

	// Benchmark-specific flags
	benchmarkCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 100, "Number of requests per case")
	benchmarkCmd.Flags().IntVarP(&benchConcurrency, "concurrency", "c", 1, "Number of concurrent requests")
	benchmarkCmd.Flags().IntVarP(&benchWarmup, "warmup", "w", 5, "Number of warmup iterations (discarded from stats)")
	benchmarkCmd.Flags().Float64VarP(&benchRateLimit, "rate", "r", 0, "Max requests per second (0 = unlimited)")
	benchmarkCmd.Flags().BoolVar(&benchNoKeepAlive, "no-keepalive", false, "Disable HTTP connection reuse")

	// Output flags
	benchmarkCmd.Flags().StringVarP(&benchOutputFormat, "output", "o", "", "Output format: json, csv")
	benchmarkCmd.Flags().StringVar(&benchOutputFile, "output-file", "", "Write output to file (default: stdout)")
}

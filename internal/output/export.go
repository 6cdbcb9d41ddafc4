package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/moamenhredeen/jptest/internal/models"
)

// Format represents the output format type
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatJUnit Format = "junit"
)

// ExportTestSummary exports test results to the specified format
func ExportTestSummary(summary models.TestSummary, format Format, filePath string) error {
	w, closer, err := getWriter(filePath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	return WriteTestSummary(w, summary, format)
}

// WriteTestSummary writes test results to w in the given format
func WriteTestSummary(w io.Writer, summary models.TestSummary, format Format) error {
	switch format {
	case FormatJSON:
		return exportJSON(w, summary)
	case FormatCSV:
		return exportTestCSV(w, summary)
	case FormatJUnit:
		return exportTestJUnit(w, summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// ExportBenchmarkSummary exports benchmark results to the specified format
func ExportBenchmarkSummary(summary models.BenchmarkSummary, format Format, filePath string) error {
	w, closer, err := getWriter(filePath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	return WriteBenchmarkSummary(w, summary, format)
}

// WriteBenchmarkSummary writes benchmark results to w in the given format
func WriteBenchmarkSummary(w io.Writer, summary models.BenchmarkSummary, format Format) error {
	switch format {
	case FormatJSON:
		return exportJSON(w, summary)
	case FormatCSV:
		return exportBenchmarkCSV(w, summary)
	default:
		return fmt.Errorf("unsupported format for benchmarks: %s", format)
	}
}

// getWriter returns an io.Writer for output (stdout or file)
func getWriter(filePath string) (io.Writer, io.Closer, error) {
	if filePath == "" {
		return os.Stdout, nil, nil
	}

	f, err := os.Create(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f, nil
}

func exportJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exportTestCSV exports test results as CSV
func exportTestCSV(w io.Writer, summary models.TestSummary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{
		"id", "method", "path", "outcome", "status_code",
		"response_time_ms", "error", "failures",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	// Write rows
	for _, r := range summary.Results {
		row := []string{
			r.ID,
			r.Method,
			r.Path,
			string(r.Outcome),
			strconv.Itoa(r.StatusCode),
			fmt.Sprintf("%.2f", float64(r.ResponseTime.Microseconds())/1000),
			r.Error,
			strings.Join(r.Failures, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// exportBenchmarkCSV exports benchmark results as CSV
func exportBenchmarkCSV(w io.Writer, summary models.BenchmarkSummary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{
		"case_id", "method", "path", "iterations", "concurrency",
		"min_ms", "max_ms", "avg_ms", "p50_ms", "p90_ms", "p99_ms",
		"requests_per_sec", "success_count", "error_count", "error_rate",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	// Write rows
	for _, r := range summary.Results {
		row := []string{
			r.CaseID,
			r.Method,
			r.Path,
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Concurrency),
			fmt.Sprintf("%.2f", float64(r.MinTime.Microseconds())/1000),
			fmt.Sprintf("%.2f", float64(r.MaxTime.Microseconds())/1000),
			fmt.Sprintf("%.2f", float64(r.AvgTime.Microseconds())/1000),
			fmt.Sprintf("%.2f", float64(r.P50Time.Microseconds())/1000),
			fmt.Sprintf("%.2f", float64(r.P90Time.Microseconds())/1000),
			fmt.Sprintf("%.2f", float64(r.P99Time.Microseconds())/1000),
			fmt.Sprintf("%.2f", r.RequestsPerSec),
			strconv.Itoa(r.SuccessCount),
			strconv.Itoa(r.ErrorCount),
			fmt.Sprintf("%.2f", r.ErrorRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ParseFormat parses a string into a Format, returning error if invalid
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "junit":
		return FormatJUnit, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be 'json', 'csv' or 'junit'", s)
	}
}

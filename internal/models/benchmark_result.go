package models

import "time"

// BenchmarkResult holds latency statistics for one case fired repeatedly.
// Durations are serialised in nanoseconds.
type BenchmarkResult struct {
	CaseID string `json:"case_id"`
	Group  string `json:"group"`
	Method string `json:"method"`
	Path   string `json:"path"`

	Iterations  int `json:"iterations"`
	Concurrency int `json:"concurrency"`
	WarmupRuns  int `json:"warmup_runs"`

	// Latency of successful requests only
	MinTime time.Duration `json:"min_time_ns"`
	MaxTime time.Duration `json:"max_time_ns"`
	AvgTime time.Duration `json:"avg_time_ns"`
	P50Time time.Duration `json:"p50_time_ns"`
	P90Time time.Duration `json:"p90_time_ns"`
	P99Time time.Duration `json:"p99_time_ns"`

	RequestsPerSec float64       `json:"requests_per_sec"`
	TotalDuration  time.Duration `json:"total_duration_ns"`

	// SuccessCount + ErrorCount is the number of requests actually sent,
	// which is below Iterations when the run was interrupted.
	SuccessCount int     `json:"success_count"`
	ErrorCount   int     `json:"error_count"`
	ErrorRate    float64 `json:"error_rate"`

	StatusCodes  map[int]int `json:"status_codes"`
	SampleErrors []string    `json:"sample_errors,omitempty"`
}

// Executed is the number of requests that were sent.
func (r BenchmarkResult) Executed() int {
	return r.SuccessCount + r.ErrorCount
}

// BenchmarkSummary aggregates the results of one benchmark run
type BenchmarkSummary struct {
	RunID     string    `json:"run_id"`
	BaseURL   string    `json:"base_url"`
	StartedAt time.Time `json:"started_at"`

	TotalCases  int `json:"total_cases"`
	Iterations  int `json:"iterations_per_case"`
	Concurrency int `json:"concurrency"`
	WarmupRuns  int `json:"warmup_runs"`

	OverallMinTime time.Duration `json:"overall_min_time_ns"`
	OverallMaxTime time.Duration `json:"overall_max_time_ns"`
	OverallAvgTime time.Duration `json:"overall_avg_time_ns"`

	TotalRequests     int           `json:"total_requests"`
	TotalSuccesses    int           `json:"total_successes"`
	TotalErrors       int           `json:"total_errors"`
	OverallErrorRate  float64       `json:"overall_error_rate"`
	TotalDuration     time.Duration `json:"total_duration_ns"`
	OverallReqsPerSec float64       `json:"overall_requests_per_sec"`

	Results []BenchmarkResult `json:"results"`
}

// AddResult appends result and updates the aggregates
func (s *BenchmarkSummary) AddResult(result BenchmarkResult) {
	s.Results = append(s.Results, result)
	s.TotalCases = len(s.Results)
	s.TotalRequests += result.Executed()
	s.TotalSuccesses += result.SuccessCount
	s.TotalErrors += result.ErrorCount

	// cases with no successful request have no timings
	if result.SuccessCount > 0 {
		if s.OverallMinTime == 0 || result.MinTime < s.OverallMinTime {
			s.OverallMinTime = result.MinTime
		}
		if result.MaxTime > s.OverallMaxTime {
			s.OverallMaxTime = result.MaxTime
		}
	}

	if s.TotalRequests > 0 {
		s.OverallErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests) * 100
	}

	// average over successful requests, weighted per case
	var weighted time.Duration
	for _, r := range s.Results {
		weighted += r.AvgTime * time.Duration(r.SuccessCount)
	}
	if s.TotalSuccesses > 0 {
		s.OverallAvgTime = weighted / time.Duration(s.TotalSuccesses)
	}
}

// Finalize records the wall-clock duration of the run and derives throughput
func (s *BenchmarkSummary) Finalize(totalDuration time.Duration) {
	s.TotalDuration = totalDuration
	if totalDuration > 0 {
		s.OverallReqsPerSec = float64(s.TotalRequests) / totalDuration.Seconds()
	}
}

package models

import (
	"time"

	"github.com/moamenhredeen/jptest/internal/logging"
)

// Outcome is the final state of a single case.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// TestResult represents the result of running a single case
type TestResult struct {
	// Case details
	ID          string `json:"id"`
	Group       string `json:"group"`
	Description string `json:"description,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	URL         string `json:"url,omitempty"`

	// Test status
	Outcome  Outcome  `json:"outcome"`
	Error    string   `json:"error,omitempty"`
	Failures []string `json:"failures,omitempty"`

	// Response details
	StatusCode   int           `json:"status_code,omitempty"`
	ResponseTime time.Duration `json:"response_time_ns"`
	StartedAt    time.Time     `json:"started_at"`

	// Values recorded from the response, in declaration order
	Properties []Property `json:"properties,omitempty"`

	// Short summary shown next to the result in the HTML report
	Card []Property `json:"card,omitempty"`

	// Contract validation details
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`

	Log logging.CapturedOutput `json:"log,omitempty"`
}

// Passed reports whether the case ran and met every expectation.
func (r TestResult) Passed() bool {
	return r.Outcome == OutcomePassed
}

// Property is a named value recorded while running a case.
type Property struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// ValidationError represents a specific contract validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// TestSummary represents the overall results of a run
type TestSummary struct {
	RunID     string        `json:"run_id"`
	BaseURL   string        `json:"base_url"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	TotalTests int `json:"total"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Errors     int `json:"errors"`
	Skipped    int `json:"skipped"`

	Results []TestResult `json:"results"`
}

// AddResult adds a test result to the summary
func (s *TestSummary) AddResult(result TestResult) {
	s.TotalTests++
	s.Results = append(s.Results, result)
	switch result.Outcome {
	case OutcomePassed:
		s.Passed++
	case OutcomeFailed:
		s.Failed++
	case OutcomeError:
		s.Errors++
	case OutcomeSkipped:
		s.Skipped++
	}
}

// OK is true when nothing failed or errored. Skipped cases do not count
// against the run.
func (s TestSummary) OK() bool {
	return s.Failed == 0 && s.Errors == 0
}

// Unsuccessful returns the failed and errored results in run order.
func (s TestSummary) Unsuccessful() []TestResult {
	var out []TestResult
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed || r.Outcome == OutcomeError {
			out = append(out, r)
		}
	}
	return out
}

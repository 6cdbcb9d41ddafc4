package tester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/moamenhredeen/jptest/internal/filter"
	"github.com/moamenhredeen/jptest/internal/logging"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/parser"
)

const (
	// SkippedByFilter is the reason given for cases excluded by -run/-skip
	SkippedByFilter = "excluded by filter parameters"
	// SkippedByInterrupt is the reason given for cases not run after cancellation
	SkippedByInterrupt = "run interrupted"

	// DefaultTimeout applies when Options.Timeout is not set
	DefaultTimeout = 30 * time.Second

	maxLoggedBody = 2048
)

// EventType represents the type of test event
type EventType int

const (
	// EventStarting indicates a test is about to start
	EventStarting EventType = iota
	// EventCompleted indicates a test has completed
	EventCompleted
	// EventSkipped indicates a test was not run
	EventSkipped
)

// TestEvent represents an event during test execution
type TestEvent struct {
	Type   EventType
	Case   models.Case
	Result *models.TestResult // nil for Starting events
	Index  int                // current test index (0-based)
	Total  int                // total number of tests
}

// OnTestEvent is a callback function for test events
type OnTestEvent func(event TestEvent)

// Options configures a Tester
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// Contract, when set, also validates every response against the
	// operation the document declares for it
	Contract *parser.Parser

	// Client overrides the HTTP client; Timeout is ignored when set
	Client *http.Client
}

// Tester runs cases against an API
type Tester struct {
	baseURL        string
	requestBuilder *RequestBuilder
	validator      *Validator
	contract       *parser.Parser
	client         *http.Client
}

// NewTester creates a new tester instance
func NewTester(opts Options) *Tester {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Tester{
		baseURL:        opts.BaseURL,
		requestBuilder: NewRequestBuilder(opts.UserAgent),
		validator:      NewValidator(),
		contract:       opts.Contract,
		client:         client,
	}
}

func newResult(c models.Case) models.TestResult {
	return models.TestResult{
		ID:          c.ID,
		Group:       c.Group,
		Description: c.Description,
		Method:      c.Method,
		Path:        c.Path,
	}
}

// TestCase sends the case's request once and checks the response
func (t *Tester) TestCase(ctx context.Context, c models.Case) models.TestResult {
	log := &logging.CapturingLogger{}
	result := newResult(c)
	result.StartedAt = time.Now()

	t.run(ctx, c, log, &result)

	result.Log = log.Output()
	logging.GetLogger().Debug("case finished",
		"id", result.ID,
		"outcome", result.Outcome,
		"status", result.StatusCode,
		"duration", result.ResponseTime)
	return result
}

func (t *Tester) run(ctx context.Context, c models.Case, log logging.Logger, result *models.TestResult) {
	req, err := t.requestBuilder.BuildRequest(ctx, c, t.baseURL)
	if err != nil {
		result.Outcome = models.OutcomeError
		result.Error = fmt.Sprintf("failed to build request: %v", err)
		return
	}
	result.URL = req.URL.String()

	log.Printf("Request: %s %s", req.Method, result.URL)
	if c.Body != nil && req.Body != nil {
		log.Printf("Request body: %s", formatValue(c.Body))
	}

	// Execute request
	startTime := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		result.ResponseTime = time.Since(startTime)
		if ctx.Err() != nil {
			result.Outcome = models.OutcomeSkipped
			result.Error = SkippedByInterrupt
			return
		}
		log.Printf("Request failed: %v", err)
		result.Outcome = models.OutcomeError
		result.Error = fmt.Sprintf("request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	result.ResponseTime = time.Since(startTime)
	result.StatusCode = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		result.URL = resp.Request.URL.String()
	}
	log.Printf("Response: %s in %s", resp.Status, result.ResponseTime.Round(time.Millisecond))
	if err != nil {
		log.Printf("Failed to read response body: %v", err)
		result.Outcome = models.OutcomeError
		result.Error = fmt.Sprintf("failed to read response body: %v", err)
		return
	}

	doc, decodeErr := decodeJSON(body)

	result.Properties = append([]models.Property{
		{Name: "url", Value: result.URL},
		{Name: "status_code", Value: result.StatusCode},
	}, resolveProperties(c.Record, doc)...)
	result.Card = resolveProperties(c.Card, doc)

	result.Failures = checkExpectations(c.Expect, resp.StatusCode, doc, decodeErr)

	if t.contract != nil {
		result.ValidationErrors = t.validateContract(c, resp, body)
		for _, ve := range result.ValidationErrors {
			result.Failures = append(result.Failures, fmt.Sprintf("contract: %s: %s", ve.Field, ve.Message))
		}
	}

	if len(result.Failures) == 0 {
		result.Outcome = models.OutcomePassed
		return
	}
	result.Outcome = models.OutcomeFailed
	for _, f := range result.Failures {
		log.Printf("Failure: %s", f)
	}
	log.Printf("Response body: %s", truncate(body, maxLoggedBody))
}

func (t *Tester) validateContract(c models.Case, resp *http.Response, body []byte) []models.ValidationError {
	details, err := t.contract.MatchOperation(c.Path, c.Method)
	if err != nil {
		return []models.ValidationError{{Field: "operation", Message: err.Error()}}
	}
	return t.validator.ValidateResponse(resp, body, details)
}

// TestCases runs cases in order. Cases rejected by the filter, or left over
// once ctx is cancelled, are reported as skipped.
func (t *Tester) TestCases(ctx context.Context, cases []models.Case, f filter.Filter, onEvent OnTestEvent) models.TestSummary {
	summary := models.TestSummary{
		RunID:     uuid.NewString(),
		BaseURL:   t.baseURL,
		StartedAt: time.Now(),
		Results:   make([]models.TestResult, 0, len(cases)),
	}
	total := len(cases)

	logging.GetLogger().Info("starting run", "run_id", summary.RunID, "cases", total, "base_url", t.baseURL)

	for i, c := range cases {
		var reason string
		switch {
		case ctx.Err() != nil:
			reason = SkippedByInterrupt
		case f != nil && !f(c.ID):
			reason = SkippedByFilter
		}

		if reason != "" {
			result := newResult(c)
			result.Outcome = models.OutcomeSkipped
			result.Error = reason
			summary.AddResult(result)
			if onEvent != nil {
				onEvent(TestEvent{Type: EventSkipped, Case: c, Result: &result, Index: i, Total: total})
			}
			continue
		}

		// Report: test is starting
		if onEvent != nil {
			onEvent(TestEvent{Type: EventStarting, Case: c, Index: i, Total: total})
		}

		result := t.TestCase(ctx, c)
		summary.AddResult(result)

		// Report: test completed
		if onEvent != nil {
			eventType := EventCompleted
			if result.Outcome == models.OutcomeSkipped {
				eventType = EventSkipped
			}
			onEvent(TestEvent{Type: eventType, Case: c, Result: &result, Index: i, Total: total})
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	logging.GetLogger().Info("run finished",
		"run_id", summary.RunID,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"errors", summary.Errors,
		"skipped", summary.Skipped)
	return summary
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}

package benchmarker

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moamenhredeen/jptest/internal/logging"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/tester"
	"golang.org/x/time/rate"
)

// EventType represents the type of benchmark event
type EventType int

const (
	// EventWarmupStarting indicates warmup phase is starting for a case
	EventWarmupStarting EventType = iota
	// EventWarmupProgress indicates warmup progress
	EventWarmupProgress
	// EventWarmupCompleted indicates warmup phase completed
	EventWarmupCompleted
	// EventBenchmarkStarting indicates benchmark is starting for a case
	EventBenchmarkStarting
	// EventBenchmarkProgress indicates benchmark progress (periodic updates)
	EventBenchmarkProgress
	// EventBenchmarkCompleted indicates benchmark completed for a case
	EventBenchmarkCompleted
)

// BenchmarkEvent represents an event during benchmark execution
type BenchmarkEvent struct {
	Type     EventType
	Case     models.Case
	Result   *models.BenchmarkResult // nil until completed
	Index    int                     // current case index (0-based)
	Total    int                     // total number of cases
	Progress int                     // current iteration count
	MaxIter  int                     // max iterations for this phase

	// Running stats (for progress events)
	RunningAvg    time.Duration
	RunningReqSec float64
	ErrorCount    int
}

// OnBenchmarkEvent is a callback function for benchmark events
type OnBenchmarkEvent func(event BenchmarkEvent)

// Config holds benchmark configuration
type Config struct {
	BaseURL          string        // API root the case paths are joined to
	UserAgent        string        // User-Agent header, tester default when empty
	Iterations       int           // Number of requests per case
	Concurrency      int           // Number of concurrent workers
	WarmupRuns       int           // Number of warmup iterations (discarded)
	RateLimit        float64       // Max requests per second (0 = unlimited)
	Timeout          time.Duration // Per-request timeout
	DisableKeepAlive bool          // Disable HTTP connection reuse
}

// DefaultConfig returns default benchmark configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://jsonplaceholder.typicode.com",
		Iterations:       100,
		Concurrency:      1,
		WarmupRuns:       5,
		RateLimit:        0,
		Timeout:          30 * time.Second,
		DisableKeepAlive: false,
	}
}

// Benchmarker fires cases repeatedly and measures latency. It does not
// check expectations.
type Benchmarker struct {
	config         Config
	requestBuilder *tester.RequestBuilder
	client         *http.Client
	limiter        *rate.Limiter
}

// NewBenchmarker creates a new benchmarker instance
func NewBenchmarker(config Config) *Benchmarker {
	config.Concurrency = max(1, config.Concurrency)
	config.Iterations = max(0, config.Iterations)

	// Create HTTP transport with keepalive settings
	transport := &http.Transport{
		DisableKeepAlives:   config.DisableKeepAlive,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: config.Concurrency,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	client := &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}

	// Create rate limiter if configured
	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), max(1, int(config.RateLimit)))
	}

	return &Benchmarker{
		config:         config,
		requestBuilder: tester.NewRequestBuilder(config.UserAgent),
		client:         client,
		limiter:        limiter,
	}
}

// requestResult holds the result of a single request
type requestResult struct {
	Executed   bool
	Duration   time.Duration
	StatusCode int
	Error      string
}

// BenchmarkCase benchmarks a single case
func (b *Benchmarker) BenchmarkCase(
	ctx context.Context,
	c models.Case,
	onEvent OnBenchmarkEvent,
	index, total int,
) (models.BenchmarkResult, error) {
	result := models.BenchmarkResult{
		CaseID:      c.ID,
		Group:       c.Group,
		Path:        c.Path,
		Method:      c.Method,
		Iterations:  b.config.Iterations,
		Concurrency: b.config.Concurrency,
		WarmupRuns:  b.config.WarmupRuns,
		StatusCodes: make(map[int]int),
	}

	// Build a sample request to validate
	if _, err := b.requestBuilder.BuildRequest(ctx, c, b.config.BaseURL); err != nil {
		return result, fmt.Errorf("failed to build request: %w", err)
	}

	// Warmup phase
	if b.config.WarmupRuns > 0 && onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:    EventWarmupStarting,
			Case:    c,
			Index:   index,
			Total:   total,
			MaxIter: b.config.WarmupRuns,
		})
	}

	// Run warmup (single-threaded, no stats collection)
	for i := 0; i < b.config.WarmupRuns; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		b.executeRequest(ctx, c)

		if onEvent != nil && (i+1)%max(1, b.config.WarmupRuns/5) == 0 {
			onEvent(BenchmarkEvent{
				Type:     EventWarmupProgress,
				Case:     c,
				Index:    index,
				Total:    total,
				Progress: i + 1,
				MaxIter:  b.config.WarmupRuns,
			})
		}
	}

	if b.config.WarmupRuns > 0 && onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:  EventWarmupCompleted,
			Case:  c,
			Index: index,
			Total: total,
		})
	}

	// Benchmark phase
	if onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:    EventBenchmarkStarting,
			Case:    c,
			Index:   index,
			Total:   total,
			MaxIter: b.config.Iterations,
		})
	}

	// Execute benchmark with concurrency
	startTime := time.Now()
	results := b.runConcurrentBenchmark(ctx, c, onEvent, index, total)
	result.TotalDuration = time.Since(startTime)

	// Process results
	result = b.processResults(result, results)

	if onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:   EventBenchmarkCompleted,
			Case:   c,
			Result: &result,
			Index:  index,
			Total:  total,
		})
	}

	return result, ctx.Err()
}

// runConcurrentBenchmark executes the benchmark with worker pool
func (b *Benchmarker) runConcurrentBenchmark(
	ctx context.Context,
	c models.Case,
	onEvent OnBenchmarkEvent,
	index, total int,
) []requestResult {
	results := make([]requestResult, b.config.Iterations)
	jobs := make(chan int, b.config.Iterations)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed int
	var totalDuration time.Duration
	var errorCount int

	// Progress reporting interval
	progressInterval := max(1, b.config.Iterations/20) // ~5% intervals
	phaseStart := time.Now()

	// Start workers
	for w := 0; w < b.config.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}

				// Apply rate limiting
				if b.limiter != nil {
					if err := b.limiter.Wait(ctx); err != nil {
						return
					}
				}

				res := b.executeRequest(ctx, c)
				results[i] = res

				// Update progress
				mu.Lock()
				completed++
				totalDuration += res.Duration
				if res.Error != "" {
					errorCount++
				}
				currentCompleted := completed
				currentTotalDuration := totalDuration
				currentErrorCount := errorCount
				mu.Unlock()

				// Report progress periodically
				if onEvent != nil && currentCompleted%progressInterval == 0 {
					avgDuration := currentTotalDuration / time.Duration(currentCompleted)
					var reqsPerSec float64
					if elapsed := time.Since(phaseStart); elapsed > 0 {
						reqsPerSec = float64(currentCompleted) / elapsed.Seconds()
					}

					onEvent(BenchmarkEvent{
						Type:          EventBenchmarkProgress,
						Case:          c,
						Index:         index,
						Total:         total,
						Progress:      currentCompleted,
						MaxIter:       b.config.Iterations,
						RunningAvg:    avgDuration,
						RunningReqSec: reqsPerSec,
						ErrorCount:    currentErrorCount,
					})
				}
			}
		}()
	}

	// Send jobs
	for i := 0; i < b.config.Iterations; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// executeRequest executes a single HTTP request and returns timing
func (b *Benchmarker) executeRequest(ctx context.Context, c models.Case) requestResult {
	result := requestResult{Executed: true}

	req, err := b.requestBuilder.BuildRequest(ctx, c, b.config.BaseURL)
	if err != nil {
		result.Error = fmt.Sprintf("build request failed: %v", err)
		return result
	}

	startTime := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		result.Duration = time.Since(startTime)
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	result.Duration = time.Since(startTime)

	result.StatusCode = resp.StatusCode
	return result
}

// processResults calculates statistics from raw results
func (b *Benchmarker) processResults(result models.BenchmarkResult, rawResults []requestResult) models.BenchmarkResult {
	if len(rawResults) == 0 {
		return result
	}

	var durations []time.Duration
	var totalDuration time.Duration
	var executed int
	errorSet := make(map[string]bool)

	for _, r := range rawResults {
		if !r.Executed {
			continue
		}
		executed++
		if r.Error != "" {
			result.ErrorCount++
			if len(result.SampleErrors) < 5 && !errorSet[r.Error] {
				result.SampleErrors = append(result.SampleErrors, r.Error)
				errorSet[r.Error] = true
			}
		} else {
			result.SuccessCount++
			durations = append(durations, r.Duration)
			totalDuration += r.Duration
		}

		if r.StatusCode > 0 {
			result.StatusCodes[r.StatusCode]++
		}
	}

	// Calculate timing stats (only from successful requests)
	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool {
			return durations[i] < durations[j]
		})

		result.MinTime = durations[0]
		result.MaxTime = durations[len(durations)-1]
		result.AvgTime = totalDuration / time.Duration(len(durations))
		result.P50Time = percentile(durations, 50)
		result.P90Time = percentile(durations, 90)
		result.P99Time = percentile(durations, 99)
	}

	// Calculate throughput
	if result.TotalDuration > 0 {
		result.RequestsPerSec = float64(executed) / result.TotalDuration.Seconds()
	}

	// Calculate error rate
	if executed > 0 {
		result.ErrorRate = float64(result.ErrorCount) / float64(executed) * 100
	}

	return result
}

// percentile calculates the p-th percentile from sorted durations
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * float64(p) / 100.0
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[lower]
	}

	// Linear interpolation
	weight := index - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

// BenchmarkCases benchmarks multiple cases with live event reporting. A
// cancelled context stops the run after the case in progress.
func (b *Benchmarker) BenchmarkCases(
	ctx context.Context,
	cases []models.Case,
	onEvent OnBenchmarkEvent,
) models.BenchmarkSummary {
	summary := models.BenchmarkSummary{
		RunID:       uuid.NewString(),
		BaseURL:     b.config.BaseURL,
		StartedAt:   time.Now(),
		Iterations:  b.config.Iterations,
		Concurrency: b.config.Concurrency,
		WarmupRuns:  b.config.WarmupRuns,
		Results:     make([]models.BenchmarkResult, 0, len(cases)),
	}

	logging.GetLogger().Info("starting benchmark",
		"run_id", summary.RunID,
		"cases", len(cases),
		"iterations", b.config.Iterations,
		"concurrency", b.config.Concurrency)

	for i, c := range cases {
		if ctx.Err() != nil {
			break
		}

		result, err := b.BenchmarkCase(ctx, c, onEvent, i, len(cases))
		if err != nil && ctx.Err() == nil {
			result.SampleErrors = append(result.SampleErrors, err.Error())
			result.ErrorCount = result.Iterations
			result.ErrorRate = 100
		}
		summary.AddResult(result)
	}

	summary.Finalize(time.Since(summary.StartedAt))
	logging.GetLogger().Info("benchmark finished",
		"run_id", summary.RunID,
		"requests", summary.TotalRequests,
		"errors", summary.TotalErrors)
	return summary
}

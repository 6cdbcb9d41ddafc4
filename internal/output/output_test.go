package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moamenhredeen/jptest/internal/logging"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() models.TestSummary {
	started := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	var s models.TestSummary
	s.RunID = "run-1"
	s.BaseURL = "https://jsonplaceholder.typicode.com"
	s.StartedAt = started
	s.Duration = 1500 * time.Millisecond

	s.AddResult(models.TestResult{
		ID: "get_post_by_id/1", Group: "get_post_by_id", Method: "GET", Path: "/posts/1",
		Outcome: models.OutcomePassed, StatusCode: 200, ResponseTime: 120 * time.Millisecond,
		Properties: []models.Property{
			{Name: "url", Value: "https://jsonplaceholder.typicode.com/posts/1"},
			{Name: "status_code", Value: 200},
			{Name: "title", Value: "sunt aut <facere>"},
		},
		Card: []models.Property{{Name: "Title", Value: "sunt aut <facere>"}},
	})
	s.AddResult(models.TestResult{
		ID: "update_post/update_post_1", Group: "update_post", Method: "PUT", Path: "/posts/1",
		Outcome: models.OutcomeFailed, StatusCode: 500, ResponseTime: 80 * time.Millisecond,
		Failures: []string{"expected status 200, got 500", `$.title: expected "Updated title", got null`},
		Log: logging.CapturedOutput{{Time: started, Message: "Request: PUT https://jsonplaceholder.typicode.com/posts/1"}},
	})
	s.AddResult(models.TestResult{
		ID: "delete_post/delete_post_1", Group: "delete_post", Method: "DELETE", Path: "/posts/1",
		Outcome: models.OutcomeError, Error: "request failed: connection refused",
	})
	s.AddResult(models.TestResult{
		ID: "delete_post/delete_post_2", Group: "delete_post", Method: "DELETE", Path: "/posts/2",
		Outcome: models.OutcomeSkipped, Error: "excluded by filter parameters",
	})
	return s
}

func TestWriteHTMLSelfContained(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHTML(&buf, sampleSummary(), HTMLOptions{
		Title:         "report.html",
		SelfContained: true,
		Environment:   map[string]string{"Go": "go1.25", "Platform": "linux"},
	})
	require.NoError(t, err)
	html := buf.String()

	assert.Contains(t, html, "<style>")
	assert.Contains(t, html, "#results-table")
	assert.NotContains(t, html, `rel="stylesheet"`)
	assert.Contains(t, html, "applyFilters")
	assert.Contains(t, html, "4 tests took 1.50 s.")
	assert.Contains(t, html, "1 Passed")
	assert.Contains(t, html, "1 Failed")
	assert.Contains(t, html, "1 Errors")
	assert.Contains(t, html, "1 Skipped")
	assert.Contains(t, html, "run-1")
	assert.Contains(t, html, "get_post_by_id/1")
	assert.Contains(t, html, "sunt aut &lt;facere&gt;")
	assert.NotContains(t, html, "sunt aut <facere>")
	assert.Contains(t, html, "expected status 200, got 500")
	assert.Contains(t, html, "Request: PUT")
	assert.Contains(t, html, "request failed: connection refused")
	assert.Contains(t, html, "Skipped: excluded by filter parameters")
	assert.Contains(t, html, "<b>DELETE /posts/1</b>")
	assert.Less(t, strings.Index(html, "<td>Go</td>"), strings.Index(html, "<td>Platform</td>"))
	assert.Greater(t, strings.Index(html, "<td>Go</td>"), 0)
}

func TestWriteHTMLFileWithAssets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "report.html")

	require.NoError(t, WriteHTMLFile(path, sampleSummary(), HTMLOptions{}))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<link rel="stylesheet" href="assets/style.css">`)
	assert.NotContains(t, string(html), "<style>")

	css, err := os.ReadFile(filepath.Join(dir, "reports", AssetsDir, "style.css"))
	require.NoError(t, err)
	assert.Contains(t, string(css), "#results-table")
}

func TestWriteHTMLFileSelfContainedWritesNoAssets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")

	require.NoError(t, WriteHTMLFile(path, sampleSummary(), HTMLOptions{SelfContained: true}))

	_, err := os.Stat(filepath.Join(dir, AssetsDir))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteTestSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTestSummary(&buf, sampleSummary(), FormatJSON))

	var decoded models.TestSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 4, decoded.TotalTests)
	assert.Equal(t, models.OutcomeFailed, decoded.Results[1].Outcome)
}

func TestWriteTestSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTestSummary(&buf, sampleSummary(), FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, []string{
		"update_post/update_post_1", "PUT", "/posts/1", "failed", "500", "80.00", "",
		`expected status 200, got 500; $.title: expected "Updated title", got null`,
	}, records[2])
}

func TestWriteTestSummaryJUnit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTestSummary(&buf, sampleSummary(), FormatJUnit))

	var doc junitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Suites, 3)

	assert.Equal(t, "get_post_by_id", doc.Suites[0].Name)
	assert.Equal(t, "1", doc.Suites[0].Cases[0].Name)

	update := doc.Suites[1]
	assert.Equal(t, 1, update.Failures)
	require.NotNil(t, update.Cases[0].Failure)
	assert.Equal(t, "expected status 200, got 500", update.Cases[0].Failure.Message)

	del := doc.Suites[2]
	assert.Equal(t, 2, del.Tests)
	assert.Equal(t, 1, del.Errors)
	assert.Equal(t, 1, del.Skipped)
	require.NotNil(t, del.Cases[1].Skipped)
}

func TestWriteBenchmarkSummaryRejectsJUnit(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteBenchmarkSummary(&buf, models.BenchmarkSummary{}, FormatJUnit))
}

func TestWriteBenchmarkSummaryCSV(t *testing.T) {
	var summary models.BenchmarkSummary
	summary.AddResult(models.BenchmarkResult{
		CaseID: "get_post_by_id/1", Method: "GET", Path: "/posts/1",
		Iterations: 10, Concurrency: 2, SuccessCount: 10,
		MinTime: time.Millisecond, MaxTime: 3 * time.Millisecond, AvgTime: 2 * time.Millisecond,
	})

	var buf bytes.Buffer
	require.NoError(t, WriteBenchmarkSummary(&buf, summary, FormatCSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "get_post_by_id/1", records[1][0])
	assert.Equal(t, "1.00", records[1][5])
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "csv", "junit"} {
		f, err := ParseFormat(s)
		assert.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "101", FormatValue(float64(101)))
	assert.Equal(t, "1.5", FormatValue(1.5))
	assert.Equal(t, "200", FormatValue(200))
	assert.Equal(t, "null", FormatValue(nil))
	assert.Equal(t, "Bret", FormatValue("Bret"))
	assert.Equal(t, `{"a":1}`, FormatValue(map[string]interface{}{"a": float64(1)}))
}

func TestMetricsRegistry(t *testing.T) {
	reg := NewMetricsRegistry(sampleSummary())

	count, err := testutil.GatherAndCount(reg, "jptest_case_results_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	expected := `
# HELP jptest_last_run_success 1 when the last run had no failures or errors.
# TYPE jptest_last_run_success gauge
jptest_last_run_success 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "jptest_last_run_success"))
}

func TestWriteMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jptest.prom")
	require.NoError(t, WriteMetricsTextfile(path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `jptest_case_results_total{group="delete_post",outcome="skipped"} 1`)
	assert.Contains(t, text, "jptest_case_response_seconds_bucket")
	assert.Contains(t, text, "jptest_run_duration_seconds 1.5")
}

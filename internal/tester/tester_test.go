package tester

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/moamenhredeen/jptest/internal/cases"
	"github.com/moamenhredeen/jptest/internal/fakeapi"
	"github.com/moamenhredeen/jptest/internal/filter"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/parser"
)

func withFakeAPI(t *testing.T, action func(baseURL string)) {
	t.Helper()
	handler, err := fakeapi.New()
	if err != nil {
		t.Fatalf("Failed to build fake api: %v", err)
	}
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		action(server.URL)
	})
}

func TestNewTester(t *testing.T) {
	tr := NewTester(Options{})
	if tr == nil {
		t.Fatal("Tester is nil")
	}
	if tr.client.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout, got %s", tr.client.Timeout)
	}
}

func TestCatalogPassesAgainstFakeAPI(t *testing.T) {
	withFakeAPI(t, func(baseURL string) {
		tr := NewTester(Options{BaseURL: baseURL, Timeout: 5 * time.Second})

		summary := tr.TestCases(context.Background(), cases.Catalog(), nil, nil)

		if summary.TotalTests != 17 {
			t.Errorf("Expected 17 results, got %d", summary.TotalTests)
		}
		for _, r := range summary.Unsuccessful() {
			t.Errorf("%s: %s %s %v", r.ID, r.Outcome, r.Error, r.Failures)
		}
		if !summary.OK() || summary.Passed != 17 {
			t.Errorf("Expected every case to pass, got %+v", summary)
		}
		if summary.RunID == "" {
			t.Error("Run id is empty")
		}
		if summary.BaseURL != baseURL {
			t.Errorf("Unexpected base URL %s", summary.BaseURL)
		}
	})
}

func TestContractPassesAgainstFakeAPI(t *testing.T) {
	p, err := parser.Default()
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	withFakeAPI(t, func(baseURL string) {
		tr := NewTester(Options{BaseURL: baseURL, Contract: p})

		summary := tr.TestCases(context.Background(), cases.Catalog(), nil, nil)
		for _, r := range summary.Unsuccessful() {
			t.Errorf("%s: %v", r.ID, r.Failures)
		}
	})
}

func TestRecordedProperties(t *testing.T) {
	withFakeAPI(t, func(baseURL string) {
		tr := NewTester(Options{BaseURL: baseURL})

		result := tr.TestCase(context.Background(), findCase(t, "create_new_post/normal_post"))
		if !result.Passed() {
			t.Fatalf("Expected pass, got %s %v", result.Outcome, result.Failures)
		}

		names := make([]string, 0, len(result.Properties))
		for _, p := range result.Properties {
			names = append(names, p.Name)
		}
		if strings.Join(names, ",") != "url,status_code,response_id,title_sent" {
			t.Errorf("Unexpected properties %v", names)
		}
		if result.Properties[0].Value != baseURL+"/posts" {
			t.Errorf("Unexpected url %v", result.Properties[0].Value)
		}
		if result.Properties[1].Value != 201 {
			t.Errorf("Unexpected status %v", result.Properties[1].Value)
		}
		if result.Properties[2].Value != float64(fakeapi.CreatedPostID) {
			t.Errorf("Unexpected response id %v", result.Properties[2].Value)
		}
		if result.Properties[3].Value != "pytest demo post" {
			t.Errorf("Unexpected title_sent %v", result.Properties[3].Value)
		}
		if len(result.Card) != 3 || result.Card[0].Value != "pytest demo post" {
			t.Errorf("Unexpected card %v", result.Card)
		}
		if len(result.Log) == 0 {
			t.Error("Expected a captured log")
		}
	})
}

func TestStatusMismatchIsFailure(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(http.StatusInternalServerError), func(server *httptest.Server) {
		tr := NewTester(Options{BaseURL: server.URL})

		result := tr.TestCase(context.Background(), findCase(t, "delete_post/delete_post_1"))
		if result.Outcome != models.OutcomeFailed {
			t.Fatalf("Expected failed, got %s", result.Outcome)
		}
		if len(result.Failures) != 1 || result.Failures[0] != "expected status 200, got 500" {
			t.Errorf("Unexpected failures %v", result.Failures)
		}
	})
}

func TestEveryMismatchIsListed(t *testing.T) {
	header := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"id": 1, "title": "wrong"}`)
	httphelpers.WithServer(httphelpers.HandlerWithResponse(http.StatusAccepted, header, body), func(server *httptest.Server) {
		tr := NewTester(Options{BaseURL: server.URL})

		result := tr.TestCase(context.Background(), findCase(t, "update_post/update_post_1"))
		if result.Outcome != models.OutcomeFailed {
			t.Fatalf("Expected failed, got %s", result.Outcome)
		}
		want := []string{
			"expected status 200, got 202",
			`$.title: expected "Updated title", got "wrong"`,
			"$.body: not found in response",
		}
		if strings.Join(result.Failures, "\n") != strings.Join(want, "\n") {
			t.Errorf("Unexpected failures:\n%s", strings.Join(result.Failures, "\n"))
		}
	})
}

func TestUndecodableBodyIsFailure(t *testing.T) {
	body := []byte(`<html>oops</html>`)
	httphelpers.WithServer(httphelpers.HandlerWithResponse(http.StatusOK, nil, body), func(server *httptest.Server) {
		tr := NewTester(Options{BaseURL: server.URL})

		result := tr.TestCase(context.Background(), findCase(t, "get_post_by_id/1"))
		if result.Outcome != models.OutcomeFailed {
			t.Fatalf("Expected failed, got %s", result.Outcome)
		}
		if len(result.Failures) != 1 || !strings.HasPrefix(result.Failures[0], "response body is not valid JSON") {
			t.Errorf("Unexpected failures %v", result.Failures)
		}

		// status only cases do not need a JSON body
		result = tr.TestCase(context.Background(), findCase(t, "delete_post/delete_post_2"))
		if !result.Passed() {
			t.Errorf("Expected pass, got %v", result.Failures)
		}
	})
}

func TestNetworkFailureIsError(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(http.StatusOK))
	baseURL := server.URL
	server.Close()

	tr := NewTester(Options{BaseURL: baseURL, Timeout: time.Second})
	result := tr.TestCase(context.Background(), findCase(t, "get_post_by_id/1"))
	if result.Outcome != models.OutcomeError {
		t.Fatalf("Expected error, got %s", result.Outcome)
	}
	if !strings.HasPrefix(result.Error, "request failed") {
		t.Errorf("Unexpected error %s", result.Error)
	}
	if result.StatusCode != 0 {
		t.Errorf("Expected no status code, got %d", result.StatusCode)
	}
}

func TestSingleRequestPerCase(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(http.StatusServiceUnavailable))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		tr := NewTester(Options{BaseURL: server.URL})
		tr.TestCase(context.Background(), findCase(t, "delete_post/delete_post_1"))

		if len(requests) != 1 {
			t.Errorf("Expected exactly one request, got %d", len(requests))
		}
		info := <-requests
		if info.Request.Method != "DELETE" || info.Request.URL.Path != "/posts/1" {
			t.Errorf("Unexpected request %s %s", info.Request.Method, info.Request.URL.Path)
		}
	})
}

func TestFilteredCasesAreSkipped(t *testing.T) {
	withFakeAPI(t, func(baseURL string) {
		var filters filter.RegexFilters
		if err := filters.MustMatch.Set("^delete_"); err != nil {
			t.Fatal(err)
		}

		var events []TestEvent
		tr := NewTester(Options{BaseURL: baseURL})
		summary := tr.TestCases(context.Background(), cases.Catalog(), filters.Match, func(e TestEvent) {
			events = append(events, e)
		})

		if summary.Passed != 5 || summary.Skipped != 12 {
			t.Errorf("Expected 5 passed and 12 skipped, got %d and %d", summary.Passed, summary.Skipped)
		}
		for _, r := range summary.Results {
			if r.Outcome == models.OutcomeSkipped && r.Error != SkippedByFilter {
				t.Errorf("%s: unexpected skip reason %q", r.ID, r.Error)
			}
		}

		// one skip event per skipped case, a start and completion per run case
		if len(events) != 12+2*5 {
			t.Errorf("Unexpected event count %d", len(events))
		}
		if events[0].Type != EventSkipped || events[0].Total != 17 {
			t.Errorf("Unexpected first event %+v", events[0])
		}
	})
}

func TestCancelledRunSkipsRemaining(t *testing.T) {
	withFakeAPI(t, func(baseURL string) {
		ctx, cancel := context.WithCancel(context.Background())
		tr := NewTester(Options{BaseURL: baseURL})

		summary := tr.TestCases(ctx, cases.Catalog(), nil, func(e TestEvent) {
			if e.Type == EventCompleted && e.Index == 1 {
				cancel()
			}
		})

		if summary.Passed != 2 || summary.Skipped != 15 {
			t.Errorf("Expected 2 passed and 15 skipped, got %d and %d", summary.Passed, summary.Skipped)
		}
		last := summary.Results[len(summary.Results)-1]
		if last.Error != SkippedByInterrupt {
			t.Errorf("Unexpected skip reason %q", last.Error)
		}
	})
}

func TestValuesEqualNormalisesNumbers(t *testing.T) {
	tests := []struct {
		expected, actual interface{}
		equal            bool
	}{
		{1, float64(1), true},
		{int64(10), float64(10), true},
		{1, float64(2), false},
		{"1", float64(1), false},
		{"", "", true},
		{map[string]interface{}{"a": 1}, map[string]interface{}{"a": float64(1)}, true},
		{[]interface{}{1, "x"}, []interface{}{float64(1), "x"}, true},
		{nil, nil, true},
	}
	for _, tt := range tests {
		if got := valuesEqual(tt.expected, tt.actual); got != tt.equal {
			t.Errorf("valuesEqual(%#v, %#v) = %v", tt.expected, tt.actual, got)
		}
	}
}

package output

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/samber/lo"
)

// AssetsDir is where the stylesheet goes, relative to the report, when the
// report is not self-contained
const AssetsDir = "assets"

const stylesheetName = "style.css"

//go:embed assets/report.html.tmpl assets/style.css assets/report.js
var assets embed.FS

var reportTemplate = template.Must(template.ParseFS(assets, "assets/report.html.tmpl"))

// HTMLOptions controls how the HTML report is rendered
type HTMLOptions struct {
	Title         string
	SelfContained bool
	// Environment rows shown under the run metadata
	Environment map[string]string
	// GeneratedAt defaults to the current time
	GeneratedAt time.Time
}

type nameValue struct {
	Name  string
	Value string
}

type resultView struct {
	ID           string
	Description  string
	Outcome      string
	OutcomeLabel string
	Duration     string
	Method       string
	Path         string
	Status       string
	Error        string
	Failures     []string
	Properties   []nameValue
	Card         []nameValue
	Log          []string
	Expanded     bool
}

type reportView struct {
	Title          string
	GeneratedAt    string
	RunID          string
	BaseURL        string
	StartedAt      string
	Duration       string
	Environment    []nameValue
	Total          int
	Passed         int
	Failed         int
	Errors         int
	Skipped        int
	Results        []resultView
	SelfContained  bool
	StylesheetHref string
	CSS            template.CSS
	JS             template.JS
}

// WriteHTML renders the report to w. A report that is not self-contained
// links AssetsDir/style.css and the caller must write it; see WriteHTMLFile.
func WriteHTML(w io.Writer, summary models.TestSummary, opts HTMLOptions) error {
	css, err := assets.ReadFile("assets/style.css")
	if err != nil {
		return err
	}
	js, err := assets.ReadFile("assets/report.js")
	if err != nil {
		return err
	}

	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	title := opts.Title
	if title == "" {
		title = "jptest report"
	}

	view := reportView{
		Title:          title,
		GeneratedAt:    generated.Format("02-Jan-2006 at 15:04:05"),
		RunID:          summary.RunID,
		BaseURL:        summary.BaseURL,
		StartedAt:      summary.StartedAt.Format(time.RFC3339),
		Duration:       formatDuration(summary.Duration),
		Environment:    sortedPairs(opts.Environment),
		Total:          summary.TotalTests,
		Passed:         summary.Passed,
		Failed:         summary.Failed,
		Errors:         summary.Errors,
		Skipped:        summary.Skipped,
		Results:        lo.Map(summary.Results, func(r models.TestResult, _ int) resultView { return newResultView(r) }),
		SelfContained:  opts.SelfContained,
		StylesheetHref: AssetsDir + "/" + stylesheetName,
		JS:             template.JS(js),
	}
	if opts.SelfContained {
		view.CSS = template.CSS(css)
	}

	if err := reportTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

// WriteHTMLFile writes the report to path, creating parent directories.
// Unless the report is self-contained the stylesheet is written next to it.
func WriteHTMLFile(path string, summary models.TestSummary, opts HTMLOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if !opts.SelfContained {
		css, err := assets.ReadFile("assets/style.css")
		if err != nil {
			return err
		}
		assetsDir := filepath.Join(dir, AssetsDir)
		if err := os.MkdirAll(assetsDir, 0o755); err != nil {
			return fmt.Errorf("failed to create assets directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(assetsDir, stylesheetName), css, 0o644); err != nil {
			return fmt.Errorf("failed to write stylesheet: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteHTML(f, summary, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newResultView(r models.TestResult) resultView {
	view := resultView{
		ID:           r.ID,
		Description:  r.Description,
		Outcome:      string(r.Outcome),
		OutcomeLabel: outcomeLabel(r.Outcome),
		Duration:     formatDuration(r.ResponseTime),
		Method:       r.Method,
		Path:         r.Path,
		Status:       lo.Ternary(r.StatusCode == 0, "-", fmt.Sprint(r.StatusCode)),
		Error:        r.Error,
		Failures:     r.Failures,
		Log:          r.Log.Lines(),
		Expanded:     r.Outcome == models.OutcomeFailed || r.Outcome == models.OutcomeError,
	}
	// skipped results carry their reason in Error; it is not a failure
	if r.Outcome == models.OutcomeSkipped {
		view.Error = "Skipped: " + r.Error
	}
	for _, p := range r.Properties {
		view.Properties = append(view.Properties, nameValue{Name: p.Name, Value: FormatValue(p.Value)})
	}
	for _, p := range r.Card {
		view.Card = append(view.Card, nameValue{Name: p.Name, Value: FormatValue(p.Value)})
	}
	return view
}

func outcomeLabel(o models.Outcome) string {
	switch o {
	case models.OutcomePassed:
		return "Passed"
	case models.OutcomeFailed:
		return "Failed"
	case models.OutcomeError:
		return "Error"
	case models.OutcomeSkipped:
		return "Skipped"
	default:
		return string(o)
	}
}

func sortedPairs(m map[string]string) []nameValue {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return lo.Map(keys, func(k string, _ int) nameValue { return nameValue{Name: k, Value: m[k]} })
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0 ms"
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2f s", d.Seconds())
	}
}

// FormatValue renders a recorded value for display. Whole numbers decoded
// from JSON print without a fractional part.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprint(val)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

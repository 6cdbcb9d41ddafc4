package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/moamenhredeen/jptest/internal/models"
)

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Props     []junitProperty `xml:"properties>property,omitempty"`
	Cases     []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string          `xml:"name,attr"`
	Classname string          `xml:"classname,attr"`
	Time      string          `xml:"time,attr"`
	Props     []junitProperty `xml:"properties>property,omitempty"`
	Failure   *junitMessage   `xml:"failure,omitempty"`
	Error     *junitMessage   `xml:"error,omitempty"`
	Skipped   *junitMessage   `xml:"skipped,omitempty"`
	SystemOut string          `xml:"system-out,omitempty"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// exportTestJUnit writes one testsuite per case group, in first-seen order
func exportTestJUnit(w io.Writer, summary models.TestSummary) error {
	var order []string
	groups := map[string]*junitTestSuite{}
	elapsed := map[string]time.Duration{}

	for _, r := range summary.Results {
		suite, ok := groups[r.Group]
		if !ok {
			suite = &junitTestSuite{
				Name:      r.Group,
				Timestamp: summary.StartedAt.UTC().Format("2006-01-02T15:04:05"),
			}
			groups[r.Group] = suite
			order = append(order, r.Group)
		}

		tc := junitTestCase{
			Name:      strings.TrimPrefix(r.ID, r.Group+"/"),
			Classname: r.Group,
			Time:      seconds(r.ResponseTime.Seconds()),
			SystemOut: strings.Join(r.Log.Lines(), "\n"),
		}
		for _, p := range r.Properties {
			tc.Props = append(tc.Props, junitProperty{Name: p.Name, Value: FormatValue(p.Value)})
		}

		suite.Tests++
		elapsed[r.Group] += r.ResponseTime
		switch r.Outcome {
		case models.OutcomeFailed:
			suite.Failures++
			tc.Failure = &junitMessage{Message: firstOr(r.Failures, "failed"), Body: strings.Join(r.Failures, "\n")}
		case models.OutcomeError:
			suite.Errors++
			tc.Error = &junitMessage{Message: r.Error, Body: r.Error}
		case models.OutcomeSkipped:
			suite.Skipped++
			tc.Skipped = &junitMessage{Message: r.Error}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	doc := junitTestSuites{}
	for _, name := range order {
		suite := groups[name]
		suite.Time = seconds(elapsed[name].Seconds())
		suite.Props = []junitProperty{
			{Name: "run_id", Value: summary.RunID},
			{Name: "base_url", Value: summary.BaseURL},
		}
		doc.Suites = append(doc.Suites, *suite)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode junit report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func seconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

func firstOr(ss []string, fallback string) string {
	if len(ss) == 0 {
		return fallback
	}
	return ss[0]
}

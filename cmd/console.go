/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/moamenhredeen/jptest/internal/config"
	"github.com/moamenhredeen/jptest/internal/filter"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/tester"
)

var (
	isTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color helpers
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	white  = color.New(color.FgWhite, color.Bold).SprintFunc()
)

// consoleTestLogger prints one block per case as the run progresses
type consoleTestLogger struct {
	out                  io.Writer
	verbose              bool
	debugOutputOnFailure bool
	debugOutputOnSuccess bool
}

func (c *consoleTestLogger) onEvent(event tester.TestEvent) {
	prefix := fmt.Sprintf("[%d/%d]", event.Index+1, event.Total)
	switch event.Type {
	case tester.EventStarting:
		if c.verbose {
			fmt.Fprintf(c.out, "%s %s %s %s\n", prefix, event.Case.ID, event.Case.Method, event.Case.Path)
		}

	case tester.EventSkipped:
		if c.verbose || event.Result.Error != tester.SkippedByFilter {
			fmt.Fprintf(c.out, "%s %s %s (%s)\n", prefix, yellow("SKIPPED"), event.Case.ID, event.Result.Error)
		}

	case tester.EventCompleted:
		r := event.Result
		failed := !r.Passed()
		switch r.Outcome {
		case models.OutcomePassed:
			fmt.Fprintf(c.out, "%s %s %s %s\n", prefix, green("PASSED"), r.ID, statusSuffix(r))
		case models.OutcomeFailed:
			fmt.Fprintf(c.out, "%s %s %s %s\n", prefix, red("FAILED"), r.ID, statusSuffix(r))
			for _, f := range r.Failures {
				fmt.Fprintf(c.out, "    %s\n", f)
			}
		case models.OutcomeError:
			fmt.Fprintf(c.out, "%s %s %s\n", prefix, red("ERROR"), r.ID)
			for _, line := range strings.Split(r.Error, "\n") {
				fmt.Fprintf(c.out, "    %s\n", line)
			}
		}
		if c.verbose {
			for _, p := range r.Properties {
				fmt.Fprintf(c.out, "    %s: %v\n", p.Name, p.Value)
			}
		}
		if len(r.Log) > 0 &&
			((failed && c.debugOutputOnFailure) || (!failed && c.debugOutputOnSuccess)) {
			r.Log.Dump(c.out, "    DEBUG ")
		}
	}
}

func statusSuffix(r *models.TestResult) string {
	if r.StatusCode == 0 {
		return ""
	}
	return fmt.Sprintf("(%d, %s)", r.StatusCode, r.ResponseTime.Round(time.Millisecond))
}

func printSummary(w io.Writer, summary models.TestSummary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", white("=== Test Results ==="))
	fmt.Fprintf(w, "Total Tests: %d\n", summary.TotalTests)
	fmt.Fprintf(w, "Passed:      %s\n", green(summary.Passed))
	fmt.Fprintf(w, "Failed:      %s\n", colorIfNonZero(summary.Failed, red))
	fmt.Fprintf(w, "Errors:      %s\n", colorIfNonZero(summary.Errors, red))
	fmt.Fprintf(w, "Skipped:     %s\n", colorIfNonZero(summary.Skipped, yellow))
	fmt.Fprintf(w, "Duration:    %s\n", summary.Duration.Round(time.Millisecond))

	unsuccessful := summary.Unsuccessful()
	if len(unsuccessful) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", white("Failed cases:"))
	for _, r := range unsuccessful {
		fmt.Fprintf(w, "  %s %s\n", red(strings.ToUpper(string(r.Outcome))), r.ID)
	}
}

func colorIfNonZero(n int, c func(a ...interface{}) string) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return c(n)
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// rerunSettingArgs repeats the settings that change how cases are judged,
// so a rerun reproduces the failure.
func rerunSettingArgs(configFile string, contract bool, timeout time.Duration) []string {
	var args []string
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	if timeout != config.DefaultTimeout {
		args = append(args, "--timeout", timeout.String())
	}
	if contract {
		args = append(args, "--contract")
	}
	return args
}

// rerunCommand builds a command line that runs only the given cases again.
// extra carries flags that change which cases exist, such as --cases.
func rerunCommand(program, baseURL string, extra []string, results []models.TestResult) string {
	var b commandBuilder
	b.add(program, "test", "--base-url", baseURL)
	b.add(extra...)
	for _, r := range results {
		b.add("--run", filter.ExactID(r.ID))
	}
	b.add("--debug")
	return b.String()
}

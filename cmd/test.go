/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/moamenhredeen/jptest/internal/config"
	"github.com/moamenhredeen/jptest/internal/output"
	"github.com/moamenhredeen/jptest/internal/parser"
	"github.com/moamenhredeen/jptest/internal/tester"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	testOutputFormat string
	testOutputFile   string
	testMetricsFile  string
	testContract     bool
	verbose          bool
	debug            bool
	debugAll         bool
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the API test suite",
	Long: `Run every selected case once, in order, and report the outcome of each.

A case fails when the status code or a checked body field does not match.
A case errors when the API cannot be reached. Either makes jptest exit 1.

Examples:
  # Run everything and write a single-file HTML report
  jptest test --html=report.html --self-contained-html

  # Only the GET checks, with debug output for failures
  jptest test --run '^get_' --debug

  # Against a local fake API, also checking the OpenAPI contract
  jptest test --base-url http://localhost:3000 --contract`,
	Args: cobra.NoArgs,
	Run:  runTest,
}

func runTest(cmd *cobra.Command, args []string) {
	all, err := selectedCases()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cases: %v\n", err)
		os.Exit(1)
	}

	var format output.Format
	if testOutputFormat != "" {
		format, err = output.ParseFormat(testOutputFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// keep stdout clean when the export goes there
	out := os.Stdout
	if format != "" && testOutputFile == "" {
		out = os.Stderr
	}

	opts := tester.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	}
	if testContract {
		p, err := parser.Default()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing OpenAPI description: %v\n", err)
			os.Exit(1)
		}
		opts.Contract = p
	}

	filters.Describe(out)
	fmt.Fprintf(out, "Running %d cases against %s\n\n", len(all), cfg.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := &consoleTestLogger{
		out:                  out,
		verbose:              verbose,
		debugOutputOnFailure: debug || debugAll,
		debugOutputOnSuccess: debugAll,
	}

	testRunner := tester.NewTester(opts)
	summary := testRunner.TestCases(ctx, all, filters.Match, logger.onEvent)

	if cfg.HTML != "" {
		err := output.WriteHTMLFile(cfg.HTML, summary, output.HTMLOptions{
			Title:         filepath.Base(cfg.HTML),
			SelfContained: cfg.SelfContainedHTML,
			Environment:   reportEnvironment(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing HTML report: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(out, "\nHTML report written to: %s\n", cfg.HTML)
	} else if cfg.SelfContainedHTML {
		fmt.Fprintln(os.Stderr, "Warning: --self-contained-html has no effect without --html")
	}

	if format != "" {
		if err := output.ExportTestSummary(summary, format, testOutputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting results: %v\n", err)
			os.Exit(1)
		}
		if testOutputFile != "" {
			fmt.Fprintf(out, "Results exported to: %s\n", testOutputFile)
		}
	}

	if testMetricsFile != "" {
		if err := output.WriteMetricsTextfile(testMetricsFile, summary); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	printSummary(out, summary)

	if unsuccessful := summary.Unsuccessful(); len(unsuccessful) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To run only the failed cases again:")
		fmt.Fprintf(out, "  %s\n", rerunCommand(filepath.Base(os.Args[0]), cfg.BaseURL,
			append(rerunSettingArgs(cfgFile, testContract, cfg.Timeout), caseSourceArgs()...), unsuccessful))
	}

	// Exit with error code if any tests failed
	if !summary.OK() {
		os.Exit(1)
	}
}

func reportEnvironment() map[string]string {
	env := map[string]string{
		"Go":       runtime.Version(),
		"Platform": runtime.GOOS + "/" + runtime.GOARCH,
		"Timeout":  cfg.Timeout.String(),
		"Contract": fmt.Sprint(testContract),
	}
	if filters.IsDefined() {
		env["Run"] = filters.MustMatch.String()
		env["Skip"] = filters.MustNotMatch.String()
	}
	if cfg.UserAgent != "" {
		env["User-Agent"] = cfg.UserAgent
	}
	return env
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().String("html", "", "Write an HTML report to this path")
	testCmd.Flags().Bool("self-contained-html", false, "Inline CSS and JS into the HTML report")
	testCmd.Flags().StringVarP(&testOutputFormat, "output", "o", "", "Export format: json, csv, junit")
	testCmd.Flags().StringVar(&testOutputFile, "output-file", "", "Write the export to file (default: stdout)")
	testCmd.Flags().StringVar(&testMetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	testCmd.Flags().BoolVar(&testContract, "contract", false, "Also validate responses against the OpenAPI description")
	testCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	testCmd.Flags().BoolVar(&debug, "debug", false, "Print captured debug output for failed cases")
	testCmd.Flags().BoolVar(&debugAll, "debug-all", false, "Print captured debug output for all cases")

	cobra.CheckErr(viper.BindPFlag(config.KeyHTML, testCmd.Flags().Lookup("html")))
	cobra.CheckErr(viper.BindPFlag(config.KeySelfContainedHTML, testCmd.Flags().Lookup("self-contained-html")))
}

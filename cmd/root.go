/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/moamenhredeen/jptest/internal/cases"
	"github.com/moamenhredeen/jptest/internal/config"
	"github.com/moamenhredeen/jptest/internal/filter"
	"github.com/moamenhredeen/jptest/internal/generator"
	"github.com/moamenhredeen/jptest/internal/logging"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
	cfg     config.Config

	// Case selection, shared by test, list and benchmark
	filters       filter.RegexFilters
	casesFile     string
	generatedN    int
	generatedSeed int64
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jptest",
	Short: "API test suite for JSONPlaceholder",
	Long: `jptest runs a fixed suite of API checks against JSONPlaceholder
(https://jsonplaceholder.typicode.com) and reports each case as passed,
failed, errored or skipped. Results can be rendered as a self-contained HTML
report or exported as JSON, CSV or JUnit XML.

Settings are read from flags, JPTEST_* environment variables, a .env file
and an optional jptest.toml in the working directory, in that order.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	loaded, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.Init(level, os.Stderr)
	if used := viper.ConfigFileUsed(); used != "" {
		logging.GetLogger().Debug("using config file", "path", used)
	}
	return nil
}

// selectedCases returns the built-in catalog plus any cases loaded from
// --cases or generated with --generated
func selectedCases() ([]models.Case, error) {
	all := cases.Catalog()

	if casesFile != "" {
		extra, err := cases.LoadFile(casesFile)
		if err != nil {
			return nil, err
		}
		all = append(all, extra...)
	}

	if generatedN > 0 {
		p, err := parser.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load OpenAPI description: %w", err)
		}
		if generatedSeed == 0 {
			generatedSeed = time.Now().UnixNano()
		}
		gen := generator.NewGeneratorWithSeed(generatedSeed)
		extra, err := cases.Generated(generatedN, gen, p)
		if err != nil {
			return nil, err
		}
		all = append(all, extra...)
	}
	if err := cases.CheckUnique(all); err != nil {
		return nil, err
	}
	return all, nil
}

// caseSourceArgs repeats the flags that add cases, for rerun commands
func caseSourceArgs() []string {
	var args []string
	if casesFile != "" {
		args = append(args, "--cases", casesFile)
	}
	if generatedN > 0 {
		args = append(args, "--generated", fmt.Sprint(generatedN), "--seed", fmt.Sprint(generatedSeed))
	}
	return args
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ./jptest.toml if present)")
	flags.StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading config")
	flags.String("base-url", config.DefaultBaseURL, "Root URL of the API under test")
	flags.Duration("timeout", config.DefaultTimeout, "Per-request timeout")
	flags.String("user-agent", "", "User-Agent header sent with every request")
	flags.String("log-level", "warn", "Diagnostic log level: debug, info, warn, error")

	flags.Var(&filters.MustMatch, "run", "Regex pattern(s) selecting cases to run (repeatable)")
	flags.Var(&filters.MustNotMatch, "skip", "Regex pattern(s) selecting cases not to run (repeatable)")
	flags.StringVar(&casesFile, "cases", "", "YAML file with additional cases")
	flags.IntVar(&generatedN, "generated", 0, "Number of extra POST /posts cases generated from the OpenAPI schema")
	flags.Int64Var(&generatedSeed, "seed", 0, "Seed for generated cases (default: random)")

	for key, name := range map[string]string{
		config.KeyBaseURL:   "base-url",
		config.KeyTimeout:   "timeout",
		config.KeyUserAgent: "user-agent",
		config.KeyLogLevel:  "log-level",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(name)))
	}
}

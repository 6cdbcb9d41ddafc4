/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/parser"
	"github.com/spf13/cobra"
)

var listOperations bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cases that would run",
	Long: `List the case IDs selected by --run and --skip, in execution order.
With --operations, list the operations of the bundled OpenAPI description
instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listOperations {
			p, err := parser.Default()
			if err != nil {
				return err
			}
			return writeOperations(cmd.OutOrStdout(), p.GetOperations(cfg.BaseURL))
		}

		all, err := selectedCases()
		if err != nil {
			return err
		}
		return writeCases(cmd.OutOrStdout(), all, filters.Match)
	},
}

func writeCases(w io.Writer, all []models.Case, match func(string) bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range all {
		if !match(c.ID) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Method, c.Path)
	}
	return tw.Flush()
}

func writeOperations(w io.Writer, ops []models.Operation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Method, op.Path, op.OperationID, strings.Join(op.Tags, ","))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listOperations, "operations", false, "List OpenAPI operations instead of cases")
}

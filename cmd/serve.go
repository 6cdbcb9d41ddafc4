/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/moamenhredeen/jptest/internal/fakeapi"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local fake of the JSONPlaceholder API",
	Long: `Serve a small in-memory fake of the JSONPlaceholder endpoints the suite
uses. Writes are echoed but never stored, like the real service.

Examples:
  jptest serve --addr :3000
  jptest test --base-url http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		handler, err := fakeapi.New()
		if err != nil {
			return err
		}

		l, err := net.Listen("tcp", serveAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", serveAddr, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving fake JSONPlaceholder on http://%s\n", l.Addr())
		return fakeapi.Serve(ctx, l, handler)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:3000", "Address to listen on")
}

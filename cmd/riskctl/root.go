package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server  string
	timeout time.Duration
	retries int
	output  string
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.server, o.timeout, o.retries)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "riskctl",
		Short: "Operate the burnout-risk prediction API",
		Long: `riskctl runs predictions and inspects history and models on a
burnout-monitor server.

Examples:
  riskctl predict --subject u-123 --start 2026-10-01 --end 2026-10-14
  riskctl predict --subject u-123 --days 30 --sleep 4 --output json
  riskctl history --subject u-123 --limit 5
  riskctl models
  riskctl models latest`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "table" && opts.output != "json" {
				return fmt.Errorf("--output must be table or json")
			}
			return nil
		},
	}

	server := os.Getenv("BURNOUT_API_URL")
	if server == "" {
		server = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "API base URL (env BURNOUT_API_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout")
	root.PersistentFlags().IntVar(&opts.retries, "retries", 2, "Retries on 429/5xx and network errors")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table, json")

	root.AddCommand(newPredictCmd(opts), newHistoryCmd(opts), newModelsCmd(opts))
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var subject string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a subject's past predictions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := root.client().history(cmd.Context(), subject, limit)
			if err != nil {
				return err
			}
			if root.output == "json" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			if resp.Count == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No predictions for %s\n", subject)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tRISK\tSCORE\tMODEL\tID")
			for _, p := range resp.Predictions {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n",
					p.Timestamp.Format("2006-01-02 15:04"), p.RiskLevel, p.RiskScore, p.ModelVersion, p.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject id (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default: server default)")
	cmd.MarkFlagRequired("subject")
	return cmd
}

package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ignite/burnout-monitor/internal/classifier"
)

func newModelsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models [version]",
		Short: "List classifier models, or show one version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := root.client()
			var models []classifier.ModelInfo
			if len(args) == 1 {
				info, err := c.model(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if root.output == "json" {
					return writeJSON(cmd.OutOrStdout(), info)
				}
				models = []classifier.ModelInfo{*info}
			} else {
				list, err := c.models(cmd.Context())
				if err != nil {
					return err
				}
				if root.output == "json" {
					return writeJSON(cmd.OutOrStdout(), list)
				}
				models = list
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tSTATUS\tCREATED\tMETRICS")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Version, m.Status, m.CreatedAt, formatMetrics(m.PerformanceMetrics))
			}
			return tw.Flush()
		},
	}
}

func formatMetrics(m map[string]float64) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%.2f", k, m[k])
	}
	return out
}

package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignite/burnout-monitor/internal/api"
	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

type predictOptions struct {
	subject string
	start   string
	end     string
	days    int
	model   string
	key     string

	sleep, exercise, nutrition, social, satisfaction float64
}

func newPredictCmd(root *rootOptions) *cobra.Command {
	o := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a burnout-risk prediction for one subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := o.request(cmd, time.Now().UTC())
			if err != nil {
				return err
			}
			key := o.key
			if key == "" {
				key = uuid.NewString()
			}
			result, err := root.client().predict(cmd.Context(), body, key)
			if err != nil {
				return err
			}
			if root.output == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.subject, "subject", "", "Subject id (required)")
	f.StringVar(&o.start, "start", "", "Start date, YYYY-MM-DD or RFC3339 (default: --days before --end)")
	f.StringVar(&o.end, "end", "", "End date, YYYY-MM-DD or RFC3339 (default: today)")
	f.IntVar(&o.days, "days", 14, "Window length when --start is omitted")
	f.StringVar(&o.model, "model", "", "Model version (default: server default)")
	f.StringVar(&o.key, "idempotency-key", "", "Idempotency key (default: random)")
	f.Float64Var(&o.sleep, "sleep", 0, "Self-reported sleep quality 1-10")
	f.Float64Var(&o.exercise, "exercise", 0, "Self-reported exercise frequency 1-10")
	f.Float64Var(&o.nutrition, "nutrition", 0, "Self-reported nutrition quality 1-10")
	f.Float64Var(&o.social, "social", 0, "Self-reported social support 1-10")
	f.Float64Var(&o.satisfaction, "satisfaction", 0, "Self-reported job satisfaction 1-10")
	cmd.MarkFlagRequired("subject")
	return cmd
}

// request builds the API body. Self-reported values are sent only when
// their flag was set.
func (o *predictOptions) request(cmd *cobra.Command, now time.Time) (api.CreatePredictionRequest, error) {
	end := o.end
	if end == "" {
		end = now.Format("2006-01-02")
	}
	start := o.start
	if start == "" {
		if o.days < 1 {
			return api.CreatePredictionRequest{}, fmt.Errorf("--days must be at least 1")
		}
		endDay, err := time.Parse("2006-01-02", end[:min(len(end), 10)])
		if err != nil {
			return api.CreatePredictionRequest{}, fmt.Errorf("--end: %v", err)
		}
		start = endDay.AddDate(0, 0, -o.days).Format("2006-01-02")
	}

	var sr prediction.SelfReported
	set := func(name string, v float64) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	sr.SleepQuality = set("sleep", o.sleep)
	sr.ExerciseFrequency = set("exercise", o.exercise)
	sr.NutritionQuality = set("nutrition", o.nutrition)
	sr.SocialSupport = set("social", o.social)
	sr.JobSatisfaction = set("satisfaction", o.satisfaction)

	return api.CreatePredictionRequest{
		SubjectID:    o.subject,
		StartDate:    start,
		EndDate:      end,
		SelfReported: sr,
		ModelVersion: o.model,
	}, nil
}

func printResult(w io.Writer, r *domain.PredictionResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Prediction\t%s\n", r.ID)
	fmt.Fprintf(tw, "Subject\t%s\n", r.SubjectID)
	fmt.Fprintf(tw, "Risk\t%s (score %.2f, confidence %.2f)\n", r.RiskLevel, r.RiskScore, r.Confidence)
	fmt.Fprintf(tw, "Model\t%s\n", r.ModelVersion)
	fmt.Fprintf(tw, "Data points\t%d\n", r.DataPoints.Total)

	names := make([]string, 0, len(r.Factors))
	for k := range r.Factors {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(tw, "  %s\t%.1f\n", k, r.Factors[k])
	}
	tw.Flush()

	fmt.Fprintln(w, "\nRecommendations:")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "  [%s] %s: %s\n", rec.Priority, rec.Title, rec.Description)
	}
}

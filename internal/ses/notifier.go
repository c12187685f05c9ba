// Package ses sends burnout-risk alert e-mails through Amazon SES v2.
package ses

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/pkg/logger"
)

// SendEmailAPI is the subset of the SES v2 client used by AlertNotifier.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

var alertLog = logger.Component("ses-alerts")

// AlertNotifier e-mails a summary of every result at or above MinLevel.
// It implements prediction.Observer.
type AlertNotifier struct {
	api      SendEmailAPI
	from     string
	to       []string
	minLevel domain.RiskLevel
}

// NewAlertNotifier creates a notifier. An invalid minLevel falls back to high.
func NewAlertNotifier(api SendEmailAPI, from string, to []string, minLevel domain.RiskLevel) *AlertNotifier {
	if !minLevel.Valid() {
		minLevel = domain.RiskHigh
	}
	return &AlertNotifier{api: api, from: from, to: to, minLevel: minLevel}
}

// NewAlertNotifierFromConfig creates a notifier with a client built from cfg.
func NewAlertNotifierFromConfig(cfg aws.Config, from string, to []string, minLevel domain.RiskLevel) *AlertNotifier {
	return NewAlertNotifier(sesv2.NewFromConfig(cfg), from, to, minLevel)
}

func (n *AlertNotifier) Name() string { return "ses-alert" }

// PredictionCreated sends the alert when p reaches the configured level.
func (n *AlertNotifier) PredictionCreated(ctx context.Context, p *domain.PredictionResult) error {
	if !p.RiskLevel.AtLeast(n.minLevel) || len(n.to) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[burnout-monitor] %s risk for %s", strings.ToUpper(string(p.RiskLevel)), p.SubjectID)
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination:      &types.Destination{ToAddresses: n.to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(alertBody(p)), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := n.api.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("sending alert email: %w", err)
	}
	alertLog.Info("alert sent", "prediction_id", p.ID, "risk_level", p.RiskLevel, "message_id", aws.ToString(out.MessageId))
	return nil
}

func alertBody(p *domain.PredictionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", p.SubjectID)
	fmt.Fprintf(&b, "Risk level: %s (score %.2f, confidence %.2f)\n", p.RiskLevel, p.RiskScore, p.Confidence)
	fmt.Fprintf(&b, "Period: %s to %s\n", p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "Model: %s\nPrediction: %s\n\n", p.ModelVersion, p.ID)

	names := make([]string, 0, len(p.Factors))
	for k := range p.Factors {
		names = append(names, k)
	}
	sort.Strings(names)
	b.WriteString("Factors:\n")
	for _, k := range names {
		fmt.Fprintf(&b, "  %s: %.1f\n", k, p.Factors[k])
	}

	b.WriteString("\nRecommendations:\n")
	for _, r := range p.Recommendations {
		fmt.Fprintf(&b, "  [%s] %s: %s\n", r.Priority, r.Title, r.Description)
	}
	return b.String()
}

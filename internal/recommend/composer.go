// Package recommend turns classifier output into structured recommendation
// records. Composition is pure: the same inputs always yield the same list.
package recommend

import (
	"fmt"
	"strconv"

	"github.com/osteele/liquid"

	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/pkg/logger"
)

// DefaultWorkloadThreshold is the workload rating above which a dedicated
// workload recommendation is appended.
const DefaultWorkloadThreshold = 7.0

// DefaultWorkloadResource is linked from the workload recommendation.
const DefaultWorkloadResource = "https://www.who.int/news/item/28-05-2019-burn-out-an-occupational-phenomenon-international-classification-of-diseases"

var genericActions = []string{
	"Review this suggestion with your manager or a trusted colleague",
	"Pick one concrete step to try this week",
	"Check in on how it went at your next self-assessment",
}

const workloadTemplate = `Your average workload rating is {{ workload }} out of 10, above the sustainable level of {{ threshold }}.{% if level == "high" or level == "critical" %} Combined with a {{ level }} burnout risk, this should be addressed this week.{% else %} Addressing it now keeps the risk from climbing.{% endif %}`

var composeLog = logger.Component("recommend")

// Options tunes a Composer.
type Options struct {
	WorkloadThreshold float64
	WorkloadResource  string
}

// Composer builds recommendation lists. It is safe for concurrent use.
type Composer struct {
	threshold   float64
	resource    string
	workloadTpl *liquid.Template
}

// NewComposer compiles the recommendation templates.
func NewComposer(opts Options) (*Composer, error) {
	if opts.WorkloadThreshold <= 0 {
		opts.WorkloadThreshold = DefaultWorkloadThreshold
	}
	if opts.WorkloadResource == "" {
		opts.WorkloadResource = DefaultWorkloadResource
	}
	tpl, err := liquid.NewEngine().ParseString(workloadTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse workload template: %w", err)
	}
	return &Composer{
		threshold:   opts.WorkloadThreshold,
		resource:    opts.WorkloadResource,
		workloadTpl: tpl,
	}, nil
}

// Compose maps the classifier's raw strings to records, appends the
// workload rule record when it applies and guarantees a non-empty result.
func (c *Composer) Compose(raw []string, fv domain.FeatureVector, level domain.RiskLevel) []domain.Recommendation {
	priority := domain.PriorityMedium
	if level.AtLeast(domain.RiskHigh) {
		priority = domain.PriorityHigh
	}

	out := make([]domain.Recommendation, 0, len(raw)+1)
	for i, text := range raw {
		out = append(out, domain.Recommendation{
			Priority:    priority,
			Category:    "general",
			Title:       fmt.Sprintf("Recommendation %d", i+1),
			Description: text,
			ActionItems: append([]string(nil), genericActions...),
		})
	}

	if workload := fv.Get(domain.FeatureWorkloadLevel); workload > c.threshold {
		rec, err := c.workloadRecommendation(workload, level)
		if err != nil {
			composeLog.Error("render workload recommendation", "error", err)
			return []domain.Recommendation{Fallback()}
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		return []domain.Recommendation{Fallback()}
	}
	return out
}

func (c *Composer) workloadRecommendation(workload float64, level domain.RiskLevel) (domain.Recommendation, error) {
	desc, err := c.workloadTpl.RenderString(map[string]interface{}{
		"workload":  strconv.FormatFloat(workload, 'f', 1, 64),
		"threshold": strconv.FormatFloat(c.threshold, 'f', 1, 64),
		"level":     string(level),
	})
	if err != nil {
		return domain.Recommendation{}, err
	}
	return domain.Recommendation{
		Priority:    domain.PriorityHigh,
		Category:    "workload",
		Title:       "Reduce your workload",
		Description: desc,
		ActionItems: []string{
			"List your open commitments and mark the ones that can wait",
			"Delegate or decline at least one task this week",
			"Block two focus sessions in your calendar and protect them",
			"Raise workload concerns with your manager",
		},
		Resources: []string{c.resource},
	}, nil
}

// Fallback is the single generic record used when nothing else applies.
func Fallback() domain.Recommendation {
	return domain.Recommendation{
		Priority:    domain.PriorityLow,
		Category:    "lifestyle",
		Title:       "Maintain current practices",
		Description: "Your current indicators look balanced. Keep the habits that are working for you.",
		ActionItems: []string{
			"Keep a regular sleep schedule",
			"Continue taking breaks during the workday",
			"Stay in touch with friends and colleagues",
		},
	}
}

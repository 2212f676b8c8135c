// Package scoring implements the prescriptive recommendation engine: it
// ranks aggregated concerts under a budget constraint.
package scoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/types"
)

// Default scoring configuration constants.
const (
	defaultWeightCost       = 0.40
	defaultWeightRemaining  = 0.30
	defaultWeightExperience = 0.30
	defaultTopN             = 10
)

// Affordability tiers, relative to the caller's budget.
const (
	TierVeryAffordable = "very affordable" // at most 50% of budget
	TierAffordable     = "affordable"      // at most 80% of budget
	TierAtLimit        = "at limit"        // within budget
	TierOverBudget     = "over budget"
)

// Option applies a configuration option to the Recommender.
type Option func(*Recommender)

// WithWeights sets the composite score weights.
func WithWeights(cost, remaining, experience float64) Option {
	return func(r *Recommender) {
		if cost >= 0 && remaining >= 0 && experience >= 0 {
			r.weightCost = cost
			r.weightRemaining = remaining
			r.weightExperience = experience
		}
	}
}

// WithTopN sets the default number of recommendations returned.
func WithTopN(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.topN = n
		}
	}
}

// Recommender computes ranked recommendations from aggregated metrics.
// It owns no state beyond its weights; Recommend is pure and idempotent.
type Recommender struct {
	weightCost       float64
	weightRemaining  float64
	weightExperience float64
	topN             int
}

// NewRecommender creates a Recommender with configuration options.
func NewRecommender(opts ...Option) *Recommender {
	r := &Recommender{
		weightCost:       defaultWeightCost,
		weightRemaining:  defaultWeightRemaining,
		weightExperience: defaultWeightExperience,
		topN:             defaultTopN,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend filters entries to those within budget, scores them, and
// returns the ranked top-N. An empty result is a valid outcome, not an
// error. topN <= 0 falls back to the configured default.
func (r *Recommender) Recommend(ctx context.Context, entries []model.AggregatedMetrics, budget float64, topN int) ([]types.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if budget < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBudget, budget)
	}
	if topN <= 0 {
		topN = r.topN
	}

	type candidate struct {
		entry     model.AggregatedMetrics
		remaining float64
		score     float64
	}

	var candidates []candidate
	for _, e := range entries {
		if e.TotalCost > budget {
			continue
		}
		remaining := 0.0
		if budget > 0 {
			remaining = (budget - e.TotalCost) / budget
		}
		score := r.weightCost*e.CostEfficiency +
			r.weightRemaining*remaining +
			r.weightExperience*e.ExperienceValue
		candidates = append(candidates, candidate{entry: e, remaining: remaining, score: score})
	}

	// Score desc, then cheaper first; stable sort keeps original batch
	// order for full ties, so identical inputs rank identically.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.TotalCost < candidates[j].entry.TotalCost
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	recs := make([]types.Recommendation, len(candidates))
	for i, c := range candidates {
		recs[i] = types.Recommendation{
			Rank:            i + 1,
			Name:            c.entry.Record.Name,
			Location:        c.entry.Record.Location,
			Date:            c.entry.Record.Date.Format("2006-01-02"),
			TotalCost:       c.entry.TotalCost,
			Affordability:   Affordability(c.entry.TotalCost, budget),
			Score:           c.score,
			CostEfficiency:  c.entry.CostEfficiency,
			BudgetRemaining: c.remaining,
			ExperienceValue: c.entry.ExperienceValue,
		}
	}
	return recs, nil
}

// Affordability categorizes a total cost against a budget.
func Affordability(totalCost, budget float64) string {
	switch {
	case totalCost <= budget*0.5:
		return TierVeryAffordable
	case totalCost <= budget*0.8:
		return TierAffordable
	case totalCost <= budget:
		return TierAtLimit
	default:
		return TierOverBudget
	}
}

// internal/workers/advisory/analyze-deals/engine.go
package analyzedeals

import (
	"context"
	"fmt"

	"shipinvest-workers/internal/common/logger"
	"shipinvest-workers/internal/common/metrics"
)

// Strategy produces a recommendation for a validated set of deals.
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, deals []Deal, profile *InvestorProfile) (*Recommendation, error)
}

// Engine runs strategies in priority order and returns the first success.
// With the rule-based strategy last, a validated input always yields a
// recommendation: advisor failures are absorbed, never surfaced.
type Engine struct {
	strategies []Strategy
	logger     logger.Logger
}

func NewEngine(log logger.Logger, strategies ...Strategy) *Engine {
	return &Engine{
		strategies: strategies,
		logger:     log.WithFields(map[string]interface{}{"component": "recommendation-engine"}),
	}
}

func (e *Engine) Recommend(ctx context.Context, input *Input) (*Recommendation, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var lastErr error
	for _, strategy := range e.strategies {
		rec, err := strategy.Recommend(ctx, input.Projects, input.InvestorProfile)
		if err != nil {
			e.logger.Warn("strategy failed, trying next", map[string]interface{}{
				"strategy": strategy.Name(),
				"error":    err.Error(),
			})
			lastErr = err
			continue
		}

		metrics.RecommendationsGenerated.WithLabelValues(strategy.Name()).Inc()
		e.logger.Info("recommendation produced", map[string]interface{}{
			"strategy":        strategy.Name(),
			"recommendedDeal": rec.RecommendedDeal,
			"confidence":      rec.Confidence,
		})
		return rec, nil
	}

	return nil, fmt.Errorf("no strategy produced a recommendation: %w", lastErr)
}

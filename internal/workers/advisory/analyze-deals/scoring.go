// internal/workers/advisory/analyze-deals/scoring.go
package analyzedeals

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// defaultInvestmentAmount substitutes for a missing investment amount so
// suitability scoring still has something to work with.
const defaultInvestmentAmount = 200000

// Weights holds the scoring constants of the rule-based strategy. The
// defaults are the calibrated business values; tests may override them.
type Weights struct {
	ConservativeRating    float64
	ConservativeIRRBonus  float64 // applied when 15 < IRR < 20
	ConservativeMOICBonus float64 // applied when 1.8 < MOIC < 2.2

	ModerateIRR    float64
	ModerateRating float64
	ModerateMOIC   float64

	AggressiveIRR    float64
	AggressiveMOIC   float64
	AggressiveRating float64

	ReturnsIRR  float64
	ReturnsMOIC float64

	SafetyRating   float64
	SafetyIRRBonus float64 // applied when IRR > 15

	BalanceIRR    float64
	BalanceRating float64
	BalanceMOIC   float64

	SuitabilityBonus   float64 // amount within [min, 3*min]
	SuitabilityPenalty float64 // amount below min

	LongHorizonMOIC float64
}

func DefaultWeights() Weights {
	return Weights{
		ConservativeRating:    10,
		ConservativeIRRBonus:  20,
		ConservativeMOICBonus: 15,

		ModerateIRR:    2,
		ModerateRating: 8,
		ModerateMOIC:   5,

		AggressiveIRR:    3,
		AggressiveMOIC:   8,
		AggressiveRating: 5,

		ReturnsIRR:  4,
		ReturnsMOIC: 10,

		SafetyRating:   15,
		SafetyIRRBonus: 10,

		BalanceIRR:    2,
		BalanceRating: 8,
		BalanceMOIC:   5,

		SuitabilityBonus:   10,
		SuitabilityPenalty: 20,

		LongHorizonMOIC: 8,
	}
}

// RuleBasedStrategy produces a recommendation from the weighted scoring
// model. It is pure: no I/O, deterministic for identical inputs.
type RuleBasedStrategy struct {
	weights Weights
}

func NewRuleBasedStrategy(w Weights) *RuleBasedStrategy {
	return &RuleBasedStrategy{weights: w}
}

func (s *RuleBasedStrategy) Name() string {
	return "scoring"
}

func (s *RuleBasedStrategy) Recommend(_ context.Context, deals []Deal, profile *InvestorProfile) (*Recommendation, error) {
	best := &deals[0]
	bestScore := s.scoreDeal(best, profile)
	for i := 1; i < len(deals); i++ {
		// Strict greater: the earliest deal keeps ties.
		if score := s.scoreDeal(&deals[i], profile); score > bestScore {
			best = &deals[i]
			bestScore = score
		}
	}

	return s.buildRecommendation(best, profile), nil
}

func (s *RuleBasedStrategy) scoreDeal(d *Deal, profile *InvestorProfile) float64 {
	w := s.weights
	irr := effectiveIRR(d)
	moic := effectiveMOIC(d)
	rating := techRating(d)

	amount := profile.InvestmentAmount
	if amount == 0 {
		amount = defaultInvestmentAmount
	}

	var score float64

	switch profile.RiskTolerance {
	case RiskConservative:
		score += rating * w.ConservativeRating
		if irr > 15 && irr < 20 {
			score += w.ConservativeIRRBonus
		}
		if moic > 1.8 && moic < 2.2 {
			score += w.ConservativeMOICBonus
		}
	case RiskModerate:
		score += irr * w.ModerateIRR
		score += rating * w.ModerateRating
		score += moic * w.ModerateMOIC
	default: // aggressive
		score += irr * w.AggressiveIRR
		score += moic * w.AggressiveMOIC
		score += rating * w.AggressiveRating
	}

	switch profile.Priority {
	case PriorityReturns:
		score += irr * w.ReturnsIRR
		score += moic * w.ReturnsMOIC
	case PrioritySafety:
		score += rating * w.SafetyRating
		if irr > 15 {
			score += w.SafetyIRRBonus
		}
	default: // balance
		score += irr * w.BalanceIRR
		score += rating * w.BalanceRating
		score += moic * w.BalanceMOIC
	}

	if amount >= d.MinInvestment && amount <= d.MinInvestment*3 {
		score += w.SuitabilityBonus
	} else if amount < d.MinInvestment {
		score -= w.SuitabilityPenalty
	}

	if profile.InvestmentHorizon == HorizonLong {
		score += moic * w.LongHorizonMOIC
	}

	return score
}

func (s *RuleBasedStrategy) buildRecommendation(best *Deal, profile *InvestorProfile) *Recommendation {
	irr := effectiveIRR(best)
	moic := effectiveMOIC(best)
	rating := techRating(best)

	reasoning := fmt.Sprintf("Based on your %s risk tolerance and %s priority, ",
		profile.RiskTolerance, profile.Priority)
	switch profile.Priority {
	case PriorityReturns:
		reasoning += fmt.Sprintf("this deal offers the strongest return profile with %s%% base case IRR and %sx MOIC.",
			formatNumber(irr), formatNumber(moic))
	case PrioritySafety:
		reasoning += fmt.Sprintf("this deal provides a solid balance with a technical rating of %s and competitive returns.",
			best.TechnicalRating)
	default:
		reasoning += fmt.Sprintf("this deal offers the best overall balance of returns (%s%% IRR), risk management, and investment fit.",
			formatNumber(irr))
	}

	var strengths []string
	if irr >= 18 {
		strengths = append(strengths, fmt.Sprintf("Strong base case IRR of %s%%", formatNumber(irr)))
	}
	if moic >= 2.0 {
		strengths = append(strengths, fmt.Sprintf("Attractive MOIC of %sx", formatNumber(moic)))
	}
	if rating >= 8.0 {
		strengths = append(strengths, fmt.Sprintf("High technical rating of %s", best.TechnicalRating))
	}
	if best.Built != "" && buildYear(best) >= 2014 {
		strengths = append(strengths, fmt.Sprintf("Modern vessel built in %s", best.Built))
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Competitive financial metrics and vessel quality")
	}

	weaknesses := []string{
		"Standard shipping market volatility and cyclical nature",
		"Currency exchange rate and fuel price risks",
	}
	if rating < 7.5 {
		weaknesses = append(weaknesses, "Lower technical rating compared to newer vessels")
	}

	riskAssessment := "Medium risk profile typical for shipping investments."
	switch profile.RiskTolerance {
	case RiskConservative:
		riskAssessment += " Consider diversifying across multiple investments to mitigate risk."
	case RiskAggressive:
		riskAssessment += " Higher return potential comes with increased market exposure."
	}

	confidence := 75
	switch {
	case profile.Priority == PriorityReturns && irr >= 18:
		confidence = 85
	case profile.Priority == PrioritySafety && rating >= 8.0:
		confidence = 85
	case profile.Priority == PriorityBalance && irr >= 17 && rating >= 7.8:
		confidence = 80
	}

	return &Recommendation{
		RecommendedDeal: best.ID,
		Reasoning:       reasoning,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		RiskAssessment:  riskAssessment,
		Confidence:      confidence,
	}
}

// formatNumber renders a float without trailing zeros (17.1 -> "17.1",
// 18 -> "18"), matching how the figures read in listing copy.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatCommas renders a whole-dollar or tonnage figure with thousands
// separators (164500 -> "164,500").
func formatCommas(f float64) string {
	s := strconv.FormatFloat(f, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

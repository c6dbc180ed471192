// internal/workers/advisory/analyze-deals/advisor.go
package analyzedeals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync/atomic"

	"shipinvest-workers/internal/common/config"
	"shipinvest-workers/internal/common/logger"
	"shipinvest-workers/internal/common/metrics"
	"shipinvest-workers/internal/common/openai"
)

const systemPrompt = `You are an expert maritime investment advisor with deep knowledge of shipping investments, risk assessment, and portfolio management. You provide clear, data-driven recommendations based on investor profiles and deal characteristics.`

var errAdvisorDisabled = errors.New("advisor disabled for this session")

// ChatClient is the advisor transport. *openai.Client satisfies it; tests
// substitute their own.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req *openai.ChatRequest) (string, error)
}

// AdvisorStrategy asks an external model for a recommendation. A terminal
// account failure (quota, billing, access) disables the strategy for the
// rest of the process lifetime so later jobs skip straight to scoring.
type AdvisorStrategy struct {
	client      ChatClient
	model       string
	temperature float64
	maxTokens   int
	disabled    atomic.Bool
	logger      logger.Logger
}

func NewAdvisorStrategy(client ChatClient, cfg config.AdvisorConfig, log logger.Logger) *AdvisorStrategy {
	return &AdvisorStrategy{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      log.WithFields(map[string]interface{}{"strategy": "advisor"}),
	}
}

func (s *AdvisorStrategy) Name() string {
	return "advisor"
}

// Disabled reports whether a terminal account failure has been observed.
func (s *AdvisorStrategy) Disabled() bool {
	return s.disabled.Load()
}

func (s *AdvisorStrategy) Recommend(ctx context.Context, deals []Deal, profile *InvestorProfile) (*Recommendation, error) {
	if s.disabled.Load() {
		return nil, errAdvisorDisabled
	}

	req := &openai.ChatRequest{
		Model: s.model,
		Messages: []openai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildAnalysisPrompt(deals, profile)},
		},
		Temperature:    s.temperature,
		MaxTokens:      s.maxTokens,
		ResponseFormat: &openai.ResponseFormat{Type: "json_object"},
	}

	content, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if isAccountError(err) {
			s.disabled.Store(true)
			metrics.AdvisorFailures.WithLabelValues("account").Inc()
			s.logger.Warn("advisor account unusable, disabling for this session", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, err
		}
		metrics.AdvisorFailures.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("advisor request failed: %w", err)
	}

	return parseAdvisorResponse(content, deals), nil
}

// isAccountError detects terminal account conditions from the upstream
// error message.
func isAccountError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "billing") ||
		strings.Contains(msg, "access")
}

// jsonSpanPattern grabs the first '{' through the last '}', tolerating
// prose or markdown fences around the JSON object.
var jsonSpanPattern = regexp.MustCompile(`(?s)\{.*\}`)

type rawAdvisorResponse struct {
	RecommendedDeal json.RawMessage `json:"recommendedDeal"`
	Reasoning       json.RawMessage `json:"reasoning"`
	Strengths       json.RawMessage `json:"strengths"`
	Weaknesses      json.RawMessage `json:"weaknesses"`
	RiskAssessment  json.RawMessage `json:"riskAssessment"`
	Confidence      json.RawMessage `json:"confidence"`
}

// parseAdvisorResponse never fails: a malformed field is repaired and an
// unparseable response degrades to the highest-IRR deal.
func parseAdvisorResponse(content string, deals []Deal) *Recommendation {
	if span := jsonSpanPattern.FindString(content); span != "" {
		var raw rawAdvisorResponse
		if err := json.Unmarshal([]byte(span), &raw); err == nil {
			return repairAdvisorResponse(&raw, deals)
		}
	}

	best := &deals[0]
	for i := 1; i < len(deals); i++ {
		if effectiveIRR(&deals[i]) > effectiveIRR(best) {
			best = &deals[i]
		}
	}

	return &Recommendation{
		RecommendedDeal: best.ID,
		Reasoning:       "Based on highest base case IRR and overall financial metrics.",
		Strengths: []string{
			fmt.Sprintf("Strong base case IRR of %s%%", formatNumber(effectiveIRR(best))),
			"Competitive technical rating",
			"Attractive entry point",
		},
		Weaknesses: []string{
			"Standard shipping market volatility",
			"Currency and fuel price risks",
		},
		RiskAssessment: "Medium risk profile typical for shipping investments.",
		Confidence:     70,
	}
}

func repairAdvisorResponse(raw *rawAdvisorResponse, deals []Deal) *Recommendation {
	recommended := deals[0].ID
	if raw.RecommendedDeal != nil {
		var id ID
		if err := json.Unmarshal(raw.RecommendedDeal, &id); err == nil {
			for i := range deals {
				if deals[i].ID == id {
					recommended = id
					break
				}
			}
		}
	}

	reasoning := "Based on comprehensive analysis of financial metrics and investor profile."
	if raw.Reasoning != nil {
		var s string
		if err := json.Unmarshal(raw.Reasoning, &s); err == nil && s != "" {
			reasoning = s
		}
	}

	riskAssessment := "Standard shipping investment risks apply."
	if raw.RiskAssessment != nil {
		var s string
		if err := json.Unmarshal(raw.RiskAssessment, &s); err == nil && s != "" {
			riskAssessment = s
		}
	}

	confidence := 75
	if raw.Confidence != nil {
		var f float64
		if err := json.Unmarshal(raw.Confidence, &f); err == nil {
			confidence = clampConfidence(int(math.Round(f)))
		}
	}

	return &Recommendation{
		RecommendedDeal: recommended,
		Reasoning:       reasoning,
		Strengths:       stringList(raw.Strengths),
		Weaknesses:      stringList(raw.Weaknesses),
		RiskAssessment:  riskAssessment,
		Confidence:      confidence,
	}
}

// stringList coerces a raw JSON value to a string slice; anything that is
// not an array of strings becomes an empty list.
func stringList(raw json.RawMessage) []string {
	if raw == nil {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func buildAnalysisPrompt(deals []Deal, profile *InvestorProfile) string {
	var summaries []string
	for i := range deals {
		d := &deals[i]

		moic := "N/A"
		breakeven := "N/A"
		opex := "N/A"
		if d.Financials != nil {
			if d.Financials.MOIC != 0 {
				moic = formatNumber(d.Financials.MOIC)
			}
			if d.Financials.CashBreakeven != 0 {
				breakeven = formatCommas(d.Financials.CashBreakeven)
			}
			if d.Financials.OpexBudget != 0 {
				opex = formatCommas(d.Financials.OpexBudget)
			}
		}

		tcRate := "N/A"
		salesPrice := "N/A"
		if d.Market != nil {
			if d.Market.AvgNetTCRate != 0 {
				tcRate = formatCommas(d.Market.AvgNetTCRate)
			}
			if d.Market.NetSalesPrice != 0 {
				salesPrice = fmt.Sprintf("%.2f", d.Market.NetSalesPrice/1e6)
			}
		}

		summaries = append(summaries, fmt.Sprintf(`
Project %d: %s
- Minimum Investment: $%.0fK
- Base Case IRR: %s%%
- MOIC: %sx
- Purchase Price: $%.1fM
- Equity Value: $%.1fM
- Deadweight: %s dwt
- Built: %s
- Technical Rating: %s
- Cash Breakeven: $%s/day
- OPEX Budget: $%s/day
- Average Net TC Rate: $%s/day
- Net Sales Price (Year 5): $%sM
`,
			i+1, d.ShipName,
			d.MinInvestment/1000,
			formatNumber(effectiveIRR(d)),
			moic,
			d.PurchasePrice/1e6,
			d.EquityValue/1e6,
			formatCommas(d.Deadweight),
			d.Built,
			d.TechnicalRating,
			breakeven,
			opex,
			tcRate,
			salesPrice,
		))
	}

	ids := make([]string, len(deals))
	for i := range deals {
		ids[i] = `"` + string(deals[i].ID) + `"`
	}

	return fmt.Sprintf(`Analyze the following shipping investment opportunities and provide a recommendation based on the investor profile.

INVESTOR PROFILE:
- Risk Tolerance: %s
- Investment Horizon: %s
- Priority: %s
- Experience Level: %s
- Investment Amount: $%s

INVESTMENT OPPORTUNITIES:
%s

You MUST respond with ONLY a valid JSON object in this exact format (no markdown, no code blocks, no additional text):
{
  "recommendedDeal": "1",
  "reasoning": "2-3 sentence explanation of why this deal is recommended for this investor",
  "strengths": ["strength 1", "strength 2", "strength 3"],
  "weaknesses": ["consideration 1", "consideration 2"],
  "riskAssessment": "1-2 sentence risk assessment",
  "confidence": 85
}

The recommendedDeal must be one of the project IDs: %s.

Focus on:
1. Alignment with investor's risk tolerance and priorities
2. Financial metrics (IRR, MOIC, breakeven)
3. Technical quality and vessel age
4. Market conditions and outlook
5. Investment amount suitability

Return ONLY valid JSON in this exact format, no additional text or markdown formatting.`,
		profile.RiskTolerance,
		profile.InvestmentHorizon,
		profile.Priority,
		profile.Experience,
		formatCommas(profile.InvestmentAmount),
		strings.Join(summaries, "\n"),
		strings.Join(ids, ", "),
	)
}

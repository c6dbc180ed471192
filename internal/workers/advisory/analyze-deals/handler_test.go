// internal/workers/advisory/analyze-deals/handler_test.go
package analyzedeals

import (
	"context"
	"encoding/json"
	"testing"

	"shipinvest-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t), NewRuleBasedStrategy(DefaultWeights()))
	handler := NewHandler(LoadConfig(), engine, logger.NewTestLogger(t))

	rec, err := handler.Execute(context.Background(), &Input{
		Projects:        []Deal{atlanticBulker(), pacificTrader()},
		InvestorProfile: profile(RiskAggressive, HorizonMedium, PriorityReturns, 200000),
	})
	require.NoError(t, err)
	assert.Equal(t, ID("2"), rec.RecommendedDeal)
}

func TestHandler_ExecuteRejectsInvalidInput(t *testing.T) {
	engine := NewEngine(logger.NewNoOpLogger(), NewRuleBasedStrategy(DefaultWeights()))
	handler := NewHandler(LoadConfig(), engine, logger.NewNoOpLogger())

	_, err := handler.Execute(context.Background(), &Input{Projects: []Deal{atlanticBulker()}})
	require.ErrorIs(t, err, ErrTooFewDeals)
}

func TestInput_UnmarshalWireFormat(t *testing.T) {
	// Ids arrive as raw numbers from the comparison page payload.
	payload := `{
		"projects": [
			{"id": 1, "shipName": "MV Atlantic Bulker", "minInvestment": 142500, "returnPerYear": 17.1,
			 "technicalRating": "7.8/10", "built": "April 2014",
			 "financials": {"baseCaseIRR": 17.1, "moic": 1.91}},
			{"id": 2, "shipName": "MV Pacific Trader", "minInvestment": 165000, "returnPerYear": 18.5,
			 "technicalRating": "8.1/10", "built": "March 2015"}
		],
		"investorProfile": {"riskTolerance": "moderate", "investmentHorizon": "long",
			"priority": "balance", "experience": "beginner", "investmentAmount": 150000}
	}`

	var input Input
	require.NoError(t, json.Unmarshal([]byte(payload), &input))
	require.Len(t, input.Projects, 2)
	assert.Equal(t, ID("1"), input.Projects[0].ID)
	assert.Equal(t, ID("2"), input.Projects[1].ID)
	require.NotNil(t, input.InvestorProfile)
	assert.Equal(t, 150000.0, input.InvestorProfile.InvestmentAmount)
}

func TestDerivedMetrics(t *testing.T) {
	tests := []struct {
		name   string
		deal   Deal
		irr    float64
		moic   float64
		rating float64
		year   int
	}{
		{
			name: "full financials",
			deal: Deal{ReturnPerYear: 12, Built: "April 2014", TechnicalRating: "7.8/10",
				Financials: &Financials{BaseCaseIRR: 17.1, MOIC: 1.91}},
			irr: 17.1, moic: 1.91, rating: 7.8, year: 2014,
		},
		{
			name: "missing financials falls back to headline return",
			deal: Deal{ReturnPerYear: 12, Built: "2009", TechnicalRating: "8/10"},
			irr:  12, moic: 0, rating: 8, year: 2009,
		},
		{
			name: "unparseable free text",
			deal: Deal{ReturnPerYear: 12, Built: "unknown", TechnicalRating: "excellent"},
			irr:  12, moic: 0, rating: 0, year: 0,
		},
		{
			name: "zero base case IRR falls back",
			deal: Deal{ReturnPerYear: 9, Financials: &Financials{BaseCaseIRR: 0, MOIC: 1.5}},
			irr:  9, moic: 1.5, rating: 0, year: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.irr, effectiveIRR(&tt.deal))
			assert.Equal(t, tt.moic, effectiveMOIC(&tt.deal))
			assert.Equal(t, tt.rating, techRating(&tt.deal))
			assert.Equal(t, tt.year, buildYear(&tt.deal))
		})
	}
}

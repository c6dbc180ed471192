// internal/workers/advisory/analyze-deals/models.go
package analyzedeals

import "encoding/json"

// ID is a deal identifier. Upstream payloads carry ids as JSON numbers or
// strings; both unmarshal to the canonical string form so membership checks
// work across the two encodings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Financials holds the deal-level financial model outputs.
type Financials struct {
	BaseCaseIRR   float64 `json:"baseCaseIRR"`
	MOIC          float64 `json:"moic"`
	CashBreakeven float64 `json:"cashBreakeven"`
	OpexBudget    float64 `json:"opexBudget"`
}

// Market holds the market assumptions behind the deal model.
type Market struct {
	AvgNetTCRate  float64 `json:"avgNetTCRate"`
	NetSalesPrice float64 `json:"netSalesPrice"`
}

// Deal is one investment opportunity under comparison. Built and
// TechnicalRating are free text as entered by the listing team; numeric
// values are recovered defensively (see validation.go).
type Deal struct {
	ID              ID          `json:"id"`
	ShipName        string      `json:"shipName"`
	ShipType        string      `json:"shipType,omitempty"`
	MinInvestment   float64     `json:"minInvestment"`
	ReturnPerYear   float64     `json:"returnPerYear"`
	PurchasePrice   float64     `json:"purchasePrice"`
	EquityValue     float64     `json:"equityValue"`
	Deadweight      float64     `json:"deadweight"`
	Built           string      `json:"built"`
	TechnicalRating string      `json:"technicalRating"`
	Financials      *Financials `json:"financials,omitempty"`
	Market          *Market     `json:"market,omitempty"`
}

// InvestorProfile describes the investor the comparison is run for.
// Experience is informational only and never scored.
type InvestorProfile struct {
	RiskTolerance     string  `json:"riskTolerance"`
	InvestmentHorizon string  `json:"investmentHorizon"`
	Priority          string  `json:"priority"`
	Experience        string  `json:"experience"`
	InvestmentAmount  float64 `json:"investmentAmount"`
}

// Profile enumerations.
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"

	HorizonShort  = "short"
	HorizonMedium = "medium"
	HorizonLong   = "long"

	PriorityReturns = "returns"
	PrioritySafety  = "safety"
	PriorityBalance = "balance"
)

// Recommendation is the engine's answer. RecommendedDeal is always one of
// the input deal ids and Confidence is always within [0,100].
type Recommendation struct {
	RecommendedDeal ID       `json:"recommendedDeal"`
	Reasoning       string   `json:"reasoning"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	RiskAssessment  string   `json:"riskAssessment"`
	Confidence      int      `json:"confidence"`
}

// Input is the job variable payload.
type Input struct {
	Projects        []Deal           `json:"projects"`
	InvestorProfile *InvestorProfile `json:"investorProfile"`
}

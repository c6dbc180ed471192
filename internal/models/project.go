// internal/models/project.go
package models

// ProjectListing is the marketplace card shape returned by list-projects.
type ProjectListing struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Sector        string  `json:"sector"`
	Description   string  `json:"description"`
	MinInvestment float64 `json:"minInvestment"`
	Goal          float64 `json:"goal"`
	Raised        float64 `json:"raised"`
	Deadline      string  `json:"deadline"`
	Investors     int     `json:"investors"`
	Status        string  `json:"status"`
}

// Project sectors and funding statuses.
const (
	SectorShipping     = "shipping"
	SectorConstruction = "construction"

	ProjectStatusOpen    = "open"
	ProjectStatusFunded  = "funded"
	ProjectStatusClosing = "closing"
)

// ProjectFinancials holds the deal-level financial assumptions.
type ProjectFinancials struct {
	BaseCaseIRR   float64 `json:"baseCaseIRR"`
	MOIC          float64 `json:"moic"`
	CashBreakeven float64 `json:"cashBreakeven"`
	OpexBudget    float64 `json:"opexBudget"`
}

// ProjectMarket holds the market assumptions behind the deal model.
type ProjectMarket struct {
	AvgNetTCRate  float64 `json:"avgNetTCRate"`
	NetSalesPrice float64 `json:"netSalesPrice"`
}

// Project is the full project-detail shape. The ship particulars and the
// financials block double as the deal payload consumed by analyze-deals.
type Project struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Sector          string             `json:"sector"`
	Description     string             `json:"description"`
	ShipName        string             `json:"shipName"`
	ShipType        string             `json:"shipType"`
	MinInvestment   float64            `json:"minInvestment"`
	ReturnPerYear   float64            `json:"returnPerYear"`
	PurchasePrice   float64            `json:"purchasePrice"`
	EquityValue     float64            `json:"equityValue"`
	Deadweight      float64            `json:"deadweight"`
	Built           string             `json:"built"`
	TechnicalRating string             `json:"technicalRating"`
	Financials      *ProjectFinancials `json:"financials,omitempty"`
	Market          *ProjectMarket     `json:"market,omitempty"`
	Status          string             `json:"status"`
	CreatedAt       string             `json:"createdAt"`
}

// ActivityEntry is one row of a project's activity feed.
type ActivityEntry struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"projectId"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Amount    float64 `json:"amount,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// Activity entry types.
const (
	ActivityTypeCreated    = "created"
	ActivityTypeInvestment = "investment"
	ActivityTypeMilestone  = "milestone"
	ActivityTypeUpdate     = "update"
)

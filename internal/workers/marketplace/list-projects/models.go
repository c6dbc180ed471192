// internal/workers/marketplace/list-projects/models.go
package listprojects

import "shipinvest-workers/internal/models"

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

// Input carries the marketplace listing filters. Sector accepts "shipping",
// "construction" or "all"; an empty sector means all.
type Input struct {
	Sector     string     `json:"sector,omitempty"`
	Query      string     `json:"query,omitempty"`
	Status     string     `json:"status,omitempty"`
	Pagination Pagination `json:"pagination,omitempty"`
}

type Output struct {
	Projects  []models.ProjectListing `json:"projects"`
	TotalHits int                     `json:"totalHits"`
	From      int                     `json:"from"`
	Size      int                     `json:"size"`
}

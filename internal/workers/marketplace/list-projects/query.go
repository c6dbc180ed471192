// internal/workers/marketplace/list-projects/query.go
package listprojects

import (
	"fmt"

	"shipinvest-workers/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// buildSearchQuery assembles the bool query for the projects index.
func buildSearchQuery(input *Input) (map[string]interface{}, error) {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if input.Query != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  input.Query,
				"fields": []string{"title^3", "description^2", "shipName"},
				"type":   "best_fields",
			},
		})
	}

	switch input.Sector {
	case "", "all":
		// No sector filter.
	case models.SectorShipping, models.SectorConstruction:
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"sector": input.Sector},
		})
	default:
		return nil, fmt.Errorf("%w: unknown sector %q", ErrInvalidFilter, input.Sector)
	}

	if input.Status != "" {
		switch input.Status {
		case models.ProjectStatusOpen, models.ProjectStatusFunded, models.ProjectStatusClosing:
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{"status": input.Status},
			})
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, input.Status)
		}
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{
			"match_all": map[string]interface{}{},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"deadline": map[string]interface{}{"order": "asc"}},
		},
	}, nil
}

func normalizePagination(p Pagination) (int, int) {
	from := p.From
	if from < 0 {
		from = 0
	}
	size := p.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return from, size
}

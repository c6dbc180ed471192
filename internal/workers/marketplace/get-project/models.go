// internal/workers/marketplace/get-project/models.go
package getproject

import "shipinvest-workers/internal/models"

type Input struct {
	ProjectID string `json:"projectId"`
}

type Output struct {
	Project  models.Project         `json:"project"`
	Activity []models.ActivityEntry `json:"activity"`
}

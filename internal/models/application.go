// internal/models/application.go
package models

// Application is a KYC onboarding application row.
type Application struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"fullName"`
	PhoneCountryCode string `json:"phoneCountryCode"`
	PhoneNumber      string `json:"phoneNumber"`
	IDType           string `json:"idType"`
	IDNumber         string `json:"idNumber"`
	Nationality      string `json:"nationality"`
	Status           string `json:"status"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// Application statuses.
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// Accepted identification document types.
const (
	IDTypePassport       = "passport"
	IDTypeNationalID     = "national_id"
	IDTypeDrivingLicense = "driving_license"
)

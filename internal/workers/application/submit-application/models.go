// internal/workers/application/submit-application/models.go
package submitapplication

// Input is the KYC onboarding payload.
type Input struct {
	Email            string `json:"email"`
	FullName         string `json:"fullName"`
	PhoneCountryCode string `json:"phoneCountryCode"`
	PhoneNumber      string `json:"phoneNumber"`
	IDType           string `json:"idType"`
	IDNumber         string `json:"idNumber"`
	Nationality      string `json:"nationality"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	CreatedAt         string `json:"createdAt"`
}

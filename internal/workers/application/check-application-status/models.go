// internal/workers/application/check-application-status/models.go
package checkapplicationstatus

type Input struct {
	Email string `json:"email"`
}

// Output mirrors the status lookup on the check-application page. Authorized
// is true only for approved applications and gates the investor pages.
type Output struct {
	Found         bool   `json:"found"`
	ApplicationID string `json:"applicationId,omitempty"`
	FullName      string `json:"fullName,omitempty"`
	Status        string `json:"status,omitempty"`
	Authorized    bool   `json:"authorized"`
	SubmittedAt   string `json:"submittedAt,omitempty"`
}

// statusRecord is the cached row shape.
type statusRecord struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

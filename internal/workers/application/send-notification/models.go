// internal/workers/application/send-notification/models.go
package sendnotification

type Input struct {
	ApplicationID string                 `json:"applicationId"`
	Email         string                 `json:"email"`
	Phone         string                 `json:"phone,omitempty"`
	FullName      string                 `json:"fullName,omitempty"`
	Event         string                 `json:"event"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Application lifecycle events.
const (
	EventApplicationReceived = "application_received"
	EventApplicationApproved = "application_approved"
	EventApplicationRejected = "application_rejected"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

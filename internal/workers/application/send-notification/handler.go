// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "shipinvest-workers/internal/common/errors"
	"shipinvest-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

var (
	ErrUnknownEvent           = errors.New("UNKNOWN_EVENT")
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Service interfaces for mocking; the internal/common/aws wrappers satisfy them.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type template struct {
	subject string
	body    string
}

// Templates per lifecycle event. Placeholders follow the {{name}} convention.
var eventTemplates = map[string]template{
	EventApplicationReceived: {
		subject: "We received your application",
		body:    "Dear {{fullName}},\n\nYour investor application {{applicationId}} has been received and is pending review. We will notify you once a decision has been made.\n\nShipInvest Team",
	},
	EventApplicationApproved: {
		subject: "Your investor application has been approved",
		body:    "Dear {{fullName}},\n\nCongratulations! Your investor application {{applicationId}} has been approved. You can now browse the marketplace and invest in open projects.\n\nShipInvest Team",
	},
	EventApplicationRejected: {
		subject: "Update on your investor application",
		body:    "Dear {{fullName}},\n\nAfter review, we are unable to approve your investor application {{applicationId}} at this time. You may submit a new application with updated documents.\n\nShipInvest Team",
	},
}

type Handler struct {
	config    *Config
	db        *sql.DB
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewHandler(config *Config, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		db:        db,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.throwError(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			h.throwError(client, job, "UNKNOWN_EVENT", err.Error())
			return
		}
		h.failJob(client, job, err, int32(apperrors.GetRetryCount(apperrors.ErrCodeNotificationSendFailed)))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl, exists := eventTemplates[input.Event]
	if !exists {
		return nil, fmt.Errorf("%w: no template for event %q", ErrUnknownEvent, input.Event)
	}

	data := map[string]interface{}{
		"fullName":      input.FullName,
		"applicationId": input.ApplicationID,
		"event":         input.Event,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	subject := renderTemplate(tmpl.subject, data)
	body := renderTemplate(tmpl.body, data)

	notificationID := uuid.New().String()
	sentAt := time.Now().UTC().Format(time.RFC3339)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
			h.recordDelivery(ctx, notificationID, input, StatusFailed, sentAt)
			return nil, fmt.Errorf("%w: email to %s: %v", ErrNotificationSendFailed, input.Email, err)
		}
		emailSent = true
	}

	// SMS is reserved for the approval decision.
	if h.config.SMSEnabled && input.Phone != "" && input.Event == EventApplicationApproved {
		if err := h.sendSMS(ctx, input.Phone, body); err != nil {
			h.recordDelivery(ctx, notificationID, input, StatusFailed, sentAt)
			return nil, fmt.Errorf("%w: sms to %s: %v", ErrNotificationSendFailed, input.Phone, err)
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	h.recordDelivery(ctx, notificationID, input, status, sentAt)

	h.logger.Info("notification processed", map[string]interface{}{
		"notificationId": notificationID,
		"event":          input.Event,
		"status":         status,
		"emailSent":      emailSent,
		"smsSent":        smsSent,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		EmailSent:      emailSent,
		SMSSent:        smsSent,
		SentAt:         sentAt,
	}, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// recordDelivery is best effort; the log row never decides job outcome.
func (h *Handler) recordDelivery(ctx context.Context, notificationID string, input *Input, status, sentAt string) {
	if h.db == nil {
		return
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO notification_log (id, application_id, event, recipient, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		notificationID, input.ApplicationID, input.Event, input.Email, status, sentAt,
	)
	if err != nil {
		h.logger.Warn("notification log insert failed", map[string]interface{}{
			"error":          err.Error(),
			"notificationId": notificationID,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) throwError(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job rejected", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":  job.Key,
		"error":   err.Error(),
		"retries": retries,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(err.Error()).
		Send(context.Background())
}

// renderTemplate substitutes {{name}} placeholders and strips any that are
// left unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		switch tv := v.(type) {
		case string:
			value = tv
		case nil:
		default:
			value = fmt.Sprintf("%v", tv)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

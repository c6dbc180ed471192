// internal/workers/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "shipinvest-workers/internal/common/errors"
	"shipinvest-workers/internal/common/logger"
	"shipinvest-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "submit-application"
)

var (
	ErrValidationFailed     = errors.New("APPLICATION_VALIDATION_FAILED")
	ErrDuplicateApplication = errors.New("DUPLICATE_APPLICATION")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		switch {
		case errors.Is(err, ErrValidationFailed):
			h.throwError(client, job, "APPLICATION_VALIDATION_FAILED", err.Error())
		case errors.Is(err, ErrDuplicateApplication):
			h.throwError(client, job, "DUPLICATE_APPLICATION", err.Error())
		case errors.Is(err, ErrDatabaseInsertFailed):
			h.failJob(client, job, err, int32(apperrors.GetRetryCount(apperrors.ErrCodeDatabaseInsertFailed)))
		default:
			h.failJob(client, job, err, 0)
		}
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateApplication(input); err != nil {
		return nil, err
	}

	// Duplicate check across the three uniquely identifying fields.
	var emailTaken, phoneTaken, idTaken bool
	err := h.db.QueryRowContext(ctx, `
		SELECT email = $1, phone_number = $2, id_number = $3
		FROM applications
		WHERE email = $1 OR phone_number = $2 OR id_number = $3
		LIMIT 1`,
		input.Email, input.PhoneNumber, input.IDNumber,
	).Scan(&emailTaken, &phoneTaken, &idTaken)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDatabaseInsertFailed, err)
	}
	if err == nil {
		field := "ID number"
		if emailTaken {
			field = "email"
		} else if phoneTaken {
			field = "phone number"
		}
		return nil, fmt.Errorf(`%w: An application with this %s already exists. Please use "Check Application" to view your status.`,
			ErrDuplicateApplication, field)
	}

	appID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, email, full_name, phone_country_code, phone_number,
			id_type, id_number, nationality, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		appID,
		input.Email,
		input.FullName,
		input.PhoneCountryCode,
		input.PhoneNumber,
		input.IDType,
		input.IDNumber,
		input.Nationality,
		models.ApplicationStatusPending,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	// Audit trail is best effort: a failed insert never fails the job.
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"email":       input.Email,
		"nationality": input.Nationality,
		"idType":      input.IDType,
	})
	if err != nil {
		auditDetailsJSON = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_submitted",
		"application",
		appID,
		auditDetailsJSON,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err.Error(),
			"applicationId": appID,
		})
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": appID,
		"email":         input.Email,
	})

	return &Output{
		ApplicationID:     appID,
		ApplicationStatus: models.ApplicationStatusPending,
		CreatedAt:         createdAt,
	}, nil
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// internal/workers/application/check-application-status/handler.go
package checkapplicationstatus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "shipinvest-workers/internal/common/errors"
	"shipinvest-workers/internal/common/logger"
	"shipinvest-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "check-application-status"
)

var (
	ErrMissingEmail      = errors.New("INVALID_INPUT")
	ErrStatusCheckFailed = errors.New("QUERY_EXECUTION_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redis,
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
		if errors.Is(err, ErrMissingEmail) {
			h.throwError(client, job, "INVALID_INPUT", "Email is required")
			return
		}
		h.failJob(client, job, err, int32(apperrors.GetRetryCount(apperrors.ErrCodeQueryExecutionFailed)))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, ErrMissingEmail
	}

	cacheKey := "app:status:" + email
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var rec statusRecord
		if err := json.Unmarshal([]byte(val), &rec); err == nil {
			return outputFromRecord(&rec), nil
		}
	}

	var rec statusRecord
	query := `SELECT id, full_name, status, created_at FROM applications WHERE email = $1`
	err := h.db.QueryRowContext(ctx, query, email).Scan(
		&rec.ID, &rec.FullName, &rec.Status, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Mirrors the front end's empty state; not an error.
			return &Output{Found: false}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStatusCheckFailed, err)
	}

	data, _ := json.Marshal(rec)
	h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)

	return outputFromRecord(&rec), nil
}

func outputFromRecord(rec *statusRecord) *Output {
	return &Output{
		Found:         true,
		ApplicationID: rec.ID,
		FullName:      rec.FullName,
		Status:        rec.Status,
		Authorized:    rec.Status == models.ApplicationStatusApproved,
		SubmittedAt:   rec.CreatedAt,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

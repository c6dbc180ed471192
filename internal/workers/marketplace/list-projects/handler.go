// internal/workers/marketplace/list-projects/handler.go
package listprojects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "shipinvest-workers/internal/common/errors"
	"shipinvest-workers/internal/common/logger"
	"shipinvest-workers/internal/common/metrics"
	"shipinvest-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "list-projects"
)

var (
	ErrInvalidFilter     = errors.New("INVALID_FILTER_FORMAT")
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
)

type Handler struct {
	config   *Config
	esClient *elasticsearch.Client
	logger   logger.Logger
}

func NewHandler(config *Config, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		esClient: esClient,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

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
		if errors.Is(err, ErrInvalidFilter) {
			h.throwError(client, job, "INVALID_FILTER_FORMAT", err.Error())
			return
		}
		code := apperrors.ErrCodeSearchQueryFailed
		if errors.Is(err, ErrSearchTimeout) {
			code = apperrors.ErrCodeSearchTimeout
		}
		h.failJob(client, job, err, int32(apperrors.GetRetryCount(code)))
		return
	}

	h.completeJob(client, job, output)
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string                `json:"_id"`
			Source models.ProjectListing `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	query, err := buildSearchQuery(input)
	if err != nil {
		return nil, err
	}
	from, size := normalizePagination(input.Pagination)

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal query: %v", ErrSearchQueryFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{h.config.Index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errBody map[string]interface{}
		_ = json.NewDecoder(res.Body).Decode(&errBody)
		if reason, ok := extractESReason(errBody); ok {
			return nil, fmt.Errorf("%w: %s: %s", ErrSearchQueryFailed, res.Status(), reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	projects := make([]models.ProjectListing, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		listing := hit.Source
		if listing.ID == "" {
			listing.ID = hit.ID
		}
		projects = append(projects, listing)
	}

	h.logger.Info("project search executed", map[string]interface{}{
		"sector":    input.Sector,
		"query":     input.Query,
		"totalHits": parsed.Hits.Total.Value,
		"returned":  len(projects),
	})

	return &Output{
		Projects:  projects,
		TotalHits: parsed.Hits.Total.Value,
		From:      from,
		Size:      size,
	}, nil
}

func extractESReason(body map[string]interface{}) (string, bool) {
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		return "", false
	}
	reason, ok := errObj["reason"].(string)
	if !ok || strings.TrimSpace(reason) == "" {
		return "", false
	}
	return reason, true
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
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) throwError(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job rejected", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

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
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, "TECHNICAL").Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

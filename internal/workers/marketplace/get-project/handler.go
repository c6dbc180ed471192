// internal/workers/marketplace/get-project/handler.go
package getproject

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
	"shipinvest-workers/internal/common/metrics"
	"shipinvest-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "get-project"
)

var (
	ErrMissingProjectID = errors.New("INVALID_INPUT")
	ErrProjectNotFound  = errors.New("PROJECT_NOT_FOUND")
	ErrQueryFailed      = errors.New("QUERY_EXECUTION_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		switch {
		case errors.Is(err, ErrMissingProjectID):
			h.throwError(client, job, "INVALID_INPUT", "Project id is required")
		case errors.Is(err, ErrProjectNotFound):
			h.throwError(client, job, "PROJECT_NOT_FOUND", err.Error())
		default:
			h.failJob(client, job, err, int32(apperrors.GetRetryCount(apperrors.ErrCodeQueryExecutionFailed)))
		}
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	projectID := strings.TrimSpace(input.ProjectID)
	if projectID == "" {
		return nil, ErrMissingProjectID
	}

	cacheKey := "project:" + projectID
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached Output
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				h.logger.Debug("cache hit", map[string]interface{}{"projectId": projectID})
				return &cached, nil
			}
		}
	}

	project, err := h.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	activity, err := h.loadActivity(ctx, projectID)
	if err != nil {
		return nil, err
	}

	output := &Output{Project: *project, Activity: activity}

	if h.redis != nil {
		if data, err := json.Marshal(output); err == nil {
			h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)
		}
	}

	return output, nil
}

func (h *Handler) loadProject(ctx context.Context, projectID string) (*models.Project, error) {
	query := `
		SELECT id, title, sector, description, ship_name, ship_type,
		       min_investment, return_per_year, purchase_price, equity_value,
		       deadweight, built, technical_rating,
		       base_case_irr, moic, cash_breakeven, opex_budget,
		       avg_net_tc_rate, net_sales_price,
		       status, created_at
		FROM projects WHERE id = $1`

	var p models.Project
	var baseCaseIRR, moic, cashBreakeven, opexBudget sql.NullFloat64
	var avgNetTCRate, netSalesPrice sql.NullFloat64

	err := h.db.QueryRowContext(ctx, query, projectID).Scan(
		&p.ID, &p.Title, &p.Sector, &p.Description, &p.ShipName, &p.ShipType,
		&p.MinInvestment, &p.ReturnPerYear, &p.PurchasePrice, &p.EquityValue,
		&p.Deadweight, &p.Built, &p.TechnicalRating,
		&baseCaseIRR, &moic, &cashBreakeven, &opexBudget,
		&avgNetTCRate, &netSalesPrice,
		&p.Status, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no project with id %q", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("%w: load project: %v", ErrQueryFailed, err)
	}

	// Financial and market blocks are optional on early-stage listings.
	if baseCaseIRR.Valid || moic.Valid || cashBreakeven.Valid || opexBudget.Valid {
		p.Financials = &models.ProjectFinancials{
			BaseCaseIRR:   baseCaseIRR.Float64,
			MOIC:          moic.Float64,
			CashBreakeven: cashBreakeven.Float64,
			OpexBudget:    opexBudget.Float64,
		}
	}
	if avgNetTCRate.Valid || netSalesPrice.Valid {
		p.Market = &models.ProjectMarket{
			AvgNetTCRate:  avgNetTCRate.Float64,
			NetSalesPrice: netSalesPrice.Float64,
		}
	}

	return &p, nil
}

func (h *Handler) loadActivity(ctx context.Context, projectID string) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, project_id, type, message, amount, created_at
		FROM project_activity
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := h.db.QueryContext(ctx, query, projectID, h.config.ActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: load activity: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		var entry models.ActivityEntry
		var amount sql.NullFloat64
		if err := rows.Scan(&entry.ID, &entry.ProjectID, &entry.Type, &entry.Message, &amount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan activity row: %v", ErrQueryFailed, err)
		}
		entry.Amount = amount.Float64
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate activity rows: %v", ErrQueryFailed, err)
	}

	return entries, nil
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

// internal/workers/marketplace/get-project/handler_test.go
package getproject

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"

	"shipinvest-workers/internal/common/logger"
	"shipinvest-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectColumns = []string{
	"id", "title", "sector", "description", "ship_name", "ship_type",
	"min_investment", "return_per_year", "purchase_price", "equity_value",
	"deadweight", "built", "technical_rating",
	"base_case_irr", "moic", "cash_breakeven", "opex_budget",
	"avg_net_tc_rate", "net_sales_price",
	"status", "created_at",
}

var activityColumns = []string{"id", "project_id", "type", "message", "amount", "created_at"}

func atlanticRow() []driver.Value {
	return []driver.Value{
		"p-1", "MV Atlantic Bulker", models.SectorShipping, "Kamsarmax bulk carrier", "MV Atlantic Bulker", "Bulk Carrier",
		142500.0, 15.2, 23800000.0, 9500000.0,
		81600.0, "April 2014", "7.8/10",
		17.1, 1.91, 11250.0, 6400.0,
		14800.0, 20500000.0,
		models.ProjectStatusOpen, "2026-05-12T09:00:00Z",
	}
}

func TestExecute_ReturnsProjectWithActivity(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	dbMock.ExpectQuery("SELECT (.+) FROM projects WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(projectColumns).AddRow(atlanticRow()...))

	dbMock.ExpectQuery("SELECT (.+) FROM project_activity").
		WithArgs("p-1", 20).
		WillReturnRows(sqlmock.NewRows(activityColumns).
			AddRow("a-2", "p-1", models.ActivityTypeInvestment, "New investment received", 25000.0, "2026-05-20T10:00:00Z").
			AddRow("a-1", "p-1", models.ActivityTypeCreated, "Project listed", nil, "2026-05-12T09:00:00Z"))

	redisMock.ExpectGet("project:p-1").RedisNil()
	redisMock.Regexp().ExpectSet("project:p-1", `.*`, LoadConfig().CacheTTL).SetVal("OK")

	handler := NewHandler(LoadConfig(), db, redisClient, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{ProjectID: "p-1"})
	require.NoError(t, err)

	assert.Equal(t, "p-1", output.Project.ID)
	assert.Equal(t, "MV Atlantic Bulker", output.Project.Title)
	require.NotNil(t, output.Project.Financials)
	assert.InDelta(t, 17.1, output.Project.Financials.BaseCaseIRR, 0.001)
	require.NotNil(t, output.Project.Market)
	assert.InDelta(t, 14800.0, output.Project.Market.AvgNetTCRate, 0.001)

	require.Len(t, output.Activity, 2)
	assert.Equal(t, models.ActivityTypeInvestment, output.Activity[0].Type)
	assert.InDelta(t, 25000.0, output.Activity[0].Amount, 0.001)
	assert.Zero(t, output.Activity[1].Amount)

	require.NoError(t, dbMock.ExpectationsWereMet())
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_NullFinancialsOmitted(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	row := atlanticRow()
	for i := 13; i <= 18; i++ {
		row[i] = nil
	}

	dbMock.ExpectQuery("SELECT (.+) FROM projects WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(projectColumns).AddRow(row...))
	dbMock.ExpectQuery("SELECT (.+) FROM project_activity").
		WithArgs("p-1", 20).
		WillReturnRows(sqlmock.NewRows(activityColumns))

	redisMock.ExpectGet("project:p-1").RedisNil()
	redisMock.Regexp().ExpectSet("project:p-1", `.*`, LoadConfig().CacheTTL).SetVal("OK")

	handler := NewHandler(LoadConfig(), db, redisClient, logger.NewNoOpLogger())
	output, err := handler.Execute(context.Background(), &Input{ProjectID: "p-1"})
	require.NoError(t, err)

	assert.Nil(t, output.Project.Financials)
	assert.Nil(t, output.Project.Market)
	assert.Empty(t, output.Activity)
}

func TestExecute_CacheHitSkipsDatabase(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	cached := Output{
		Project: models.Project{ID: "p-1", Title: "MV Atlantic Bulker", Status: models.ProjectStatusOpen},
		Activity: []models.ActivityEntry{
			{ID: "a-1", ProjectID: "p-1", Type: models.ActivityTypeCreated, Message: "Project listed", CreatedAt: "2026-05-12T09:00:00Z"},
		},
	}
	data, err := json.Marshal(&cached)
	require.NoError(t, err)
	redisMock.ExpectGet("project:p-1").SetVal(string(data))

	handler := NewHandler(LoadConfig(), db, redisClient, logger.NewNoOpLogger())
	output, err := handler.Execute(context.Background(), &Input{ProjectID: "p-1"})
	require.NoError(t, err)

	assert.Equal(t, "MV Atlantic Bulker", output.Project.Title)
	require.Len(t, output.Activity, 1)

	// No SQL expectations were registered; a query would fail the test.
	require.NoError(t, dbMock.ExpectationsWereMet())
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_NotFound(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("project:missing").RedisNil()

	dbMock.ExpectQuery("SELECT (.+) FROM projects WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(projectColumns))

	handler := NewHandler(LoadConfig(), db, redisClient, logger.NewNoOpLogger())
	_, err = handler.Execute(context.Background(), &Input{ProjectID: "missing"})
	require.ErrorIs(t, err, ErrProjectNotFound)
	assert.Contains(t, err.Error(), `no project with id "missing"`)
}

func TestExecute_MissingProjectID(t *testing.T) {
	handler := NewHandler(LoadConfig(), nil, nil, logger.NewNoOpLogger())
	_, err := handler.Execute(context.Background(), &Input{ProjectID: "   "})
	require.ErrorIs(t, err, ErrMissingProjectID)
}

func TestExecute_QueryFailureIsRetryable(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("project:p-1").RedisNil()

	dbMock.ExpectQuery("SELECT (.+) FROM projects WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnError(errors.New("connection reset"))

	handler := NewHandler(LoadConfig(), db, redisClient, logger.NewNoOpLogger())
	_, err = handler.Execute(context.Background(), &Input{ProjectID: "p-1"})
	require.ErrorIs(t, err, ErrQueryFailed)
}

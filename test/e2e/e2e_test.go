// test/e2e/e2e_test.go
//
// Flow tests composing the workers the way the BPMN processes chain them.
// All infrastructure is substituted with in-process fakes so the suite runs
// anywhere.
package e2e

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipinvest-workers/internal/common/config"
	"shipinvest-workers/internal/common/logger"
	"shipinvest-workers/internal/common/openai"
	"shipinvest-workers/internal/models"
	ad "shipinvest-workers/internal/workers/advisory/analyze-deals"
	cas "shipinvest-workers/internal/workers/application/check-application-status"
	sn "shipinvest-workers/internal/workers/application/send-notification"
	sa "shipinvest-workers/internal/workers/application/submit-application"
	gp "shipinvest-workers/internal/workers/marketplace/get-project"
	lp "shipinvest-workers/internal/workers/marketplace/list-projects"
)

// --- Stubs ---

type stubChat struct {
	response string
	err      error
	calls    int
}

func (s *stubChat) CreateChatCompletion(_ context.Context, _ *openai.ChatRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubSES struct {
	sent []*ses.SendEmailInput
}

func (s *stubSES) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	s.sent = append(s.sent, input)
	return &ses.SendEmailOutput{}, nil
}

type stubSNS struct {
	published []*sns.PublishInput
}

func (s *stubSNS) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	s.published = append(s.published, input)
	return &sns.PublishOutput{}, nil
}

func advisorConfig() config.AdvisorConfig {
	return config.AdvisorConfig{
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   1500,
	}
}

// --- Onboarding: submit -> status check -> approval notification ---

func TestOnboardingFlow(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	// 1. Submit the application.
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT email = $1, phone_number = $2, id_number = $3 FROM applications WHERE email = $1 OR phone_number = $2 OR id_number = $3 LIMIT 1`)).
		WillReturnError(sql.ErrNoRows)
	dbMock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	dbMock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	submitHandler := sa.NewHandler(sa.LoadConfig(), db, log)
	submitted, err := submitHandler.Execute(ctx, &sa.Input{
		Email:            "jordan@example.com",
		FullName:         "Jordan Mensah",
		PhoneCountryCode: "+233",
		PhoneNumber:      "241234567",
		IDType:           models.IDTypePassport,
		IDNumber:         "G1234567",
		Nationality:      "GH",
	})
	require.NoError(t, err)
	require.NotEmpty(t, submitted.ApplicationID)
	assert.Equal(t, models.ApplicationStatusPending, submitted.ApplicationStatus)

	// 2. Check status once the review has approved it.
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	statusDB, statusMock, err := sqlmock.New()
	require.NoError(t, err)
	defer statusDB.Close()

	statusMock.ExpectQuery("SELECT id, full_name, status, created_at FROM applications").
		WithArgs("jordan@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "status", "created_at"}).
			AddRow(submitted.ApplicationID, "Jordan Mensah", models.ApplicationStatusApproved, submitted.CreatedAt))

	statusHandler := cas.NewHandler(cas.LoadConfig(), statusDB, redisClient, log)
	status, err := statusHandler.Execute(ctx, &cas.Input{Email: "Jordan@Example.com"})
	require.NoError(t, err)
	assert.True(t, status.Found)
	assert.True(t, status.Authorized)
	assert.Equal(t, submitted.ApplicationID, status.ApplicationID)

	// 3. Send the approval notification over both channels.
	sesStub := &stubSES{}
	snsStub := &stubSNS{}
	notifyHandler := sn.NewHandler(&sn.Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "noreply@shipinvest.example",
		Timeout:      30 * time.Second,
	}, nil, sesStub, snsStub, log)

	notified, err := notifyHandler.Execute(ctx, &sn.Input{
		ApplicationID: submitted.ApplicationID,
		Email:         "jordan@example.com",
		Phone:         "+233241234567",
		FullName:      "Jordan Mensah",
		Event:         sn.EventApplicationApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, sn.StatusSent, notified.Status)
	assert.True(t, notified.EmailSent)
	assert.True(t, notified.SMSSent)
	require.Len(t, sesStub.sent, 1)
	assert.Contains(t, *sesStub.sent[0].Message.Body.Text.Data, submitted.ApplicationID)

	require.NoError(t, dbMock.ExpectationsWereMet())
	require.NoError(t, statusMock.ExpectationsWereMet())
}

// --- Marketplace: list -> detail ---

func TestMarketplaceFlow(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	esServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		body, _ := json.Marshal(map[string]interface{}{
			"hits": map[string]interface{}{
				"total": map[string]interface{}{"value": 1},
				"hits": []map[string]interface{}{
					{
						"_id": "p-1",
						"_source": models.ProjectListing{
							ID:            "p-1",
							Title:         "MV Atlantic Bulker",
							Sector:        models.SectorShipping,
							MinInvestment: 142500,
							Status:        models.ProjectStatusOpen,
						},
					},
				},
			},
		})
		_, _ = w.Write(body)
	}))
	defer esServer.Close()

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esServer.URL}})
	require.NoError(t, err)

	listHandler := lp.NewHandler(lp.LoadConfig(), esClient, log)
	listing, err := listHandler.Execute(ctx, &lp.Input{Sector: models.SectorShipping})
	require.NoError(t, err)
	require.Len(t, listing.Projects, 1)
	projectID := listing.Projects[0].ID

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("project:" + projectID).RedisNil()
	redisMock.Regexp().ExpectSet("project:"+projectID, `.*`, gp.LoadConfig().CacheTTL).SetVal("OK")

	dbMock.ExpectQuery("SELECT (.+) FROM projects WHERE id = \\$1").
		WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "sector", "description", "ship_name", "ship_type",
			"min_investment", "return_per_year", "purchase_price", "equity_value",
			"deadweight", "built", "technical_rating",
			"base_case_irr", "moic", "cash_breakeven", "opex_budget",
			"avg_net_tc_rate", "net_sales_price",
			"status", "created_at",
		}).AddRow(
			projectID, "MV Atlantic Bulker", models.SectorShipping, "Kamsarmax bulk carrier", "MV Atlantic Bulker", "Bulk Carrier",
			142500.0, 15.2, 23800000.0, 9500000.0,
			81600.0, "April 2014", "7.8/10",
			17.1, 1.91, 11250.0, 6400.0,
			14800.0, 20500000.0,
			models.ProjectStatusOpen, "2026-05-12T09:00:00Z",
		))
	dbMock.ExpectQuery("SELECT (.+) FROM project_activity").
		WithArgs(projectID, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "type", "message", "amount", "created_at"}).
			AddRow("a-1", projectID, models.ActivityTypeCreated, "Project listed", driver.Value(nil), "2026-05-12T09:00:00Z"))

	detailHandler := gp.NewHandler(gp.LoadConfig(), db, redisClient, log)
	detail, err := detailHandler.Execute(ctx, &gp.Input{ProjectID: projectID})
	require.NoError(t, err)
	assert.Equal(t, "MV Atlantic Bulker", detail.Project.Title)
	require.NotNil(t, detail.Project.Financials)
	assert.InDelta(t, 17.1, detail.Project.Financials.BaseCaseIRR, 0.001)
	require.Len(t, detail.Activity, 1)

	require.NoError(t, dbMock.ExpectationsWereMet())
	require.NoError(t, redisMock.ExpectationsWereMet())
}

// --- Advisory: advisor account failure falls back to scoring ---

func TestAdvisoryFlowFallsBackToScoring(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	chat := &stubChat{err: errors.New("You exceeded your current quota")}
	advisorCfg := advisorConfig()
	advisor := ad.NewAdvisorStrategy(chat, advisorCfg, log)
	engine := ad.NewEngine(log, advisor, ad.NewRuleBasedStrategy(ad.DefaultWeights()))

	input := &ad.Input{
		Projects: []ad.Deal{
			{
				ID: "1", ShipName: "MV Atlantic Bulker", MinInvestment: 142500,
				TechnicalRating: "7.8/10", Built: "April 2014",
				Financials: &ad.Financials{BaseCaseIRR: 17.1, MOIC: 1.91},
			},
			{
				ID: "2", ShipName: "MV Pacific Trader", MinInvestment: 165000,
				TechnicalRating: "8.1/10", Built: "March 2015",
				Financials: &ad.Financials{BaseCaseIRR: 18.5, MOIC: 2.05},
			},
		},
		InvestorProfile: &ad.InvestorProfile{
			RiskTolerance:     ad.RiskAggressive,
			InvestmentHorizon: ad.HorizonMedium,
			Priority:          ad.PriorityReturns,
			InvestmentAmount:  200000,
		},
	}

	rec, err := engine.Recommend(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, ad.ID("2"), rec.RecommendedDeal)
	assert.NotEmpty(t, rec.Reasoning)
	assert.GreaterOrEqual(t, rec.Confidence, 0)
	assert.LessOrEqual(t, rec.Confidence, 100)

	// The quota failure disables the advisor; the next job skips straight
	// to scoring without another call.
	assert.True(t, advisor.Disabled())
	_, err = engine.Recommend(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 1, chat.calls)
}

// --- Advisory: advisor success end to end through the handler ---

func TestAdvisoryFlowAdvisorWins(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	chat := &stubChat{response: `{"recommendedDeal":"1","reasoning":"Lower entry point suits the amount.","strengths":["Attractive entry"],"weaknesses":["Older vessel"],"riskAssessment":"Medium.","confidence":82}`}
	advisor := ad.NewAdvisorStrategy(chat, advisorConfig(), log)
	engine := ad.NewEngine(log, advisor, ad.NewRuleBasedStrategy(ad.DefaultWeights()))
	handler := ad.NewHandler(ad.LoadConfig(), engine, log)

	output, err := handler.Execute(ctx, &ad.Input{
		Projects: []ad.Deal{
			{ID: "1", ShipName: "MV Atlantic Bulker", MinInvestment: 142500, TechnicalRating: "7.8/10",
				Financials: &ad.Financials{BaseCaseIRR: 17.1, MOIC: 1.91}},
			{ID: "2", ShipName: "MV Pacific Trader", MinInvestment: 165000, TechnicalRating: "8.1/10",
				Financials: &ad.Financials{BaseCaseIRR: 18.5, MOIC: 2.05}},
		},
		InvestorProfile: &ad.InvestorProfile{
			RiskTolerance:     ad.RiskModerate,
			InvestmentHorizon: ad.HorizonMedium,
			Priority:          ad.PriorityBalance,
			InvestmentAmount:  150000,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ad.ID("1"), output.RecommendedDeal)
	assert.Equal(t, 82, output.Confidence)
	assert.Equal(t, 1, chat.calls)
}

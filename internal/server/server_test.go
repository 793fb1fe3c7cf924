package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	approvalservice "github.com/aquaserve/poolops/internal/approval/service"
	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/config"
	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	"github.com/aquaserve/poolops/internal/estimate/render"
	estimaterepository "github.com/aquaserve/poolops/internal/estimate/repository"
	estimateservice "github.com/aquaserve/poolops/internal/estimate/service"
	"github.com/aquaserve/poolops/internal/providers/email"
	repairjobdomain "github.com/aquaserve/poolops/internal/repairjob/domain"
	repairjobrepository "github.com/aquaserve/poolops/internal/repairjob/repository"
	repairjobservice "github.com/aquaserve/poolops/internal/repairjob/service"
	"github.com/aquaserve/poolops/pkg/db"
)

type stubPDF struct{}

func (stubPDF) RenderEstimate(ctx context.Context, estimate estimatedomain.Estimate) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

type serverEnv struct {
	srv *Server
	db  *gorm.DB
	clk *clock.FakeClock
}

func newTestServer(t *testing.T) *serverEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&estimatedomain.Estimate{},
		&estimatedomain.EstimateLineItem{},
		&repairjobdomain.RepairJob{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	workflow := config.NewStaticWorkflowConfigHolder(config.DefaultWorkflowConfig())
	cfg := config.Config{PublicBaseURL: "https://poolops.example.com"}
	repo := estimaterepository.Provide()

	tokens := approvalservice.New(approvalservice.Params{
		DB:       dbConn,
		Clock:    clk,
		Workflow: workflow,
		Repo:     repo,
	})
	repairJobs := repairjobservice.New(repairjobservice.Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		Clock: clk,
		GenID: node,
		Repo:  repairjobrepository.Provide(),
	})
	estimates := estimateservice.New(estimateservice.Params{
		DB:        dbConn,
		Log:       zap.NewNop(),
		Clock:     clk,
		GenID:     node,
		Cfg:       cfg,
		Workflow:  workflow,
		Repo:      repo,
		Tokens:    tokens,
		RepairJob: repairJobs,
		Email:     &email.NoOpProvider{},
		PDF:       stubPDF{},
		Renderer:  render.NewRenderer(),
	})

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:          r,
		Cfg:          cfg,
		DB:           dbConn,
		EstimateSvc:  estimates,
		RepairJobSvc: repairJobs,
		MetricsReg:   prometheus.NewRegistry(),
	})

	return &serverEnv{srv: srv, db: dbConn, clk: clk}
}

func (env *serverEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.srv.Engine().ServeHTTP(rec, req)
	return rec
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope dataEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func createEstimatePayload() map[string]any {
	return map[string]any{
		"estimate_number": "2025-014",
		"title":           "Replace pool pump",
		"customer_name":   "Dana Whitfield",
		"customer_email":  "dana@example.com",
		"property_id":     "prop-9",
		"tax_rate_bps":    800,
		"line_items": []map[string]any{
			{"name": "Pump install", "quantity": 2, "unit_rate": 5000, "taxable": true},
		},
	}
}

func (env *serverEnv) createEstimate(t *testing.T) estimatedomain.Estimate {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/estimates", createEstimatePayload())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var estimate estimatedomain.Estimate
	decodeData(t, rec, &estimate)
	return estimate
}

func (env *serverEnv) tokenFor(t *testing.T, id snowflake.ID) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/estimates/"+id.String()+"/send-for-approval", map[string]any{
		"email": "dana@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var row estimatedomain.Estimate
	require.NoError(t, env.db.Where("id = ?", id).First(&row).Error)
	require.NotNil(t, row.ApprovalToken)
	return *row.ApprovalToken
}

func TestCreateAndGetEstimate(t *testing.T) {
	env := newTestServer(t)
	created := env.createEstimate(t)

	assert.Equal(t, estimatedomain.StatusDraft, created.Status)
	assert.Equal(t, int64(10800), created.TotalAmount)

	rec := env.do(t, http.MethodGet, "/api/estimates/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched estimatedomain.Estimate
	decodeData(t, rec, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	require.Len(t, fetched.LineItems, 1)
}

func TestGetEstimateNotFound(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/estimates/123456789", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Type)
}

func TestCreateEstimateValidationError(t *testing.T) {
	env := newTestServer(t)

	payload := createEstimatePayload()
	payload["line_items"] = []map[string]any{{"name": "", "quantity": 1, "unit_rate": 100}}

	rec := env.do(t, http.MethodPost, "/api/estimates", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payloadErr := decodeError(t, rec)
	assert.Equal(t, "validation_error", payloadErr.Type)
	require.Len(t, payloadErr.Errors, 1)
	assert.Equal(t, "invalid_line_item", payloadErr.Errors[0].Code)
	assert.Equal(t, "line_item", payloadErr.Errors[0].Field)
}

func TestSendForApprovalBadEmail(t *testing.T) {
	env := newTestServer(t)
	created := env.createEstimate(t)

	rec := env.do(t, http.MethodPost, "/api/estimates/"+created.ID.String()+"/send-for-approval", map[string]any{
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payloadErr := decodeError(t, rec)
	require.Len(t, payloadErr.Errors, 1)
	assert.Equal(t, "invalid_email", payloadErr.Errors[0].Code)
}

func TestPublicApprovalFlow(t *testing.T) {
	env := newTestServer(t)
	created := env.createEstimate(t)
	token := env.tokenFor(t, created.ID)

	rec := env.do(t, http.MethodGet, "/public/estimates/approve/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var review estimatedomain.ApprovalOutcome
	decodeData(t, rec, &review)
	assert.False(t, review.AlreadyProcessed)

	rec = env.do(t, http.MethodPost, "/public/estimates/approve/"+token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/public/estimates/approve/"+token, map[string]any{
		"approver_name": "Dana Whitfield",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome estimatedomain.ApprovalOutcome
	decodeData(t, rec, &outcome)
	assert.Equal(t, "approved", outcome.Action)
	assert.Equal(t, estimatedomain.StatusNeedsScheduling, outcome.Estimate.Status)

	// Replaying the link is a success, not an error.
	rec = env.do(t, http.MethodPost, "/public/estimates/approve/"+token, map[string]any{
		"approver_name": "Dana Whitfield",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &outcome)
	assert.True(t, outcome.AlreadyProcessed)
	assert.Equal(t, "approved", outcome.Action)
}

func TestPublicApprovalExpiredToken(t *testing.T) {
	env := newTestServer(t)
	created := env.createEstimate(t)
	token := env.tokenFor(t, created.ID)

	env.clk.Advance(31 * 24 * time.Hour)

	rec := env.do(t, http.MethodPost, "/public/estimates/approve/"+token, map[string]any{
		"approver_name": "Dana Whitfield",
	})
	require.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "token_expired", decodeError(t, rec).Type)
}

func TestPublicApprovalUnknownToken(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/public/estimates/approve/bogus", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleWrongStateConflict(t *testing.T) {
	env := newTestServer(t)
	created := env.createEstimate(t)

	rec := env.do(t, http.MethodPatch, "/api/estimates/"+created.ID.String()+"/schedule", map[string]any{
		"repair_tech_id":   "tech-7",
		"repair_tech_name": "Miguel Ortiz",
		"scheduled_date":   env.clk.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decodeError(t, rec).Type)
}

func TestScheduleAndListRepairJobs(t *testing.T) {
	env := newTestServer(t)
	created := env.createEstimate(t)
	token := env.tokenFor(t, created.ID)

	rec := env.do(t, http.MethodPost, "/public/estimates/approve/"+token, map[string]any{
		"approver_name": "Dana Whitfield",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/estimates/"+created.ID.String()+"/schedule", map[string]any{
		"repair_tech_id":   "tech-7",
		"repair_tech_name": "Miguel Ortiz",
		"scheduled_date":   env.clk.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"deadline_unit":    "days",
		"deadline_value":   2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp estimatedomain.ScheduleResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, estimatedomain.StatusScheduled, resp.Estimate.Status)
	assert.Equal(t, "EST-2025-014", resp.RepairJob.JobNumber)

	rec = env.do(t, http.MethodGet, "/api/repair-jobs?estimate_id="+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs repairjobdomain.ListJobResponse
	decodeData(t, rec, &jobs)
	require.Len(t, jobs.RepairJobs, 1)
	assert.Equal(t, resp.RepairJob.ID, jobs.RepairJobs[0].ID)

	rec = env.do(t, http.MethodGet, "/api/repair-jobs/"+resp.RepairJob.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListEstimatesByProperty(t *testing.T) {
	env := newTestServer(t)
	env.createEstimate(t)

	rec := env.do(t, http.MethodGet, "/api/estimates/property/prop-9", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp estimatedomain.ListEstimateResponse
	decodeData(t, rec, &resp)
	require.Len(t, resp.Estimates, 1)

	rec = env.do(t, http.MethodGet, "/api/estimates/property/prop-404", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &resp)
	assert.Empty(t, resp.Estimates)
}

func TestListEstimatesInvalidStatus(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/estimates?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payloadErr := decodeError(t, rec)
	require.Len(t, payloadErr.Errors, 1)
	assert.Equal(t, "invalid_status", payloadErr.Errors[0].Code)
}

func TestDeleteEstimate(t *testing.T) {
	env := newTestServer(t)
	created := env.createEstimate(t)

	rec := env.do(t, http.MethodDelete, "/api/estimates/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/estimates/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

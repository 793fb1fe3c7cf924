package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/repairjob/domain"
	"github.com/aquaserve/poolops/internal/repairjob/repository"
	"github.com/aquaserve/poolops/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.RepairJob{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, dbConn
}

func createJob(t *testing.T, svc domain.Service, dbConn *gorm.DB, estimateID snowflake.ID, techID string) domain.RepairJob {
	t.Helper()

	job, err := svc.CreateLinked(context.Background(), dbConn, domain.NewJobInput{
		EstimateID:     estimateID,
		EstimateNumber: "2025-014",
		PropertyID:     "prop-9",
		PropertyName:   "Whitfield Residence",
		CustomerID:     "cust-1",
		CustomerName:   "Dana Whitfield",
		TechnicianID:   techID,
		TechnicianName: "Miguel Ortiz",
		ScheduledDate:  time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
		Description:    "Replace pool pump",
		TotalAmount:    10800,
	})
	require.NoError(t, err)
	return job
}

func TestCreateLinked(t *testing.T) {
	svc, dbConn := newTestService(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	estimateID := node.Generate()

	job := createJob(t, svc, dbConn, estimateID, "tech-7")

	assert.Equal(t, "EST-2025-014", job.JobNumber)
	assert.Equal(t, estimateID, job.EstimateID)
	assert.Equal(t, domain.JobStatusInProgress, job.Status)
	assert.Equal(t, int64(10800), job.TotalAmount)
	require.NotNil(t, job.ScheduledDate)
}

func TestGetByID(t *testing.T) {
	svc, dbConn := newTestService(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	job := createJob(t, svc, dbConn, node.Generate(), "tech-7")

	fetched, err := svc.GetByID(context.Background(), job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, job.ID, fetched.ID)

	_, err = svc.GetByID(context.Background(), "999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(context.Background(), "not-a-snowflake")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	svc, dbConn := newTestService(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	first := node.Generate()
	second := node.Generate()

	createJob(t, svc, dbConn, first, "tech-7")
	createJob(t, svc, dbConn, second, "tech-8")

	resp, err := svc.List(context.Background(), domain.ListJobRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.RepairJobs, 2)

	resp, err = svc.List(context.Background(), domain.ListJobRequest{EstimateID: first.String()})
	require.NoError(t, err)
	require.Len(t, resp.RepairJobs, 1)
	assert.Equal(t, first, resp.RepairJobs[0].EstimateID)

	resp, err = svc.List(context.Background(), domain.ListJobRequest{Status: string(domain.JobStatusCancelled)})
	require.NoError(t, err)
	assert.Empty(t, resp.RepairJobs)
}

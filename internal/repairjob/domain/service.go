package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not_found")
)

// NewJobInput carries everything the linker copies from the estimate.
type NewJobInput struct {
	EstimateID     snowflake.ID
	EstimateNumber string
	PropertyID     string
	PropertyName   string
	CustomerID     string
	CustomerName   string
	TechnicianID   string
	TechnicianName string
	ScheduledDate  time.Time
	Description    string
	TotalAmount    int64
}

type ListJobRequest struct {
	Status     string `form:"status"`
	EstimateID string `form:"estimate_id"`
}

type ListJobResponse struct {
	RepairJobs []RepairJob `json:"repair_jobs"`
}

// Service creates and reads repair jobs. CreateLinked and DeleteForEstimate
// run against the caller's database handle so the estimate transitions can
// wrap them in a transaction with the estimate write.
type Service interface {
	CreateLinked(ctx context.Context, db *gorm.DB, input NewJobInput) (RepairJob, error)
	DeleteForEstimate(ctx context.Context, db *gorm.DB, estimateID snowflake.ID) error
	GetByID(ctx context.Context, id string) (RepairJob, error)
	List(ctx context.Context, req ListJobRequest) (ListJobResponse, error)
}

// Repository persists repair jobs.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *RepairJob) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RepairJob, error)
	List(ctx context.Context, db *gorm.DB, filter ListJobRequest) ([]*RepairJob, error)
	DeleteByEstimateID(ctx context.Context, db *gorm.DB, estimateID snowflake.ID) error
}

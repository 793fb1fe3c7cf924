package service

import (
	"context"

	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/estimate/format"
	"github.com/aquaserve/poolops/internal/repairjob/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("repairjob.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// CreateLinked builds and persists the job for a newly scheduled estimate.
// Runs against the caller's handle so the schedule transition owns the
// transaction boundary.
func (s *Service) CreateLinked(ctx context.Context, db *gorm.DB, input domain.NewJobInput) (domain.RepairJob, error) {
	now := s.clock.Now().UTC()
	scheduledDate := input.ScheduledDate
	job := domain.RepairJob{
		ID:             s.genID.Generate(),
		JobNumber:      format.JobNumber(input.EstimateNumber, input.EstimateID),
		EstimateID:     input.EstimateID,
		PropertyID:     input.PropertyID,
		PropertyName:   input.PropertyName,
		CustomerID:     input.CustomerID,
		CustomerName:   input.CustomerName,
		TechnicianID:   input.TechnicianID,
		TechnicianName: input.TechnicianName,
		ScheduledDate:  &scheduledDate,
		Description:    input.Description,
		TotalAmount:    input.TotalAmount,
		Status:         domain.JobStatusInProgress,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, db, &job); err != nil {
		return domain.RepairJob{}, err
	}

	s.log.Info("repair job created",
		zap.String("job_id", job.ID.String()),
		zap.String("job_number", job.JobNumber),
		zap.String("estimate_id", input.EstimateID.String()),
		zap.Time("scheduled_date", scheduledDate),
	)
	return job, nil
}

// DeleteForEstimate removes the jobs linked to an estimate. Runs against
// the caller's handle so estimate deletion owns the transaction boundary.
func (s *Service) DeleteForEstimate(ctx context.Context, db *gorm.DB, estimateID snowflake.ID) error {
	return s.repo.DeleteByEstimateID(ctx, db, estimateID)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.RepairJob, error) {
	jobID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.RepairJob{}, domain.ErrNotFound
	}

	job, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return domain.RepairJob{}, err
	}
	if job == nil {
		return domain.RepairJob{}, domain.ErrNotFound
	}
	return *job, nil
}

func (s *Service) List(ctx context.Context, req domain.ListJobRequest) (domain.ListJobResponse, error) {
	items, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return domain.ListJobResponse{}, err
	}

	jobs := make([]domain.RepairJob, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		jobs = append(jobs, *item)
	}
	return domain.ListJobResponse{RepairJobs: jobs}, nil
}

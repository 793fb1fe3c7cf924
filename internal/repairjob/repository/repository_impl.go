package repository

import (
	"context"
	"errors"

	"github.com/aquaserve/poolops/internal/repairjob/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.RepairJob) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RepairJob, error) {
	var job domain.RepairJob
	err := db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repo) DeleteByEstimateID(ctx context.Context, db *gorm.DB, estimateID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Delete(&domain.RepairJob{}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListJobRequest) ([]*domain.RepairJob, error) {
	stmt := db.WithContext(ctx).Model(&domain.RepairJob{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.EstimateID != "" {
		estimateID, err := snowflake.ParseString(filter.EstimateID)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		stmt = stmt.Where("estimate_id = ?", estimateID)
	}

	var jobs []*domain.RepairJob
	err := stmt.
		Order("created_at desc, id desc").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

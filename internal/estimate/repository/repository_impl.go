package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aquaserve/poolops/internal/estimate/domain"
	"github.com/aquaserve/poolops/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, estimate *domain.Estimate) error {
	return db.WithContext(ctx).Create(estimate).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Estimate, error) {
	var estimate domain.Estimate
	err := db.WithContext(ctx).
		Preload("LineItems", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc")
		}).
		First(&estimate, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Estimate, error) {
	var estimate domain.Estimate
	err := db.WithContext(ctx).
		Preload("LineItems", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc")
		}).
		First(&estimate, "approval_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Estimate, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Preload("LineItems", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc")
		})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PropertyID != "" {
		stmt = stmt.Where("property_id = ?", filter.PropertyID)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		cursorID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, cursorID)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}

	var estimates []*domain.Estimate
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&estimates).Error
	if err != nil {
		return nil, err
	}
	return estimates, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, estimate *domain.Estimate) error {
	return db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Where("id = ?", estimate.ID).
		Select("*").
		Omit("id", "created_at", "LineItems").
		Updates(estimate).Error
}

func (r *repo) UpdateWithStatusGuard(ctx context.Context, db *gorm.DB, estimate *domain.Estimate, expected domain.Status) error {
	result := db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Where("id = ? AND status = ?", estimate.ID, expected).
		Select("*").
		Omit("id", "created_at", "LineItems").
		Updates(estimate)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, estimateID snowflake.ID, items []domain.EstimateLineItem) error {
	if err := db.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Delete(&domain.EstimateLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("estimate_id = ?", id).
		Delete(&domain.EstimateLineItem{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Delete(&domain.Estimate{}, "id = ?", id).Error
}

func (r *repo) FindExpiredScheduled(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*domain.Estimate, error) {
	var estimates []*domain.Estimate
	err := db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Where("status = ? AND deadline_at IS NOT NULL AND deadline_at < ?", domain.StatusScheduled, now).
		Order("deadline_at asc").
		Limit(limit).
		Find(&estimates).Error
	if err != nil {
		return nil, err
	}
	return estimates, nil
}

package domain

import (
	"context"
	"time"

	"github.com/aquaserve/poolops/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows estimate listings.
type ListFilter struct {
	Status     Status
	PropertyID string
}

// Repository persists estimates. Implementations take the database handle
// per call so services can run them inside transactions.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, estimate *Estimate) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Estimate, error)
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*Estimate, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Estimate, error)
	Update(ctx context.Context, db *gorm.DB, estimate *Estimate) error

	// UpdateWithStatusGuard persists the estimate only if its stored status
	// still equals expected. Returns ErrConflict when the row moved on.
	UpdateWithStatusGuard(ctx context.Context, db *gorm.DB, estimate *Estimate, expected Status) error

	ReplaceItems(ctx context.Context, db *gorm.DB, estimateID snowflake.ID, items []EstimateLineItem) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// FindExpiredScheduled returns scheduled estimates whose deadline
	// elapsed before now, oldest deadline first, capped at limit.
	FindExpiredScheduled(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*Estimate, error)
}

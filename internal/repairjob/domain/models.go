// Package domain contains persistence models and contracts for repair jobs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// JobStatus represents repair job execution states.
type JobStatus string

const (
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// RepairJob tracks execution of work approved on an estimate. The estimate
// keeps a weak reference to the job; the job owns the estimate id.
type RepairJob struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	JobNumber  string       `gorm:"type:text;not null;default:''" json:"job_number"`
	EstimateID snowflake.ID `gorm:"not null;index" json:"estimate_id"`

	PropertyID   string `gorm:"type:text;not null;default:''" json:"property_id"`
	PropertyName string `gorm:"type:text;not null;default:''" json:"property_name"`
	CustomerID   string `gorm:"type:text;not null;default:''" json:"customer_id"`
	CustomerName string `gorm:"type:text;not null;default:''" json:"customer_name"`

	TechnicianID   string     `gorm:"type:text;not null;default:''" json:"technician_id"`
	TechnicianName string     `gorm:"type:text;not null;default:''" json:"technician_name"`
	ScheduledDate  *time.Time `gorm:"" json:"scheduled_date,omitempty"`

	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	TotalAmount int64     `gorm:"not null;default:0" json:"total_amount"`
	Status      JobStatus `gorm:"type:text;not null;default:'in_progress';index" json:"status"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (RepairJob) TableName() string { return "repair_jobs" }

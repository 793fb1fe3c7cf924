// Package domain contains persistence models and contracts for the
// estimate approval workflow.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status represents estimate lifecycle states.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusNeedsScheduling Status = "needs_scheduling"
	StatusRejected        Status = "rejected"
	StatusScheduled       Status = "scheduled"
	StatusCompleted       Status = "completed"
	StatusReadyToInvoice  Status = "ready_to_invoice"
	StatusInvoiced        Status = "invoiced"
)

// transitions is the closed catalog of allowed status moves. Anything not
// listed here is refused by the service with ErrInvalidState.
var transitions = map[Status][]Status{
	StatusDraft:           {StatusPendingApproval},
	StatusPendingApproval: {StatusPendingApproval, StatusNeedsScheduling, StatusRejected},
	StatusRejected:        {StatusPendingApproval},
	StatusNeedsScheduling: {StatusScheduled},
	StatusScheduled:       {StatusCompleted, StatusNeedsScheduling},
	StatusCompleted:       {StatusReadyToInvoice},
	StatusReadyToInvoice:  {StatusInvoiced},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known lifecycle state.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusNeedsScheduling, StatusRejected,
		StatusScheduled, StatusCompleted, StatusReadyToInvoice, StatusInvoiced:
		return true
	default:
		return false
	}
}

// IsDecided reports whether the status carries a customer decision.
func (s Status) IsDecided() bool {
	switch s {
	case StatusNeedsScheduling, StatusScheduled, StatusCompleted,
		StatusReadyToInvoice, StatusInvoiced, StatusRejected:
		return true
	default:
		return false
	}
}

// DiscountType determines how DiscountValue is interpreted.
type DiscountType string

const (
	DiscountNone    DiscountType = "none"
	DiscountPercent DiscountType = "percent" // value in basis points
	DiscountFlat    DiscountType = "flat"    // value in minor units
)

// Estimate is the aggregate root of the approval workflow.
type Estimate struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	EstimateNumber string       `gorm:"type:text;not null;default:''" json:"estimate_number"`
	Title          string       `gorm:"type:text;not null;default:''" json:"title"`
	Description    string       `gorm:"type:text;not null;default:''" json:"description"`

	CustomerID    string `gorm:"type:text;not null;default:'';index" json:"customer_id"`
	CustomerName  string `gorm:"type:text;not null;default:''" json:"customer_name"`
	CustomerEmail string `gorm:"type:text;not null;default:''" json:"customer_email"`
	PropertyID    string `gorm:"type:text;not null;default:'';index" json:"property_id"`
	PropertyName  string `gorm:"type:text;not null;default:''" json:"property_name"`

	Status Status `gorm:"type:text;not null;default:'draft';index" json:"status"`

	Subtotal        int64        `gorm:"not null;default:0" json:"subtotal"`
	DiscountType    DiscountType `gorm:"type:text;not null;default:'none'" json:"discount_type"`
	DiscountValue   int64        `gorm:"not null;default:0" json:"discount_value"`
	DiscountAmount  int64        `gorm:"not null;default:0" json:"discount_amount"`
	TaxableSubtotal int64        `gorm:"not null;default:0" json:"taxable_subtotal"`
	TaxRateBps      int64        `gorm:"not null;default:0" json:"tax_rate_bps"`
	TaxAmount       int64        `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount     int64        `gorm:"not null;default:0" json:"total_amount"`

	ApprovalToken          *string    `gorm:"type:text;uniqueIndex" json:"-"`
	ApprovalTokenExpiresAt *time.Time `gorm:"" json:"approval_token_expires_at,omitempty"`
	ApprovalSentTo         *string    `gorm:"type:text" json:"approval_sent_to,omitempty"`
	ApprovalSentAt         *time.Time `gorm:"" json:"approval_sent_at,omitempty"`
	ApprovalCycle          int64      `gorm:"not null;default:0" json:"approval_cycle"`
	DecidedCycle           *int64     `gorm:"" json:"decided_cycle,omitempty"`

	CustomerApproverName  *string `gorm:"type:text" json:"customer_approver_name,omitempty"`
	CustomerApproverTitle *string `gorm:"type:text" json:"customer_approver_title,omitempty"`
	RejectionReason       *string `gorm:"type:text" json:"rejection_reason,omitempty"`

	RepairTechID        *string       `gorm:"type:text" json:"repair_tech_id,omitempty"`
	RepairTechName      *string       `gorm:"type:text" json:"repair_tech_name,omitempty"`
	ScheduledDate       *time.Time    `gorm:"" json:"scheduled_date,omitempty"`
	ScheduledAt         *time.Time    `gorm:"" json:"scheduled_at,omitempty"`
	ScheduledByUserID   *string       `gorm:"type:text" json:"scheduled_by_user_id,omitempty"`
	ScheduledByUserName *string       `gorm:"type:text" json:"scheduled_by_user_name,omitempty"`
	DeadlineAt          *time.Time    `gorm:"index" json:"deadline_at,omitempty"`
	DeadlineUnit        *string       `gorm:"type:text" json:"deadline_unit,omitempty"`
	DeadlineValue       *int64        `gorm:"" json:"deadline_value,omitempty"`
	AssignedRepairJobID *snowflake.ID `gorm:"" json:"assigned_repair_job_id,omitempty"`

	InvoiceID   *string    `gorm:"type:text" json:"invoice_id,omitempty"`
	ApprovedAt  *time.Time `gorm:"" json:"approved_at,omitempty"`
	RejectedAt  *time.Time `gorm:"" json:"rejected_at,omitempty"`
	CompletedAt *time.Time `gorm:"" json:"completed_at,omitempty"`
	InvoicedAt  *time.Time `gorm:"" json:"invoiced_at,omitempty"`

	AutoReturnedAt     *time.Time `gorm:"" json:"auto_returned_at,omitempty"`
	AutoReturnedReason *string    `gorm:"type:text" json:"auto_returned_reason,omitempty"`

	LineItems []EstimateLineItem `gorm:"foreignKey:EstimateID" json:"line_items"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Estimate) TableName() string { return "estimates" }

// TokenExpired reports whether the approval token is past its expiry.
func (e *Estimate) TokenExpired(now time.Time) bool {
	return e.ApprovalTokenExpiresAt != nil && now.After(*e.ApprovalTokenExpiresAt)
}

// DecisionRecorded reports whether the current approval cycle already
// carries a customer or staff decision.
func (e *Estimate) DecisionRecorded() bool {
	return e.DecidedCycle != nil && *e.DecidedCycle == e.ApprovalCycle
}

// DecisionAction names the decision recorded on the estimate, if any.
func (e *Estimate) DecisionAction() string {
	switch {
	case e.RejectedAt != nil && e.Status == StatusRejected:
		return "rejected"
	case e.ApprovedAt != nil:
		return "approved"
	default:
		return ""
	}
}

// EstimateLineItem is one priced line on an estimate.
type EstimateLineItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	EstimateID  snowflake.ID `gorm:"not null;index" json:"estimate_id"`
	Position    int64        `gorm:"not null;default:0" json:"position"`
	Name        string       `gorm:"type:text;not null;default:''" json:"name"`
	Description string       `gorm:"type:text;not null;default:''" json:"description"`
	Quantity    int64        `gorm:"not null;default:1" json:"quantity"`
	UnitRate    int64        `gorm:"not null;default:0" json:"unit_rate"`
	Amount      int64        `gorm:"not null;default:0" json:"amount"`
	Taxable     bool         `gorm:"not null;default:true" json:"taxable"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (EstimateLineItem) TableName() string { return "estimate_line_items" }

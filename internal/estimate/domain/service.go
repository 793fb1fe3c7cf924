package domain

import (
	"context"
	"errors"
	"time"

	repairjobdomain "github.com/aquaserve/poolops/internal/repairjob/domain"
	"github.com/aquaserve/poolops/pkg/db/pagination"
)

var (
	ErrNotFound          = errors.New("not_found")
	ErrTokenExpired      = errors.New("token_expired")
	ErrInvalidState      = errors.New("invalid_state")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidApprover   = errors.New("invalid_approver_name")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidLineItem   = errors.New("invalid_line_item")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTechnician = errors.New("invalid_technician")
	ErrInvalidSchedule   = errors.New("invalid_schedule_date")
	ErrInvalidInvoiceID  = errors.New("invalid_invoice_id")
	ErrRenderFailed      = errors.New("render_failed")
	ErrSendFailed        = errors.New("send_failed")
	ErrConflict          = errors.New("status_conflict")
)

// LineItemInput is the write shape for a single estimate line.
type LineItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitRate    int64  `json:"unit_rate"`
	Taxable     bool   `json:"taxable"`
}

type CreateEstimateRequest struct {
	EstimateNumber string          `json:"estimate_number"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	PropertyID     string          `json:"property_id"`
	PropertyName   string          `json:"property_name"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  int64           `json:"discount_value"`
	TaxRateBps     *int64          `json:"tax_rate_bps"`
	LineItems      []LineItemInput `json:"line_items"`
}

type UpdateEstimateRequest struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	CustomerName  *string         `json:"customer_name"`
	CustomerEmail *string         `json:"customer_email"`
	PropertyName  *string         `json:"property_name"`
	DiscountType  *DiscountType   `json:"discount_type"`
	DiscountValue *int64          `json:"discount_value"`
	TaxRateBps    *int64          `json:"tax_rate_bps"`
	LineItems     []LineItemInput `json:"line_items"`
}

type ListEstimateRequest struct {
	pagination.Pagination
	Status     string `form:"status"`
	PropertyID string `form:"property_id"`
}

type ListEstimateResponse struct {
	PageInfo  pagination.PageInfo `json:"page_info"`
	Estimates []Estimate          `json:"estimates"`
}

type SendForApprovalRequest struct {
	Email string `json:"email"`
}

type DecisionRequest struct {
	ApproverName    string `json:"approver_name"`
	ApproverTitle   string `json:"approver_title"`
	RejectionReason string `json:"rejection_reason"`
}

// ApprovalOutcome is the success-shaped result of the public token
// endpoints. AlreadyProcessed with a non-empty Action means a replayed
// link; the estimate was not mutated.
type ApprovalOutcome struct {
	Estimate         Estimate `json:"estimate"`
	AlreadyProcessed bool     `json:"already_processed"`
	Action           string   `json:"action,omitempty"`
}

type ScheduleRequest struct {
	RepairTechID        string     `json:"repair_tech_id"`
	RepairTechName      string     `json:"repair_tech_name"`
	ScheduledDate       time.Time  `json:"scheduled_date"`
	ScheduledByUserID   string     `json:"scheduled_by_user_id"`
	ScheduledByUserName string     `json:"scheduled_by_user_name"`
	DeadlineAt          *time.Time `json:"deadline_at"`
	DeadlineUnit        string     `json:"deadline_unit"`
	DeadlineValue       *int64     `json:"deadline_value"`
}

type ScheduleResponse struct {
	Estimate  Estimate                  `json:"estimate"`
	RepairJob repairjobdomain.RepairJob `json:"repair_job"`
}

type InvoiceRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// SweepResult summarizes one deadline sweep pass.
type SweepResult struct {
	Examined  int
	Reverted  int
	Conflicts int
}

// Service is the lifecycle engine: every status move goes through it.
type Service interface {
	Create(ctx context.Context, req CreateEstimateRequest) (Estimate, error)
	Update(ctx context.Context, id string, req UpdateEstimateRequest) (Estimate, error)
	GetByID(ctx context.Context, id string) (Estimate, error)
	List(ctx context.Context, req ListEstimateRequest) (ListEstimateResponse, error)
	Delete(ctx context.Context, id string) error

	SendForApproval(ctx context.Context, id string, req SendForApprovalRequest) (Estimate, error)
	ReviewByToken(ctx context.Context, token string) (ApprovalOutcome, error)
	ApproveByToken(ctx context.Context, token string, req DecisionRequest) (ApprovalOutcome, error)
	RejectByToken(ctx context.Context, token string, req DecisionRequest) (ApprovalOutcome, error)
	ManualApprove(ctx context.Context, id string) (Estimate, error)
	ManualReject(ctx context.Context, id string, reason string) (Estimate, error)

	Schedule(ctx context.Context, id string, req ScheduleRequest) (ScheduleResponse, error)
	Complete(ctx context.Context, id string) (Estimate, error)
	ReadyToInvoice(ctx context.Context, id string) (Estimate, error)
	Invoice(ctx context.Context, id string, req InvoiceRequest) (Estimate, error)

	RevertExpiredDeadlines(ctx context.Context, now time.Time, batchSize int) (SweepResult, error)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	approvaldomain "github.com/aquaserve/poolops/internal/approval/domain"
	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/config"
	"github.com/aquaserve/poolops/internal/estimate/domain"
	"github.com/aquaserve/poolops/internal/estimate/render"
	"github.com/aquaserve/poolops/internal/providers/email"
	"github.com/aquaserve/poolops/internal/providers/pdf"
	repairjobdomain "github.com/aquaserve/poolops/internal/repairjob/domain"
	"github.com/aquaserve/poolops/pkg/db"
	"github.com/aquaserve/poolops/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const autoReturnReason = "scheduling_deadline_expired"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Cfg       config.Config
	Workflow  *config.WorkflowConfigHolder
	Repo      domain.Repository
	Tokens    approvaldomain.TokenService
	RepairJob repairjobdomain.Service
	Email     email.Provider
	PDF       pdf.Provider
	Renderer  render.Renderer
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	cfg       config.Config
	workflow  *config.WorkflowConfigHolder
	repo      domain.Repository
	tokens    approvaldomain.TokenService
	repairJob repairjobdomain.Service
	email     email.Provider
	pdf       pdf.Provider
	renderer  render.Renderer
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("estimate.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		cfg:       p.Cfg,
		workflow:  p.Workflow,
		repo:      p.Repo,
		tokens:    p.Tokens,
		repairJob: p.RepairJob,
		email:     p.Email,
		pdf:       p.PDF,
		renderer:  p.Renderer,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateEstimateRequest) (domain.Estimate, error) {
	items, err := s.buildItems(req.LineItems)
	if err != nil {
		return domain.Estimate{}, err
	}

	taxRate := s.workflow.Current().DefaultTaxRateBps
	if req.TaxRateBps != nil {
		taxRate = *req.TaxRateBps
	}
	discountType := req.DiscountType
	if discountType == "" {
		discountType = domain.DiscountNone
	}

	now := s.clock.Now().UTC()
	estimate := domain.Estimate{
		ID:             s.genID.Generate(),
		EstimateNumber: strings.TrimSpace(req.EstimateNumber),
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		CustomerID:     strings.TrimSpace(req.CustomerID),
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
		PropertyID:     strings.TrimSpace(req.PropertyID),
		PropertyName:   strings.TrimSpace(req.PropertyName),
		Status:         domain.StatusDraft,
		DiscountType:   discountType,
		DiscountValue:  req.DiscountValue,
		TaxRateBps:     taxRate,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for i := range items {
		items[i].EstimateID = estimate.ID
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
	}
	estimate.LineItems = items
	domain.ComputeTotals(items, discountType, req.DiscountValue, taxRate).Apply(&estimate)

	if err := s.repo.Insert(ctx, s.db, &estimate); err != nil {
		return domain.Estimate{}, err
	}

	s.log.Info("estimate created",
		zap.String("estimate_id", estimate.ID.String()),
		zap.Int64("total_amount", estimate.TotalAmount),
	)
	return estimate, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateEstimateRequest) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}

	if estimate.Status != domain.StatusDraft && estimate.Status != domain.StatusRejected {
		return domain.Estimate{}, domain.ErrInvalidState
	}

	if req.Title != nil {
		estimate.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		estimate.Description = strings.TrimSpace(*req.Description)
	}
	if req.CustomerName != nil {
		estimate.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerEmail != nil {
		estimate.CustomerEmail = strings.TrimSpace(*req.CustomerEmail)
	}
	if req.PropertyName != nil {
		estimate.PropertyName = strings.TrimSpace(*req.PropertyName)
	}
	if req.DiscountType != nil {
		estimate.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		estimate.DiscountValue = *req.DiscountValue
	}
	if req.TaxRateBps != nil {
		estimate.TaxRateBps = *req.TaxRateBps
	}

	now := s.clock.Now().UTC()
	items := estimate.LineItems
	if req.LineItems != nil {
		items, err = s.buildItems(req.LineItems)
		if err != nil {
			return domain.Estimate{}, err
		}
		for i := range items {
			items[i].EstimateID = estimate.ID
			items[i].CreatedAt = now
			items[i].UpdatedAt = now
		}
	}

	domain.ComputeTotals(items, estimate.DiscountType, estimate.DiscountValue, estimate.TaxRateBps).Apply(estimate)
	estimate.UpdatedAt = now
	estimate.LineItems = items

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.LineItems != nil {
			if err := s.repo.ReplaceItems(ctx, tx, estimate.ID, items); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, tx, estimate)
	})
	if err != nil {
		return domain.Estimate{}, err
	}

	return *estimate, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}
	return *estimate, nil
}

// List returns estimates only; deadline reversion is owned by the periodic
// sweeper, never by read paths.
func (s *Service) List(ctx context.Context, req domain.ListEstimateRequest) (domain.ListEstimateResponse, error) {
	filter := domain.ListFilter{PropertyID: strings.TrimSpace(req.PropertyID)}
	if status := strings.TrimSpace(req.Status); status != "" {
		if !domain.IsValidStatus(domain.Status(status)) {
			return domain.ListEstimateResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = domain.Status(status)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListEstimateResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(e *domain.Estimate) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        e.ID.String(),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	estimates := make([]domain.Estimate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		estimates = append(estimates, *item)
	}
	return domain.ListEstimateResponse{PageInfo: *pageInfo, Estimates: estimates}, nil
}

// Delete removes the estimate together with its line items and any linked
// repair job in one transaction, so the foreign keys hold at every point.
func (s *Service) Delete(ctx context.Context, id string) error {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repairJob.DeleteForEstimate(ctx, tx, estimate.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, estimate.ID)
	})
}

// SendForApproval issues a fresh token, dispatches the approval email, and
// commits the pending_approval state only after the send succeeded. A
// render or send failure leaves the estimate untouched.
func (s *Service) SendForApproval(ctx context.Context, id string, req domain.SendForApprovalRequest) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}

	sendTo := strings.TrimSpace(req.Email)
	if sendTo == "" || !strings.Contains(sendTo, "@") {
		return domain.Estimate{}, domain.ErrInvalidEmail
	}

	previous := estimate.Status
	if !domain.CanTransition(previous, domain.StatusPendingApproval) {
		return domain.Estimate{}, domain.ErrInvalidState
	}

	issued, err := s.tokens.Issue(ctx)
	if err != nil {
		return domain.Estimate{}, err
	}

	approveURL := s.cfg.PublicBaseURL + "/public/estimates/approve/" + issued.Token
	declineURL := s.cfg.PublicBaseURL + "/public/estimates/reject/" + issued.Token

	pdfBytes, err := s.pdf.RenderEstimate(ctx, *estimate)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	htmlBody, err := s.renderer.RenderApprovalHTML(*estimate, approveURL, declineURL, issued.ExpiresAt)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}

	number := estimate.EstimateNumber
	if number == "" {
		number = estimate.ID.String()
	}
	subject := "Estimate " + number + " is ready for your approval"
	var attachments []email.Attachment
	if len(pdfBytes) > 0 {
		attachments = append(attachments, email.Attachment{
			Filename:    "estimate-" + number + ".pdf",
			ContentType: "application/pdf",
			Data:        pdfBytes,
		})
	}

	if err := s.email.Send(ctx, []string{sendTo}, subject, htmlBody, attachments); err != nil {
		s.log.Warn("approval email send failed",
			zap.String("estimate_id", estimate.ID.String()),
			zap.Error(err),
		)
		return domain.Estimate{}, fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}

	now := s.clock.Now().UTC()
	estimate.Status = domain.StatusPendingApproval
	estimate.ApprovalToken = &issued.Token
	estimate.ApprovalTokenExpiresAt = &issued.ExpiresAt
	estimate.ApprovalSentTo = &sendTo
	estimate.ApprovalSentAt = &now
	estimate.ApprovalCycle++
	estimate.UpdatedAt = now

	if err := s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, previous); err != nil {
		// The approval_token column carries a unique index.
		if db.IsDuplicateKeyErr(err) {
			return domain.Estimate{}, domain.ErrConflict
		}
		return domain.Estimate{}, err
	}

	s.log.Info("estimate sent for approval",
		zap.String("estimate_id", estimate.ID.String()),
		zap.String("sent_to", sendTo),
		zap.Int64("approval_cycle", estimate.ApprovalCycle),
		zap.Time("token_expires_at", issued.ExpiresAt),
	)
	return *estimate, nil
}

// ReviewByToken backs the GET link in the email: it never mutates and
// reports an already-decided estimate as a friendly success.
func (s *Service) ReviewByToken(ctx context.Context, token string) (domain.ApprovalOutcome, error) {
	estimate, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return domain.ApprovalOutcome{}, err
	}

	if estimate.DecisionRecorded() {
		return domain.ApprovalOutcome{
			Estimate:         *estimate,
			AlreadyProcessed: true,
			Action:           estimate.DecisionAction(),
		}, nil
	}

	if err := s.tokens.Validate(estimate, s.clock.Now().UTC()); err != nil {
		return domain.ApprovalOutcome{}, err
	}
	if estimate.Status != domain.StatusPendingApproval {
		return domain.ApprovalOutcome{}, domain.ErrInvalidState
	}

	return domain.ApprovalOutcome{Estimate: *estimate}, nil
}

func (s *Service) ApproveByToken(ctx context.Context, token string, req domain.DecisionRequest) (domain.ApprovalOutcome, error) {
	estimate, err := s.guardDecision(ctx, token)
	if err != nil {
		return domain.ApprovalOutcome{}, err
	}
	if outcome := alreadyProcessed(estimate); outcome != nil {
		return *outcome, nil
	}

	approverName := strings.TrimSpace(req.ApproverName)
	if approverName == "" {
		return domain.ApprovalOutcome{}, domain.ErrInvalidApprover
	}
	approverTitle := strings.TrimSpace(req.ApproverTitle)

	now := s.clock.Now().UTC()
	decided := estimate.ApprovalCycle
	estimate.Status = domain.StatusNeedsScheduling
	estimate.ApprovedAt = &now
	estimate.CustomerApproverName = &approverName
	if approverTitle != "" {
		estimate.CustomerApproverTitle = &approverTitle
	}
	estimate.DecidedCycle = &decided
	estimate.UpdatedAt = now

	if err := s.commitDecision(ctx, estimate); err != nil {
		return s.reloadOutcome(ctx, estimate.ID, err)
	}

	s.log.Info("estimate approved",
		zap.String("estimate_id", estimate.ID.String()),
		zap.String("approver", approverName),
	)
	return domain.ApprovalOutcome{Estimate: *estimate, Action: "approved"}, nil
}

func (s *Service) RejectByToken(ctx context.Context, token string, req domain.DecisionRequest) (domain.ApprovalOutcome, error) {
	estimate, err := s.guardDecision(ctx, token)
	if err != nil {
		return domain.ApprovalOutcome{}, err
	}
	if outcome := alreadyProcessed(estimate); outcome != nil {
		return *outcome, nil
	}

	now := s.clock.Now().UTC()
	decided := estimate.ApprovalCycle
	estimate.Status = domain.StatusRejected
	estimate.RejectedAt = &now
	if name := strings.TrimSpace(req.ApproverName); name != "" {
		estimate.CustomerApproverName = &name
	}
	if title := strings.TrimSpace(req.ApproverTitle); title != "" {
		estimate.CustomerApproverTitle = &title
	}
	if reason := strings.TrimSpace(req.RejectionReason); reason != "" {
		estimate.RejectionReason = &reason
	}
	estimate.DecidedCycle = &decided
	estimate.UpdatedAt = now

	if err := s.commitDecision(ctx, estimate); err != nil {
		return s.reloadOutcome(ctx, estimate.ID, err)
	}

	s.log.Info("estimate rejected",
		zap.String("estimate_id", estimate.ID.String()),
	)
	return domain.ApprovalOutcome{Estimate: *estimate, Action: "rejected"}, nil
}

// ManualApprove is the staff override: no token, no approver identity, and
// no decision guard, so staff can flip a customer rejection without a
// resend cycle. Only invoiced estimates are off limits.
func (s *Service) ManualApprove(ctx context.Context, id string) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}
	if estimate.Status == domain.StatusInvoiced {
		return domain.Estimate{}, domain.ErrInvalidState
	}

	previous := estimate.Status
	now := s.clock.Now().UTC()
	decided := estimate.ApprovalCycle
	estimate.Status = domain.StatusNeedsScheduling
	if estimate.ApprovedAt == nil {
		estimate.ApprovedAt = &now
	}
	estimate.DecidedCycle = &decided
	estimate.UpdatedAt = now

	if err := s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, previous); err != nil {
		return domain.Estimate{}, err
	}

	s.log.Info("estimate manually approved",
		zap.String("estimate_id", estimate.ID.String()),
	)
	return *estimate, nil
}

func (s *Service) ManualReject(ctx context.Context, id string, reason string) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}
	if estimate.Status == domain.StatusInvoiced {
		return domain.Estimate{}, domain.ErrInvalidState
	}

	previous := estimate.Status
	now := s.clock.Now().UTC()
	decided := estimate.ApprovalCycle
	estimate.Status = domain.StatusRejected
	if estimate.RejectedAt == nil {
		estimate.RejectedAt = &now
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		estimate.RejectionReason = &reason
	}
	estimate.DecidedCycle = &decided
	estimate.UpdatedAt = now

	if err := s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, previous); err != nil {
		return domain.Estimate{}, err
	}

	s.log.Info("estimate manually rejected",
		zap.String("estimate_id", estimate.ID.String()),
	)
	return *estimate, nil
}

// Schedule creates the linked repair job and moves the estimate in one
// transaction so the two records cannot diverge.
func (s *Service) Schedule(ctx context.Context, id string, req domain.ScheduleRequest) (domain.ScheduleResponse, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.ScheduleResponse{}, err
	}
	if estimate.Status != domain.StatusNeedsScheduling {
		return domain.ScheduleResponse{}, domain.ErrInvalidState
	}

	techID := strings.TrimSpace(req.RepairTechID)
	techName := strings.TrimSpace(req.RepairTechName)
	if techID == "" || techName == "" {
		return domain.ScheduleResponse{}, domain.ErrInvalidTechnician
	}
	if req.ScheduledDate.IsZero() {
		return domain.ScheduleResponse{}, domain.ErrInvalidSchedule
	}

	now := s.clock.Now().UTC()
	deadlineAt, deadlineUnit, deadlineValue := s.resolveDeadline(req, now)

	estimate.Status = domain.StatusScheduled
	estimate.RepairTechID = &techID
	estimate.RepairTechName = &techName
	scheduledDate := req.ScheduledDate.UTC()
	estimate.ScheduledDate = &scheduledDate
	estimate.ScheduledAt = &now
	if userID := strings.TrimSpace(req.ScheduledByUserID); userID != "" {
		estimate.ScheduledByUserID = &userID
	}
	if userName := strings.TrimSpace(req.ScheduledByUserName); userName != "" {
		estimate.ScheduledByUserName = &userName
	}
	estimate.DeadlineAt = &deadlineAt
	estimate.DeadlineUnit = &deadlineUnit
	estimate.DeadlineValue = &deadlineValue
	estimate.UpdatedAt = now

	var job repairjobdomain.RepairJob
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err = s.repairJob.CreateLinked(ctx, tx, repairjobdomain.NewJobInput{
			EstimateID:     estimate.ID,
			EstimateNumber: estimate.EstimateNumber,
			PropertyID:     estimate.PropertyID,
			PropertyName:   estimate.PropertyName,
			CustomerID:     estimate.CustomerID,
			CustomerName:   estimate.CustomerName,
			TechnicianID:   techID,
			TechnicianName: techName,
			ScheduledDate:  scheduledDate,
			Description:    describeWork(estimate),
			TotalAmount:    estimate.TotalAmount,
		})
		if err != nil {
			return err
		}

		estimate.AssignedRepairJobID = &job.ID
		return s.repo.UpdateWithStatusGuard(ctx, tx, estimate, domain.StatusNeedsScheduling)
	})
	if err != nil {
		return domain.ScheduleResponse{}, err
	}

	s.log.Info("estimate scheduled",
		zap.String("estimate_id", estimate.ID.String()),
		zap.String("repair_job_id", job.ID.String()),
		zap.String("technician", techName),
		zap.Time("deadline_at", deadlineAt),
	)
	return domain.ScheduleResponse{Estimate: *estimate, RepairJob: job}, nil
}

func (s *Service) Complete(ctx context.Context, id string) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}
	if estimate.Status != domain.StatusScheduled {
		return domain.Estimate{}, domain.ErrInvalidState
	}

	now := s.clock.Now().UTC()
	estimate.Status = domain.StatusCompleted
	estimate.CompletedAt = &now
	estimate.UpdatedAt = now

	if err := s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, domain.StatusScheduled); err != nil {
		return domain.Estimate{}, err
	}
	return *estimate, nil
}

func (s *Service) ReadyToInvoice(ctx context.Context, id string) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}
	if estimate.Status != domain.StatusCompleted {
		return domain.Estimate{}, domain.ErrInvalidState
	}

	estimate.Status = domain.StatusReadyToInvoice
	estimate.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, domain.StatusCompleted); err != nil {
		return domain.Estimate{}, err
	}
	return *estimate, nil
}

func (s *Service) Invoice(ctx context.Context, id string, req domain.InvoiceRequest) (domain.Estimate, error) {
	estimate, err := s.get(ctx, id)
	if err != nil {
		return domain.Estimate{}, err
	}
	if estimate.Status != domain.StatusReadyToInvoice {
		return domain.Estimate{}, domain.ErrInvalidState
	}

	invoiceID := strings.TrimSpace(req.InvoiceID)
	if invoiceID == "" {
		return domain.Estimate{}, domain.ErrInvalidInvoiceID
	}

	now := s.clock.Now().UTC()
	estimate.Status = domain.StatusInvoiced
	estimate.InvoiceID = &invoiceID
	estimate.InvoicedAt = &now
	estimate.UpdatedAt = now

	if err := s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, domain.StatusReadyToInvoice); err != nil {
		return domain.Estimate{}, err
	}

	s.log.Info("estimate invoiced",
		zap.String("estimate_id", estimate.ID.String()),
		zap.String("invoice_id", invoiceID),
	)
	return *estimate, nil
}

// RevertExpiredDeadlines returns scheduled estimates whose deadline passed
// back to needs_scheduling, clearing the technician assignment. Idempotent:
// a reverted row no longer matches the scheduled filter.
func (s *Service) RevertExpiredDeadlines(ctx context.Context, now time.Time, batchSize int) (domain.SweepResult, error) {
	if batchSize <= 0 {
		batchSize = int(s.workflow.Current().SweepBatchSize)
	}

	expired, err := s.repo.FindExpiredScheduled(ctx, s.db, now, batchSize)
	if err != nil {
		return domain.SweepResult{}, err
	}

	result := domain.SweepResult{Examined: len(expired)}
	for _, estimate := range expired {
		if estimate == nil {
			continue
		}

		revertedAt := now.UTC()
		reason := autoReturnReason
		estimate.Status = domain.StatusNeedsScheduling
		estimate.RepairTechID = nil
		estimate.RepairTechName = nil
		estimate.ScheduledDate = nil
		estimate.ScheduledAt = nil
		estimate.ScheduledByUserID = nil
		estimate.ScheduledByUserName = nil
		estimate.DeadlineAt = nil
		estimate.DeadlineUnit = nil
		estimate.DeadlineValue = nil
		estimate.AutoReturnedAt = &revertedAt
		estimate.AutoReturnedReason = &reason
		estimate.UpdatedAt = revertedAt

		err := s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, domain.StatusScheduled)
		switch {
		case err == nil:
			result.Reverted++
			s.log.Info("estimate deadline expired, returned for scheduling",
				zap.String("estimate_id", estimate.ID.String()),
			)
		case err == domain.ErrConflict:
			result.Conflicts++
		default:
			return result, err
		}
	}

	return result, nil
}

func (s *Service) get(ctx context.Context, id string) (*domain.Estimate, error) {
	estimateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	estimate, err := s.repo.FindByID(ctx, s.db, estimateID)
	if err != nil {
		return nil, err
	}
	if estimate == nil {
		return nil, domain.ErrNotFound
	}
	return estimate, nil
}

func (s *Service) buildItems(inputs []domain.LineItemInput) ([]domain.EstimateLineItem, error) {
	items := make([]domain.EstimateLineItem, 0, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" || input.Quantity <= 0 || input.UnitRate < 0 {
			return nil, domain.ErrInvalidLineItem
		}
		items = append(items, domain.EstimateLineItem{
			ID:          s.genID.Generate(),
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitRate:    input.UnitRate,
			Taxable:     input.Taxable,
		})
	}
	domain.RecalculateAmounts(items)
	return items, nil
}

// guardDecision resolves the token and applies the shared guards of the
// public decision endpoints, expiry first so a stale link never reads as a
// state problem.
func (s *Service) guardDecision(ctx context.Context, token string) (*domain.Estimate, error) {
	estimate, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if estimate.DecisionRecorded() {
		return estimate, nil
	}

	if err := s.tokens.Validate(estimate, s.clock.Now().UTC()); err != nil {
		return nil, err
	}
	if estimate.Status != domain.StatusPendingApproval {
		return nil, domain.ErrInvalidState
	}
	return estimate, nil
}

func alreadyProcessed(estimate *domain.Estimate) *domain.ApprovalOutcome {
	if !estimate.DecisionRecorded() {
		return nil
	}
	return &domain.ApprovalOutcome{
		Estimate:         *estimate,
		AlreadyProcessed: true,
		Action:           estimate.DecisionAction(),
	}
}

func (s *Service) commitDecision(ctx context.Context, estimate *domain.Estimate) error {
	return s.repo.UpdateWithStatusGuard(ctx, s.db, estimate, domain.StatusPendingApproval)
}

// reloadOutcome resolves a lost compare-and-swap on the decision path: if
// a concurrent call decided first, report already-processed instead.
func (s *Service) reloadOutcome(ctx context.Context, id snowflake.ID, commitErr error) (domain.ApprovalOutcome, error) {
	if commitErr != domain.ErrConflict {
		return domain.ApprovalOutcome{}, commitErr
	}

	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil || current == nil {
		return domain.ApprovalOutcome{}, commitErr
	}
	if outcome := alreadyProcessed(current); outcome != nil {
		return *outcome, nil
	}
	return domain.ApprovalOutcome{}, commitErr
}

func (s *Service) resolveDeadline(req domain.ScheduleRequest, now time.Time) (time.Time, string, int64) {
	if req.DeadlineAt != nil && !req.DeadlineAt.IsZero() {
		unit := strings.TrimSpace(req.DeadlineUnit)
		if unit == "" {
			unit = "custom"
		}
		var value int64
		if req.DeadlineValue != nil {
			value = *req.DeadlineValue
		}
		return req.DeadlineAt.UTC(), unit, value
	}

	if req.DeadlineValue != nil && *req.DeadlineValue > 0 {
		value := *req.DeadlineValue
		switch strings.ToLower(strings.TrimSpace(req.DeadlineUnit)) {
		case "days", "day":
			return now.Add(time.Duration(value) * 24 * time.Hour), "days", value
		case "hours", "hour", "":
			return now.Add(time.Duration(value) * time.Hour), "hours", value
		}
	}

	hours := s.workflow.Current().DefaultDeadlineHours
	return now.Add(time.Duration(hours) * time.Hour), "hours", hours
}

func describeWork(estimate *domain.Estimate) string {
	title := strings.TrimSpace(estimate.Title)
	description := strings.TrimSpace(estimate.Description)
	switch {
	case title != "" && description != "":
		return title + "\n" + description
	case title != "":
		return title
	default:
		return description
	}
}

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	"github.com/aquaserve/poolops/pkg/db/pagination"
)

func (s *Server) CreateEstimate(c *gin.Context) {
	var req estimatedomain.CreateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)

	resp, err := s.estimateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEstimates(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		PropertyID string `form:"property_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.estimateSvc.List(c.Request.Context(), estimatedomain.ListEstimateRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
		PropertyID: strings.TrimSpace(query.PropertyID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEstimatesByProperty(c *gin.Context) {
	propertyID := strings.TrimSpace(c.Param("propertyId"))
	if propertyID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	var query struct {
		pagination.Pagination
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.estimateSvc.List(c.Request.Context(), estimatedomain.ListEstimateRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
		PropertyID: propertyID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEstimateByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.estimateSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateEstimate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req estimatedomain.UpdateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.estimateSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteEstimate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.estimateSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) SendEstimateForApproval(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req estimatedomain.SendForApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	resp, err := s.estimateSvc.SendForApproval(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ManualApproveEstimate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.estimateSvc.ManualApprove(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ManualRejectEstimate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.estimateSvc.ManualReject(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type scheduleEstimateRequest struct {
	RepairTechID        string `json:"repair_tech_id"`
	RepairTechName      string `json:"repair_tech_name"`
	ScheduledDate       string `json:"scheduled_date"`
	ScheduledByUserID   string `json:"scheduled_by_user_id"`
	ScheduledByUserName string `json:"scheduled_by_user_name"`
	DeadlineAt          string `json:"deadline_at"`
	DeadlineUnit        string `json:"deadline_unit"`
	DeadlineValue       *int64 `json:"deadline_value"`
}

func (s *Server) ScheduleEstimate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req scheduleEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	scheduledDate, err := parseRequiredTime(req.ScheduledDate)
	if err != nil {
		AbortWithError(c, newValidationError("scheduled_date", "invalid_schedule_date", "invalid scheduled_date"))
		return
	}

	deadlineAt, err := parseOptionalTime(req.DeadlineAt)
	if err != nil {
		AbortWithError(c, newValidationError("deadline_at", "invalid_deadline_at", "invalid deadline_at"))
		return
	}

	resp, err := s.estimateSvc.Schedule(c.Request.Context(), id, estimatedomain.ScheduleRequest{
		RepairTechID:        strings.TrimSpace(req.RepairTechID),
		RepairTechName:      strings.TrimSpace(req.RepairTechName),
		ScheduledDate:       scheduledDate,
		ScheduledByUserID:   strings.TrimSpace(req.ScheduledByUserID),
		ScheduledByUserName: strings.TrimSpace(req.ScheduledByUserName),
		DeadlineAt:          deadlineAt,
		DeadlineUnit:        strings.TrimSpace(req.DeadlineUnit),
		DeadlineValue:       req.DeadlineValue,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CompleteEstimate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.estimateSvc.Complete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkEstimateReadyToInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.estimateSvc.ReadyToInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) InvoiceEstimate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req estimatedomain.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.InvoiceID = strings.TrimSpace(req.InvoiceID)

	resp, err := s.estimateSvc.Invoice(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseRequiredTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}

func parseOptionalTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

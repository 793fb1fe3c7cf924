package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	obsmiddleware "github.com/aquaserve/poolops/internal/observability/logger"
)

// publicApprovalRateLimit throttles the unauthenticated token endpoints
// per client IP. Redis being unavailable must never take the approval
// flow down, so limiter errors fail open.
func (s *Server) publicApprovalRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.approvalLimiter == nil || !s.approvalLimiter.Enabled() {
			c.Next()
			return
		}

		res, err := s.approvalLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log := obsmiddleware.FromContext(c.Request.Context())
			if log != nil {
				log.Warn("public approval rate limiter unavailable")
			}
			c.Next()
			return
		}

		if !res.Allowed {
			retryAfter := int(res.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrTooManyRequest)
			return
		}

		c.Next()
	}
}

func (s *Server) ReviewEstimateByToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))

	resp, err := s.estimateSvc.ReviewByToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveEstimateByToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))

	req, ok := bindDecisionRequest(c)
	if !ok {
		return
	}

	resp, err := s.estimateSvc.ApproveByToken(c.Request.Context(), token, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectEstimateByToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))

	req, ok := bindDecisionRequest(c)
	if !ok {
		return
	}

	resp, err := s.estimateSvc.RejectByToken(c.Request.Context(), token, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func bindDecisionRequest(c *gin.Context) (estimatedomain.DecisionRequest, bool) {
	var req estimatedomain.DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return req, false
		}
	}

	req.ApproverName = strings.TrimSpace(req.ApproverName)
	req.ApproverTitle = strings.TrimSpace(req.ApproverTitle)
	req.RejectionReason = strings.TrimSpace(req.RejectionReason)
	return req, true
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	repairjobdomain "github.com/aquaserve/poolops/internal/repairjob/domain"
)

func (s *Server) ListRepairJobs(c *gin.Context) {
	var query repairjobdomain.ListJobRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	query.Status = strings.TrimSpace(query.Status)
	query.EstimateID = strings.TrimSpace(query.EstimateID)

	resp, err := s.repairJobSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRepairJobByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.repairJobSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

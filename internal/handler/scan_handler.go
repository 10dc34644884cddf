package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JsterDevers/Presentryx/internal/service"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
	"github.com/JsterDevers/Presentryx/pkg/response"
)

// ScanHandler exposes the IN/OUT attendance scan endpoints.
type ScanHandler struct {
	service *service.ScanService
}

// NewScanHandler creates a new handler.
func NewScanHandler(svc *service.ScanService) *ScanHandler {
	return &ScanHandler{service: svc}
}

type scanRequest struct {
	ClassID     string `json:"class_id" binding:"required"`
	StudentName string `json:"student_name"`
}

// ScanIn records an IN scan. An overdue scan is stored as an Absent attempt
// and reported with HTTP 200 rather than rejected.
func (h *ScanHandler) ScanIn(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scan payload"))
		return
	}

	result, err := h.service.ScanIn(c.Request.Context(), req.ClassID, req.StudentName)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Overdue {
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	response.Created(c, result)
}

// ScanOut closes the student's open record for today.
func (h *ScanHandler) ScanOut(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scan payload"))
		return
	}

	record, err := h.service.ScanOut(c.Request.Context(), req.ClassID, req.StudentName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// AutoScanOut closes one active student picked by the recognizer.
func (h *ScanHandler) AutoScanOut(c *gin.Context) {
	var req struct {
		ClassID string `json:"class_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scan payload"))
		return
	}

	record, err := h.service.AutoScanOut(c.Request.Context(), req.ClassID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Active lists students currently marked IN for today's session.
func (h *ScanHandler) Active(c *gin.Context) {
	records, err := h.service.ActiveStudents(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Reset deletes today's records for a class. Requires confirm=true.
func (h *ScanHandler) Reset(c *gin.Context) {
	var req struct {
		ClassID string `json:"class_id" binding:"required"`
		Confirm bool   `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reset payload"))
		return
	}

	deleted, err := h.service.ResetDay(c.Request.Context(), req.ClassID, req.Confirm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

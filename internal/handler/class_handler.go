package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JsterDevers/Presentryx/internal/models"
	"github.com/JsterDevers/Presentryx/internal/service"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
	"github.com/JsterDevers/Presentryx/pkg/response"
)

// ClassHandler exposes class schedule CRUD endpoints.
type ClassHandler struct {
	service *service.ClassService
}

// NewClassHandler creates a new handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List returns class schedules matching the query filters. Faculty callers
// are scoped to their own classes.
func (h *ClassHandler) List(c *gin.Context) {
	filter := models.ClassScheduleFilter{
		FacultyID: c.Query("faculty_id"),
		Term:      c.Query("term"),
		Year:      c.Query("year"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleFaculty {
		filter.FacultyID = claims.UserID
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	classes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get returns one class with the owning faculty's name.
func (h *ClassHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create schedules a new class. Faculty callers always own the created class.
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleFaculty {
		req.FacultyID = claims.UserID
	}

	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update applies a partial update to a class.
func (h *ClassHandler) Update(c *gin.Context) {
	if err := h.authorize(c); err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete removes a class along with its attendance records.
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.authorize(c); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Bounds returns the 24-hour boundaries of the class's schedule string.
func (h *ClassHandler) Bounds(c *gin.Context) {
	bounds, err := h.service.Bounds(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bounds, nil)
}

// authorize restricts mutations to admins and the owning faculty.
func (h *ClassHandler) authorize(c *gin.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleAdmin {
		return nil
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if detail.FacultyID != claims.UserID {
		return appErrors.ErrForbidden
	}
	return nil
}

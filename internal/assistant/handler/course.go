package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/middleware"
	apierrors "github.com/campus-io/study-buddy/pkg/utils/errors"
)

// CourseHandler serves course and course-file management endpoints.
type CourseHandler struct {
	courses *biz.CourseService
}

// NewCourseHandler creates the course handler.
func NewCourseHandler(courses *biz.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type createCourseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateCourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// Create handles POST /v1/courses.
func (h *CourseHandler) Create(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	user := middleware.UserFrom(c)
	course, err := h.courses.Create(c.Request.Context(), req.Name, req.Description, user.ID, user.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusCreated, course)
}

// List handles GET /v1/courses. Professors see their own courses;
// everyone else sees visible courses only.
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context(), middleware.UserFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"courses": courses, "total": len(courses)})
}

// Get handles GET /v1/courses/:id.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeCourseError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, course)
}

// Update handles PUT /v1/courses/:id.
func (h *CourseHandler) Update(c *gin.Context) {
	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	user := middleware.UserFrom(c)
	if err := h.courses.Update(c.Request.Context(), c.Param("id"), user.ID, req.Name, req.Description); err != nil {
		writeCourseError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, nil)
}

// SetVisibility handles PUT /v1/courses/:id/visibility.
func (h *CourseHandler) SetVisibility(c *gin.Context) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	user := middleware.UserFrom(c)
	if err := h.courses.SetVisibility(c.Request.Context(), c.Param("id"), user.ID, *req.Visible); err != nil {
		writeCourseError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"visible": *req.Visible})
}

// Delete handles DELETE /v1/courses/:id. Files, analytics rows, and
// stored chunks go with the course.
func (h *CourseHandler) Delete(c *gin.Context) {
	user := middleware.UserFrom(c)
	if err := h.courses.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		writeCourseError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, nil)
}

// ListFiles handles GET /v1/courses/:id/files.
func (h *CourseHandler) ListFiles(c *gin.Context) {
	files, err := h.courses.ListFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"files": files, "total": len(files)})
}

// RemoveFile handles DELETE /v1/courses/:id/files/:fileId.
func (h *CourseHandler) RemoveFile(c *gin.Context) {
	user := middleware.UserFrom(c)
	if err := h.courses.RemoveFile(c.Request.Context(), user.ID, c.Param("id"), c.Param("fileId")); err != nil {
		writeCourseError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, nil)
}

func writeCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrNotCourseOwner):
		writeError(c, apierrors.ErrCourseNotOwned)
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeError(c, apierrors.ErrNotFound)
	default:
		writeError(c, err)
	}
}

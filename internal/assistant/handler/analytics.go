package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/middleware"
	"github.com/campus-io/study-buddy/internal/model"
	apierrors "github.com/campus-io/study-buddy/pkg/utils/errors"
)

const (
	defaultQuestionLimit  = 10
	defaultFrequencyDays  = 30
	defaultTopicLimit     = 10
	maxFrequencyDays      = 365
	maxAnalyticsListLimit = 100
)

// AnalyticsHandler serves course engagement analytics for professors.
type AnalyticsHandler struct {
	analytics *biz.AnalyticsService
	courses   *biz.CourseService
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(analytics *biz.AnalyticsService, courses *biz.CourseService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, courses: courses}
}

// Engagement handles GET /v1/courses/:id/analytics/engagement.
func (h *AnalyticsHandler) Engagement(c *gin.Context) {
	course, ok := h.ownedCourse(c)
	if !ok {
		return
	}

	stats, err := h.analytics.EngagementStats(c.Request.Context(), course.ID, course.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, stats)
}

// MostAsked handles GET /v1/courses/:id/analytics/most-asked.
func (h *AnalyticsHandler) MostAsked(c *gin.Context) {
	if _, ok := h.ownedCourse(c); !ok {
		return
	}

	limit := queryInt(c, "limit", defaultQuestionLimit, maxAnalyticsListLimit)

	questions, err := h.analytics.MostAskedQuestions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"questions": questions})
}

// Frequency handles GET /v1/courses/:id/analytics/frequency.
func (h *AnalyticsHandler) Frequency(c *gin.Context) {
	if _, ok := h.ownedCourse(c); !ok {
		return
	}

	days := queryInt(c, "days", defaultFrequencyDays, maxFrequencyDays)

	frequency, err := h.analytics.QuestionFrequency(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"frequency": frequency, "days": days})
}

// PeakHours handles GET /v1/courses/:id/analytics/peak-hours.
func (h *AnalyticsHandler) PeakHours(c *gin.Context) {
	if _, ok := h.ownedCourse(c); !ok {
		return
	}

	hours, err := h.analytics.PeakHours(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"hours": hours})
}

// Topics handles GET /v1/courses/:id/analytics/topics.
func (h *AnalyticsHandler) Topics(c *gin.Context) {
	if _, ok := h.ownedCourse(c); !ok {
		return
	}

	limit := queryInt(c, "limit", defaultTopicLimit, maxAnalyticsListLimit)

	topics, err := h.analytics.TopTopics(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"topics": topics})
}

// ownedCourse loads the course and verifies the session professor owns
// it. Analytics for other professors' courses are off limits.
func (h *AnalyticsHandler) ownedCourse(c *gin.Context) (*model.Course, bool) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeCourseError(c, err)
		return nil, false
	}
	if user := middleware.UserFrom(c); user == nil || course.ProfessorID != user.ID {
		writeError(c, apierrors.ErrCourseNotOwned)
		return nil, false
	}
	return course, true
}

func queryInt(c *gin.Context, key string, fallback, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/middleware"
	"github.com/campus-io/study-buddy/internal/model"
	apierrors "github.com/campus-io/study-buddy/pkg/utils/errors"
)

// UserHandler serves account, preference, and study-memory endpoints.
// Session tokens are minted by the identity service; this API only
// manages profiles.
type UserHandler struct {
	users *biz.UserService
}

// NewUserHandler creates the user handler.
func NewUserHandler(users *biz.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type memoryRequest struct {
	Topic    string `json:"topic"`
	Question string `json:"question"`
	Notes    string `json:"notes"`
}

// Register handles POST /v1/users/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	role := model.Role(req.Role)
	if !role.Valid() {
		writeError(c, apierrors.ErrInvalidParam.WithMessage("role must be student or professor"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		writeUserError(c, err)
		return
	}

	writeSuccess(c, http.StatusCreated, user)
}

// Login handles POST /v1/users/login. It verifies credentials and
// returns the profile; the caller exchanges it for a session token at
// the identity service.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeUserError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, user)
}

// Profile handles GET /v1/users/me.
func (h *UserHandler) Profile(c *gin.Context) {
	writeSuccess(c, http.StatusOK, middleware.UserFrom(c))
}

// UpdatePreferences handles PUT /v1/users/me/preferences.
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var prefs model.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	user, err := h.users.UpdatePreferences(c.Request.Context(), middleware.UserFrom(c).ID, prefs)
	if err != nil {
		writeUserError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, user)
}

// Memory handles GET /v1/users/me/memory.
func (h *UserHandler) Memory(c *gin.Context) {
	writeSuccess(c, http.StatusOK, middleware.UserFrom(c).Memory())
}

// UpdateMemory handles POST /v1/users/me/memory. Each field of the
// request updates independently: topic and question append, notes
// overwrite.
func (h *UserHandler) UpdateMemory(c *gin.Context) {
	var req memoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserFrom(c).ID

	if req.Topic != "" {
		if err := h.users.AddStudiedTopic(ctx, userID, req.Topic); err != nil {
			writeUserError(c, err)
			return
		}
	}
	if req.Question != "" {
		if err := h.users.AddRecentQuestion(ctx, userID, req.Question); err != nil {
			writeUserError(c, err)
			return
		}
	}
	if req.Notes != "" {
		if err := h.users.UpdateMemoryNotes(ctx, userID, req.Notes); err != nil {
			writeUserError(c, err)
			return
		}
	}

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		writeUserError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, user.Memory())
}

func writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrInvalidCredentials):
		writeError(c, apierrors.ErrUnauthorized.WithMessage(err.Error()))
	case errors.Is(err, biz.ErrEmailTaken), errors.Is(err, biz.ErrWeakPassword):
		writeError(c, apierrors.ErrInvalidParam.WithMessage(err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeError(c, apierrors.ErrNotFound)
	default:
		writeError(c, err)
	}
}

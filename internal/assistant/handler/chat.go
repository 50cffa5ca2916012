package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/middleware"
	"github.com/campus-io/study-buddy/internal/model"
	apierrors "github.com/campus-io/study-buddy/pkg/utils/errors"
)

// ChatHandler serves the streaming chat endpoint.
type ChatHandler struct {
	chat *biz.ChatService
}

// NewChatHandler creates the chat handler.
func NewChatHandler(chat *biz.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message             string              `json:"message"`
	ConversationHistory []model.ChatMessage `json:"conversationHistory"`
	CourseID            string              `json:"courseId"`
	FileIDs             []string            `json:"fileIds"`
	SessionID           string              `json:"sessionId"`
	Model               string              `json:"model"`
}

type chatDelta struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Chat handles POST /v1/chat. The response is a server-sent event
// stream of content deltas terminated by a [DONE] marker.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	turn := &model.ChatTurn{
		Message:             req.Message,
		ConversationHistory: req.ConversationHistory,
		User:                middleware.UserFrom(c),
		CourseID:            req.CourseID,
		FileIDs:             req.FileIDs,
		SessionID:           req.SessionID,
		Model:               req.Model,
	}

	deltas, err := h.chat.Chat(c.Request.Context(), turn)
	if err != nil {
		if errors.Is(err, biz.ErrEmptyMessage) {
			writeError(c, apierrors.ErrEmptyMessage)
			return
		}
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	for delta := range deltas {
		switch {
		case delta.Err != nil:
			logger.Errorw("chat stream failed", "error", delta.Err)
			writeEvent(c, flusher, chatDelta{Error: delta.Err.Error()})
		case delta.Done:
			fmt.Fprint(c.Writer, "data: [DONE]\n\n")
			if flusher != nil {
				flusher.Flush()
			}
		case delta.Content != "":
			writeEvent(c, flusher, chatDelta{Content: delta.Content})
		}
	}
}

func writeEvent(c *gin.Context, flusher http.Flusher, payload chatDelta) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", raw)
	if flusher != nil {
		flusher.Flush()
	}
}

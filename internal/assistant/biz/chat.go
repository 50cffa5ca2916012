package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/llm"
)

const (
	chatMaxTokens   = 8000
	chatTemperature = 0.3
)

// ErrEmptyMessage rejects chat turns with no question.
var ErrEmptyMessage = errors.New("message is required")

// ChatService runs one chat turn end to end: course gate, retrieval,
// prompt assembly, and the streamed completion.
type ChatService struct {
	store     store.Factory
	retriever *Retriever
	provider  llm.ChatProvider
	analytics *AnalyticsService
	model     string
}

// NewChatService creates the chat pipeline service. model is the
// default completion model used when a turn does not name one.
func NewChatService(factory store.Factory, retriever *Retriever, provider llm.ChatProvider, analytics *AnalyticsService, model string) *ChatService {
	return &ChatService{
		store:     factory,
		retriever: retriever,
		provider:  provider,
		analytics: analytics,
		model:     model,
	}
}

// Chat validates the turn, gates course access, retrieves materials,
// and starts the completion stream.
func (s *ChatService) Chat(ctx context.Context, turn *model.ChatTurn) (<-chan llm.StreamDelta, error) {
	if strings.TrimSpace(turn.Message) == "" {
		return nil, ErrEmptyMessage
	}

	course := s.accessibleCourse(ctx, turn.CourseID, turn.User)

	var retrieval *model.RetrievalResult
	if course != nil {
		retrieval = s.retriever.Retrieve(ctx, turn.Message, course.ID, turn.FileIDs)
	}

	if course != nil && !isProfessor(turn.User) {
		sessionID := turn.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		var userID string
		if turn.User != nil {
			userID = turn.User.ID
		}
		s.analytics.TrackQuestionAsync(turn.Message, course.ID, course.Name, sessionID, userID)
	}

	messages := AssemblePrompt(turn.User, MaterialsFromRetrieval(retrieval), turn.Message, turn.ConversationHistory)

	chatModel := turn.Model
	if chatModel == "" {
		chatModel = s.model
	}

	return s.provider.StreamChat(ctx, llm.ChatRequest{
		Model:       chatModel,
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
}

// accessibleCourse resolves the course the turn may use materials
// from. A missing course, or a hidden course requested by anyone but
// its owning professor, yields nil: the chat proceeds without course
// context and never reveals whether the course exists.
func (s *ChatService) accessibleCourse(ctx context.Context, courseID string, user *model.User) *model.Course {
	if courseID == "" {
		return nil
	}

	course, err := s.store.Courses().Get(ctx, courseID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warnw("course lookup failed", "course_id", courseID, "error", err.Error())
		}
		return nil
	}

	if course.IsVisible {
		return course
	}
	if user != nil && user.Role == model.RoleProfessor && course.ProfessorID == user.ID {
		return course
	}
	return nil
}

func isProfessor(user *model.User) bool {
	return user != nil && user.Role == model.RoleProfessor
}

// ModelName reports the default completion model, mostly for logging.
func (s *ChatService) ModelName() string {
	if s.model == "" {
		return fmt.Sprintf("%s (provider default)", s.provider.Name())
	}
	return s.model
}

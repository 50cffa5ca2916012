package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
)

const (
	minPasswordLength  = 6
	maxStudiedTopics   = 50
	maxRecentQuestions = 20
)

var (
	// ErrInvalidCredentials hides whether the email or the password
	// was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken signals a duplicate registration.
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrWeakPassword rejects passwords below the minimum length.
	ErrWeakPassword = errors.New("password must be at least 6 characters long")
)

// UserService handles accounts, preferences, and study memory.
type UserService struct {
	store store.Factory
}

// NewUserService creates a user service.
func NewUserService(factory store.Factory) *UserService {
	return &UserService{store: factory}
}

// Register creates a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if !role.Valid() {
		return nil, errors.New("role must be student or professor")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(name),
		Email:             email,
		PasswordHash:      string(hash),
		Role:              role,
		MemoryLastUpdated: time.Now(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies an email/password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get fetches a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.store.Users().Get(ctx, id)
}

// UpdatePreferences overwrites the user's study preferences.
func (s *UserService) UpdatePreferences(ctx context.Context, id string, prefs model.Preferences) (*model.User, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.LearningStyle = prefs.LearningStyle
	user.AcademicLevel = prefs.AcademicLevel
	user.Major = prefs.Major
	user.PreferredLanguage = prefs.PreferredLanguage
	user.ResponseStyle = prefs.ResponseStyle
	user.Tone = prefs.Tone

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddStudiedTopic appends a topic to the user's memory, keeping the
// most recent entries.
func (s *UserService) AddStudiedTopic(ctx context.Context, id, topic string) error {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return err
	}

	for _, t := range user.MemoryTopics {
		if t == topic {
			return nil
		}
	}

	user.MemoryTopics = append(user.MemoryTopics, topic)
	if len(user.MemoryTopics) > maxStudiedTopics {
		user.MemoryTopics = user.MemoryTopics[len(user.MemoryTopics)-maxStudiedTopics:]
	}
	user.MemoryLastUpdated = time.Now()
	return s.store.Users().Update(ctx, user)
}

// AddRecentQuestion prepends a question to the user's memory, keeping
// the most recent entries.
func (s *UserService) AddRecentQuestion(ctx context.Context, id, question string) error {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return err
	}

	user.RecentQuestions = append([]string{question}, user.RecentQuestions...)
	if len(user.RecentQuestions) > maxRecentQuestions {
		user.RecentQuestions = user.RecentQuestions[:maxRecentQuestions]
	}
	user.MemoryLastUpdated = time.Now()
	return s.store.Users().Update(ctx, user)
}

// UpdateMemoryNotes replaces the free-text notes about the student.
func (s *UserService) UpdateMemoryNotes(ctx context.Context, id, notes string) error {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return err
	}

	user.MemoryNotes = notes
	user.MemoryLastUpdated = time.Now()
	return s.store.Users().Update(ctx, user)
}

package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-io/study-buddy/internal/model"
)

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newBizFactory(t))

	user, err := svc.Register(ctx, "  Ada  ", "Ada@Example.EDU", "secret1", model.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.edu", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "ada@example.edu", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.edu", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.edu", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserServiceRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newBizFactory(t))

	_, err := svc.Register(ctx, "Ada", "ada@example.edu", "short", model.RoleStudent)
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, "Ada", "ada@example.edu", "secret1", model.Role("admin"))
	assert.Error(t, err)

	_, err = svc.Register(ctx, "Ada", "ada@example.edu", "secret1", model.RoleStudent)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Other", "ADA@example.edu", "secret2", model.RoleStudent)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserServiceUpdatePreferences(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newBizFactory(t))

	user, err := svc.Register(ctx, "Ada", "ada@example.edu", "secret1", model.RoleStudent)
	require.NoError(t, err)

	updated, err := svc.UpdatePreferences(ctx, user.ID, model.Preferences{
		LearningStyle: "visual",
		AcademicLevel: "senior",
		Major:         "computer science",
		ResponseStyle: "concise",
		Tone:          "casual",
	})
	require.NoError(t, err)

	prefs := updated.Preferences()
	assert.Equal(t, "visual", prefs.LearningStyle)
	assert.Equal(t, "senior", prefs.AcademicLevel)
	assert.Equal(t, "computer science", prefs.Major)
	assert.Equal(t, "concise", prefs.ResponseStyle)
	assert.Equal(t, "casual", prefs.Tone)
}

func TestUserServiceStudiedTopicsCapAndDedupe(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newBizFactory(t))

	user, err := svc.Register(ctx, "Ada", "ada@example.edu", "secret1", model.RoleStudent)
	require.NoError(t, err)

	for i := 0; i < 55; i++ {
		require.NoError(t, svc.AddStudiedTopic(ctx, user.ID, fmt.Sprintf("topic-%02d", i)))
	}
	// Duplicates are ignored.
	require.NoError(t, svc.AddStudiedTopic(ctx, user.ID, "topic-54"))

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got.MemoryTopics, maxStudiedTopics)
	assert.Equal(t, "topic-05", got.MemoryTopics[0])
	assert.Equal(t, "topic-54", got.MemoryTopics[len(got.MemoryTopics)-1])
}

func TestUserServiceRecentQuestionsCap(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newBizFactory(t))

	user, err := svc.Register(ctx, "Ada", "ada@example.edu", "secret1", model.RoleStudent)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		require.NoError(t, svc.AddRecentQuestion(ctx, user.ID, fmt.Sprintf("question %02d", i)))
	}

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got.RecentQuestions, maxRecentQuestions)
	// Newest first.
	assert.Equal(t, "question 24", got.RecentQuestions[0])
	assert.Equal(t, "question 05", got.RecentQuestions[len(got.RecentQuestions)-1])
}

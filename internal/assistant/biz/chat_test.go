package biz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/infra/pool"
	"github.com/campus-io/study-buddy/pkg/llm"
)

type fakeChatProvider struct {
	mu      sync.Mutex
	request llm.ChatRequest
	deltas  []llm.StreamDelta
}

func (f *fakeChatProvider) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamDelta, error) {
	f.mu.Lock()
	f.request = req
	f.mu.Unlock()

	ch := make(chan llm.StreamDelta, len(f.deltas)+1)
	for _, d := range f.deltas {
		ch <- d
	}
	ch <- llm.StreamDelta{Done: true}
	close(ch)
	return ch, nil
}

func (f *fakeChatProvider) Name() string { return "fake" }

func (f *fakeChatProvider) lastRequest() llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.request
}

func newBizFactory(t *testing.T) store.Factory {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Course{}, &model.CourseFile{}, &model.AnalyticsEvent{}))

	factory, err := store.NewFactory(db)
	require.NoError(t, err)
	return factory
}

func newChatService(t *testing.T, factory store.Factory, cs *fakeChunkStore, provider *fakeChatProvider) *ChatService {
	t.Helper()

	workers, err := pool.NewPool("tracking", pool.TrackingPool, pool.TrackingPoolConfig())
	require.NoError(t, err)
	t.Cleanup(workers.Release)

	retriever := NewRetriever(cs, &fakeEmbedder{vector: []float32{0.1}})
	analytics := NewAnalyticsService(factory, workers)
	return NewChatService(factory, retriever, provider, analytics, "gpt-4o-mini")
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc := newChatService(t, newBizFactory(t), &fakeChunkStore{}, &fakeChatProvider{})

	_, err := svc.Chat(context.Background(), &model.ChatTurn{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChatDefaultsModelAndParams(t *testing.T) {
	provider := &fakeChatProvider{}
	svc := newChatService(t, newBizFactory(t), &fakeChunkStore{}, provider)

	stream, err := svc.Chat(context.Background(), &model.ChatTurn{Message: "hello"})
	require.NoError(t, err)
	drain(stream)

	req := provider.lastRequest()
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 8000, req.MaxTokens)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
}

func TestChatHiddenCourseDeniedForStudent(t *testing.T) {
	factory := newBizFactory(t)
	require.NoError(t, factory.Courses().Create(context.Background(), &model.Course{
		ID: "c1", Name: "Secret", ProfessorID: "p1", IsVisible: false,
	}))

	provider := &fakeChatProvider{}
	svc := newChatService(t, factory, &fakeChunkStore{count: 5}, provider)

	student := &model.User{ID: "u1", Name: "Ada", Role: model.RoleStudent}
	stream, err := svc.Chat(context.Background(), &model.ChatTurn{
		Message:  "what is in this course",
		CourseID: "c1",
		User:     student,
	})
	require.NoError(t, err)
	drain(stream)

	// The turn proceeds without course context, exactly as if the
	// course did not exist.
	req := provider.lastRequest()
	userTurn := req.Messages[len(req.Messages)-1]
	assert.Contains(t, userTurn.Content, "No course selected.")

	// Nothing is tracked for a denied course.
	time.Sleep(100 * time.Millisecond)
	count, err := factory.Analytics().CountByCourse(context.Background(), "c1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatHiddenCourseAllowedForOwner(t *testing.T) {
	factory := newBizFactory(t)
	require.NoError(t, factory.Courses().Create(context.Background(), &model.Course{
		ID: "c1", Name: "Secret", ProfessorID: "p1", IsVisible: false,
	}))

	provider := &fakeChatProvider{}
	svc := newChatService(t, factory, &fakeChunkStore{count: 0}, provider)

	owner := &model.User{ID: "p1", Name: "Grace", Role: model.RoleProfessor}
	stream, err := svc.Chat(context.Background(), &model.ChatTurn{
		Message:  "summarize the materials",
		CourseID: "c1",
		User:     owner,
	})
	require.NoError(t, err)
	drain(stream)

	req := provider.lastRequest()
	userTurn := req.Messages[len(req.Messages)-1]
	assert.Contains(t, userTurn.Content, "Professor Question:")
	assert.NotContains(t, userTurn.Content, "No course selected.")
}

func TestChatTracksStudentQuestions(t *testing.T) {
	factory := newBizFactory(t)
	require.NoError(t, factory.Courses().Create(context.Background(), &model.Course{
		ID: "c1", Name: "Algorithms", ProfessorID: "p1", IsVisible: true,
	}))

	svc := newChatService(t, factory, &fakeChunkStore{count: 0}, &fakeChatProvider{})

	student := &model.User{ID: "u1", Name: "Ada", Role: model.RoleStudent}
	stream, err := svc.Chat(context.Background(), &model.ChatTurn{
		Message:   "explain quicksort",
		CourseID:  "c1",
		User:      student,
		SessionID: "s1",
	})
	require.NoError(t, err)
	drain(stream)

	assert.Eventually(t, func() bool {
		count, err := factory.Analytics().CountByCourse(context.Background(), "c1")
		return err == nil && count == 1
	}, 3*time.Second, 20*time.Millisecond)

	events, err := factory.Analytics().ListByCourse(context.Background(), "c1", time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "explain quicksort", events[0].Question)
	assert.Equal(t, "Algorithms", events[0].CourseName)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, "s1", events[0].SessionID)
}

func TestChatMissingCourseProceedsWithoutContext(t *testing.T) {
	provider := &fakeChatProvider{}
	svc := newChatService(t, newBizFactory(t), &fakeChunkStore{count: 5}, provider)

	stream, err := svc.Chat(context.Background(), &model.ChatTurn{
		Message:  "hello",
		CourseID: "nope",
	})
	require.NoError(t, err)
	drain(stream)

	req := provider.lastRequest()
	userTurn := req.Messages[len(req.Messages)-1]
	assert.Contains(t, userTurn.Content, "No course selected.")
}

func drain(stream <-chan llm.StreamDelta) {
	for range stream {
	}
}

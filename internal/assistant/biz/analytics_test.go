package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
)

func newAnalyticsService(t *testing.T) (*AnalyticsService, store.Factory) {
	t.Helper()
	factory := newBizFactory(t)
	return NewAnalyticsService(factory, nil), factory
}

func track(t *testing.T, svc *AnalyticsService, question, userID string) {
	t.Helper()
	require.NoError(t, svc.TrackQuestion(context.Background(), question, "c1", "Algorithms", "s1", userID))
}

func TestMostAskedQuestionsGroupsCaseInsensitively(t *testing.T) {
	svc, _ := newAnalyticsService(t)

	track(t, svc, "What is quicksort?", "u1")
	track(t, svc, "what is quicksort?  ", "u2")
	track(t, svc, "Explain heaps", "u1")

	out, err := svc.MostAskedQuestions(context.Background(), "c1", 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "what is quicksort?", out[0].Question)
	assert.Equal(t, 2, out[0].Count)
	assert.Equal(t, "explain heaps", out[1].Question)
	assert.Equal(t, 1, out[1].Count)
}

func TestMostAskedQuestionsHonorsLimit(t *testing.T) {
	svc, _ := newAnalyticsService(t)

	track(t, svc, "q one", "u1")
	track(t, svc, "q two", "u1")
	track(t, svc, "q three", "u1")

	out, err := svc.MostAskedQuestions(context.Background(), "c1", 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestQuestionFrequencyZeroFillsWindow(t *testing.T) {
	svc, factory := newAnalyticsService(t)

	// Backdated so it falls inside the zero-filled window.
	require.NoError(t, factory.Analytics().Create(context.Background(), &model.AnalyticsEvent{
		Question: "older question", CourseID: "c1", UserID: "u1",
		CreatedAt: time.Now().UTC().AddDate(0, 0, -3),
	}))

	out, err := svc.QuestionFrequency(context.Background(), "c1", 7)
	require.NoError(t, err)
	require.Len(t, out, 7)

	total := 0
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].Date, out[i].Date)
	}
	for _, d := range out {
		total += d.Count
	}
	assert.Equal(t, 1, total)
}

func TestEngagementStats(t *testing.T) {
	svc, _ := newAnalyticsService(t)

	track(t, svc, "first", "u1")
	track(t, svc, "second", "u2")
	track(t, svc, "third", "") // guest

	stats, err := svc.EngagementStats(context.Background(), "c1", "Algorithms")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalQuestions)
	assert.Equal(t, 3, stats.UniqueStudents)
	assert.Equal(t, 1, stats.ActiveDays)
	assert.WithinDuration(t, time.Now(), stats.LastActivity, time.Minute)
	assert.Equal(t, "Algorithms", stats.CourseName)
}

func TestPeakHoursCoversFullDay(t *testing.T) {
	svc, _ := newAnalyticsService(t)

	track(t, svc, "anytime question", "u1")

	out, err := svc.PeakHours(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, out, 24)

	total := 0
	for i, h := range out {
		assert.Equal(t, i, h.Hour)
		total += h.Count
	}
	assert.Equal(t, 1, total)
}

func TestTopTopicsSkipsStopWords(t *testing.T) {
	svc, _ := newAnalyticsService(t)

	track(t, svc, "What about recursion and recursion depth?", "u1")
	track(t, svc, "Explain recursion in chapter two", "u2")

	out, err := svc.TopTopics(context.Background(), "c1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	assert.Equal(t, "recursion", out[0].Topic)
	assert.Equal(t, 3, out[0].Count)
	for _, topic := range out {
		assert.NotContains(t, []string{"what", "about", "explain", "chapter"}, topic.Topic)
		assert.GreaterOrEqual(t, len(topic.Topic), 4)
	}
}

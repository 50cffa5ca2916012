package biz

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/infra/pool"
)

// topicWordRe picks candidate topic words out of question text.
var topicWordRe = regexp.MustCompile(`\b[a-z]{4,}\b`)

// topicStopWords are question scaffolding, not topics.
var topicStopWords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true,
	"this": true, "that": true, "these": true, "those": true,
	"could": true, "would": true, "should": true, "about": true,
	"chapter": true, "explain": true, "help": true,
}

// AnalyticsService tracks student questions and aggregates engagement
// metrics for professors.
type AnalyticsService struct {
	store   store.Factory
	workers *pool.Pool
}

// NewAnalyticsService creates an analytics service. The pool runs
// fire-and-forget tracking writes.
func NewAnalyticsService(factory store.Factory, workers *pool.Pool) *AnalyticsService {
	return &AnalyticsService{store: factory, workers: workers}
}

// TrackQuestion records one asked question.
func (s *AnalyticsService) TrackQuestion(ctx context.Context, question, courseID, courseName, sessionID, userID string) error {
	return s.store.Analytics().Create(ctx, &model.AnalyticsEvent{
		Question:   strings.TrimSpace(question),
		CourseID:   courseID,
		CourseName: courseName,
		SessionID:  sessionID,
		UserID:     userID,
	})
}

// TrackQuestionAsync records a question in the background. Tracking
// must never delay or fail a chat response.
func (s *AnalyticsService) TrackQuestionAsync(question, courseID, courseName, sessionID, userID string) {
	s.workers.SubmitDetached(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.TrackQuestion(ctx, question, courseID, courseName, sessionID, userID); err != nil {
			logger.Warnw("failed to track question", "course_id", courseID, "error", err.Error())
		}
	})
}

// MostAskedQuestions returns the most frequent questions of a course,
// grouped case-insensitively.
func (s *AnalyticsService) MostAskedQuestions(ctx context.Context, courseID string, limit int) ([]model.QuestionCount, error) {
	events, err := s.store.Analytics().ListByCourse(ctx, courseID, time.Time{})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, ev := range events {
		key := strings.ToLower(strings.TrimSpace(ev.Question))
		counts[key]++
	}

	out := make([]model.QuestionCount, 0, len(counts))
	for q, c := range counts {
		out = append(out, model.QuestionCount{Question: q, Count: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Question < out[j].Question
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// QuestionFrequency returns per-day question counts over the trailing
// window, zero-filled so charts have a point for every day.
func (s *AnalyticsService) QuestionFrequency(ctx context.Context, courseID string, days int) ([]model.DateCount, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -days)

	events, err := s.store.Analytics().ListByCourse(ctx, courseID, start)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int, days)
	for i := 0; i < days; i++ {
		byDate[start.AddDate(0, 0, i).Format("2006-01-02")] = 0
	}
	for _, ev := range events {
		key := ev.CreatedAt.UTC().Format("2006-01-02")
		if _, ok := byDate[key]; ok {
			byDate[key]++
		}
	}

	out := make([]model.DateCount, 0, len(byDate))
	for date, count := range byDate {
		out = append(out, model.DateCount{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// EngagementStats aggregates a course's question activity.
func (s *AnalyticsService) EngagementStats(ctx context.Context, courseID, courseName string) (*model.EngagementStats, error) {
	events, err := s.store.Analytics().ListByCourse(ctx, courseID, time.Time{})
	if err != nil {
		return nil, err
	}

	students := make(map[string]bool)
	byDay := make(map[string]int)
	var last time.Time

	for _, ev := range events {
		students[studentKey(ev.UserID)] = true
		byDay[ev.CreatedAt.UTC().Format("2006-01-02")]++
		if ev.CreatedAt.After(last) {
			last = ev.CreatedAt
		}
	}

	return &model.EngagementStats{
		CourseID:       courseID,
		CourseName:     courseName,
		TotalQuestions: len(events),
		UniqueStudents: len(students),
		ActiveDays:     len(byDay),
		LastActivity:   last,
		QuestionsByDay: byDay,
	}, nil
}

// PeakHours returns per-hour question counts for all 24 hours.
func (s *AnalyticsService) PeakHours(ctx context.Context, courseID string) ([]model.HourCount, error) {
	events, err := s.store.Analytics().ListByCourse(ctx, courseID, time.Time{})
	if err != nil {
		return nil, err
	}

	out := make([]model.HourCount, 24)
	for i := range out {
		out[i].Hour = i
	}
	for _, ev := range events {
		out[ev.CreatedAt.Local().Hour()].Count++
	}
	return out, nil
}

// TopTopics extracts the most common topic words from a course's
// questions, skipping question scaffolding words.
func (s *AnalyticsService) TopTopics(ctx context.Context, courseID string, limit int) ([]model.TopicCount, error) {
	events, err := s.store.Analytics().ListByCourse(ctx, courseID, time.Time{})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, ev := range events {
		for _, word := range topicWordRe.FindAllString(strings.ToLower(ev.Question), -1) {
			if !topicStopWords[word] {
				counts[word]++
			}
		}
	}

	out := make([]model.TopicCount, 0, len(counts))
	for topic, c := range counts {
		out = append(out, model.TopicCount{Topic: topic, Count: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func studentKey(userID string) string {
	if userID == "" {
		return "guest"
	}
	return userID
}

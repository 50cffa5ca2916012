package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/model"
)

type analytics struct {
	db *gorm.DB
}

func newAnalytics(db *gorm.DB) *analytics {
	return &analytics{db}
}

// Create records a question event.
func (a *analytics) Create(ctx context.Context, event *model.AnalyticsEvent) error {
	return a.db.WithContext(ctx).Create(event).Error
}

// ListByCourse lists events of a course created at or after since,
// oldest first. A zero since returns the full history.
func (a *analytics) ListByCourse(ctx context.Context, courseID string, since time.Time) ([]*model.AnalyticsEvent, error) {
	q := a.db.WithContext(ctx).Where("course_id = ?", courseID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	var out []*model.AnalyticsEvent
	if err := q.Order("created_at asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountByCourse counts all events of a course.
func (a *analytics) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

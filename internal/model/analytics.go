package model

import "time"

// AnalyticsEvent records one tracked student question.
type AnalyticsEvent struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Question   string    `json:"question" gorm:"type:text;not null"`
	CourseID   string    `json:"courseId" gorm:"type:varchar(64);index"`
	CourseName string    `json:"courseName" gorm:"size:255"`
	UserID     string    `json:"userId" gorm:"type:varchar(64);index"`
	SessionID  string    `json:"sessionId" gorm:"type:varchar(64)"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}

// TableName returns the table name for GORM.
func (e *AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// EngagementStats aggregates question activity for one course.
type EngagementStats struct {
	CourseID       string         `json:"courseId"`
	CourseName     string         `json:"courseName"`
	TotalQuestions int            `json:"totalQuestions"`
	UniqueStudents int            `json:"uniqueStudents"`
	ActiveDays     int            `json:"activeDays"`
	LastActivity   time.Time      `json:"lastActivity"`
	QuestionsByDay map[string]int `json:"questionsByDay"`
}

// QuestionCount is one question with its occurrence count.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// DateCount is a per-day activity bucket (date in YYYY-MM-DD).
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// HourCount is a per-hour activity bucket (0-23).
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// TopicCount is one topic word with its occurrence count.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

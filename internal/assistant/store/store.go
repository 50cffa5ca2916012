// Package store defines the persistence interfaces of the assistant
// service and their MySQL and Milvus implementations.
package store

import (
	"context"
	"time"

	"github.com/campus-io/study-buddy/internal/model"
)

// Factory defines the factory interface for creating relational stores.
type Factory interface {
	Users() UserStore
	Courses() CourseStore
	CourseFiles() CourseFileStore
	Analytics() AnalyticsStore
	AutoMigrate() error
	Close() error
}

// UserStore defines the user storage interface.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, offset, limit int) (int64, []*model.User, error)
}

// CourseStore defines the course storage interface.
type CourseStore interface {
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Course, error)
	ListVisible(ctx context.Context) ([]*model.Course, error)
	ListByProfessor(ctx context.Context, professorID string) ([]*model.Course, error)
	SetVisibility(ctx context.Context, id string, visible bool) error
}

// CourseFileStore defines the uploaded-file metadata storage interface.
type CourseFileStore interface {
	Create(ctx context.Context, file *model.CourseFile) error
	Get(ctx context.Context, fileID string) (*model.CourseFile, error)
	ListByCourse(ctx context.Context, courseID string) ([]*model.CourseFile, error)
	Delete(ctx context.Context, fileID string) error
	DeleteByCourse(ctx context.Context, courseID string) error
}

// AnalyticsStore defines the question-event storage interface.
type AnalyticsStore interface {
	Create(ctx context.Context, event *model.AnalyticsEvent) error
	ListByCourse(ctx context.Context, courseID string, since time.Time) ([]*model.AnalyticsEvent, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
}

// ChunkStore defines the vector storage interface for document chunks.
type ChunkStore interface {
	// EnsureSchema creates the chunk collection and index if missing.
	EnsureSchema(ctx context.Context) error

	// CountByCourse reports how many chunks are indexed for a course,
	// optionally narrowed to specific files.
	CountByCourse(ctx context.Context, courseID string, fileIDs []string) (int64, error)

	// IntroChunks fetches the leading chunks of each file (chunk index
	// up to maxIndex), ordered by file name then chunk index.
	IntroChunks(ctx context.Context, courseID string, fileIDs []string, maxIndex int) ([]model.DocumentChunk, error)

	// MatchChunks runs a similarity search over the course's chunks.
	MatchChunks(ctx context.Context, courseID string, fileIDs []string, embedding []float32, topK int) ([]model.DocumentChunk, error)

	// ReplaceFileChunks atomically replaces all chunks of a file so
	// re-indexing the same file never duplicates rows.
	ReplaceFileChunks(ctx context.Context, courseID, fileID, fileName string, chunks []model.TextChunk, embeddings [][]float32) error

	// DeleteFileChunks removes all chunks belonging to a file.
	DeleteFileChunks(ctx context.Context, fileID string) error

	// DeleteCourseChunks removes all chunks belonging to a course.
	DeleteCourseChunks(ctx context.Context, courseID string) error
}

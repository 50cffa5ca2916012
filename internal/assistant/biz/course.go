package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kart-io/logger"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
)

// ErrNotCourseOwner rejects course mutations by anyone but the owning
// professor.
var ErrNotCourseOwner = errors.New("course does not belong to this professor")

// CourseService manages courses and their uploaded files.
type CourseService struct {
	store   store.Factory
	indexer *Indexer
}

// NewCourseService creates a course service. The indexer cleans up
// vector rows when files or courses are removed.
func NewCourseService(factory store.Factory, indexer *Indexer) *CourseService {
	return &CourseService{store: factory, indexer: indexer}
}

// Create creates a course owned by the given professor.
func (s *CourseService) Create(ctx context.Context, name, description, professorID, professorName string) (*model.Course, error) {
	course := &model.Course{
		ID:            fmt.Sprintf("course-%s", uuid.NewString()),
		Name:          name,
		Description:   description,
		ProfessorID:   professorID,
		ProfessorName: professorName,
		IsVisible:     true,
	}
	if err := s.store.Courses().Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Update changes a course's name and description. Only the owning
// professor may update.
func (s *CourseService) Update(ctx context.Context, id, professorID, name, description string) error {
	course, err := s.ownedCourse(ctx, id, professorID)
	if err != nil {
		return err
	}

	course.Name = name
	course.Description = description
	return s.store.Courses().Update(ctx, course)
}

// SetVisibility toggles whether students can see the course.
func (s *CourseService) SetVisibility(ctx context.Context, id, professorID string, visible bool) error {
	if _, err := s.ownedCourse(ctx, id, professorID); err != nil {
		return err
	}
	return s.store.Courses().SetVisibility(ctx, id, visible)
}

// Delete removes a course with its file records and vector rows. Only
// the owning professor may delete.
func (s *CourseService) Delete(ctx context.Context, id, professorID string) error {
	if _, err := s.ownedCourse(ctx, id, professorID); err != nil {
		return err
	}

	if err := s.store.CourseFiles().DeleteByCourse(ctx, id); err != nil {
		return err
	}
	if err := s.indexer.DeleteCourseChunks(ctx, id); err != nil {
		// Orphaned vectors are harmless to retrieval of other courses
		// but should be cleaned up; log and keep going.
		logger.Warnw("failed to delete course chunks", "course_id", id, "error", err.Error())
	}
	return s.store.Courses().Delete(ctx, id)
}

// Get fetches one course.
func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	return s.store.Courses().Get(ctx, id)
}

// List returns the courses a user may see: professors get their own
// courses (hidden included), everyone else gets visible courses only.
func (s *CourseService) List(ctx context.Context, user *model.User) ([]*model.Course, error) {
	if isProfessor(user) {
		return s.store.Courses().ListByProfessor(ctx, user.ID)
	}
	return s.store.Courses().ListVisible(ctx)
}

// AddFile records an uploaded file and schedules its indexing in the
// background. The caller does not wait for indexing.
func (s *CourseService) AddFile(ctx context.Context, professorID string, file *model.CourseFile) error {
	if _, err := s.ownedCourse(ctx, file.CourseID, professorID); err != nil {
		return err
	}

	if err := s.store.CourseFiles().Create(ctx, file); err != nil {
		return err
	}

	s.indexer.IndexFileAsync(file.FileID, file.FileName, file.FileURL, file.CourseID)
	return nil
}

// ListFiles returns a course's files, newest first.
func (s *CourseService) ListFiles(ctx context.Context, courseID string) ([]*model.CourseFile, error) {
	return s.store.CourseFiles().ListByCourse(ctx, courseID)
}

// RemoveFile deletes a file record and its vector rows.
func (s *CourseService) RemoveFile(ctx context.Context, professorID, courseID, fileID string) error {
	if _, err := s.ownedCourse(ctx, courseID, professorID); err != nil {
		return err
	}

	if err := s.indexer.DeleteFileChunks(ctx, fileID); err != nil {
		logger.Warnw("failed to delete file chunks", "file_id", fileID, "error", err.Error())
	}
	return s.store.CourseFiles().Delete(ctx, fileID)
}

// ownedCourse fetches a course and verifies ownership, failing closed
// on any mismatch.
func (s *CourseService) ownedCourse(ctx context.Context, id, professorID string) (*model.Course, error) {
	course, err := s.store.Courses().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.ProfessorID != professorID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/model"
)

type courses struct {
	db *gorm.DB
}

func newCourses(db *gorm.DB) *courses {
	return &courses{db}
}

// Create creates a new course.
func (c *courses) Create(ctx context.Context, course *model.Course) error {
	return c.db.WithContext(ctx).Create(course).Error
}

// Update updates an existing course.
func (c *courses) Update(ctx context.Context, course *model.Course) error {
	return c.db.WithContext(ctx).Save(course).Error
}

// Delete soft-deletes a course by ID.
func (c *courses) Delete(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Course{}).Error
}

// Get retrieves a course by ID.
func (c *courses) Get(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// ListVisible lists courses students are allowed to see.
func (c *courses) ListVisible(ctx context.Context) ([]*model.Course, error) {
	var out []*model.Course
	if err := c.db.WithContext(ctx).Where("is_visible = ?", true).Order("name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByProfessor lists all courses owned by a professor, hidden ones
// included.
func (c *courses) ListByProfessor(ctx context.Context, professorID string) ([]*model.Course, error) {
	var out []*model.Course
	if err := c.db.WithContext(ctx).Where("professor_id = ?", professorID).Order("name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetVisibility toggles whether a course is visible to students.
func (c *courses) SetVisibility(ctx context.Context, id string, visible bool) error {
	return c.db.WithContext(ctx).Model(&model.Course{}).Where("id = ?", id).Update("is_visible", visible).Error
}

type courseFiles struct {
	db *gorm.DB
}

func newCourseFiles(db *gorm.DB) *courseFiles {
	return &courseFiles{db}
}

// Create records an uploaded file.
func (c *courseFiles) Create(ctx context.Context, file *model.CourseFile) error {
	return c.db.WithContext(ctx).Create(file).Error
}

// Get retrieves a file record by file ID.
func (c *courseFiles) Get(ctx context.Context, fileID string) (*model.CourseFile, error) {
	var file model.CourseFile
	if err := c.db.WithContext(ctx).Where("file_id = ?", fileID).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByCourse lists the files of a course, newest first.
func (c *courseFiles) ListByCourse(ctx context.Context, courseID string) ([]*model.CourseFile, error) {
	var out []*model.CourseFile
	if err := c.db.WithContext(ctx).Where("course_id = ?", courseID).Order("uploaded_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a file record.
func (c *courseFiles) Delete(ctx context.Context, fileID string) error {
	return c.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&model.CourseFile{}).Error
}

// DeleteByCourse removes all file records of a course.
func (c *courseFiles) DeleteByCourse(ctx context.Context, courseID string) error {
	return c.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.CourseFile{}).Error
}

package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/model"
)

// datastore implements the Factory interface on a gorm.DB.
type datastore struct {
	db *gorm.DB
}

// NewFactory wraps a gorm.DB as a store factory.
func NewFactory(db *gorm.DB) (Factory, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is nil")
	}
	return &datastore{db}, nil
}

// Users returns the user store.
func (ds *datastore) Users() UserStore {
	return newUsers(ds.db)
}

// Courses returns the course store.
func (ds *datastore) Courses() CourseStore {
	return newCourses(ds.db)
}

// CourseFiles returns the course-file store.
func (ds *datastore) CourseFiles() CourseFileStore {
	return newCourseFiles(ds.db)
}

// Analytics returns the analytics-event store.
func (ds *datastore) Analytics() AnalyticsStore {
	return newAnalytics(ds.db)
}

// AutoMigrate migrates the database schema.
func (ds *datastore) AutoMigrate() error {
	return ds.db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseFile{},
		&model.AnalyticsEvent{},
	)
}

// Close closes the factory. The underlying connection is owned by the
// component client and closed there.
func (ds *datastore) Close() error {
	return nil
}

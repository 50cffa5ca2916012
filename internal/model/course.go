package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a course owned by a professor.
type Course struct {
	ID            string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name          string `json:"name" gorm:"size:255;not null"`
	Description   string `json:"description" gorm:"type:text"`
	ProfessorID   string `json:"professorId" gorm:"type:varchar(64);index;not null"`
	ProfessorName string `json:"professorName" gorm:"size:128"`

	// IsVisible controls whether students can see the course. Hidden
	// courses behave as nonexistent for students.
	IsVisible bool `json:"isVisible" gorm:"default:true"`

	CreatedAt time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for GORM.
func (c *Course) TableName() string {
	return "courses"
}

// CourseFile represents an uploaded course material file.
type CourseFile struct {
	FileID     string    `json:"fileId" gorm:"primaryKey;type:varchar(64)"`
	CourseID   string    `json:"courseId" gorm:"type:varchar(64);index;not null"`
	FileName   string    `json:"fileName" gorm:"size:255;not null"`
	FileURL    string    `json:"fileUrl" gorm:"size:512;not null"`
	FileSize   int64     `json:"fileSize"`
	FileType   string    `json:"fileType" gorm:"size:16"`
	UploadedAt time.Time `json:"uploadedAt" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (f *CourseFile) TableName() string {
	return "course_files"
}

// Package model provides data models for the study-buddy service.
package model

import (
	"time"

	"gorm.io/gorm"
)

// Role identifies what a user is allowed to see and do.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleProfessor
}

// User represents an account with tutoring preferences and the memory
// the assistant accumulates about them.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name         string `json:"name" gorm:"size:128;not null"`
	Email        string `json:"email" gorm:"size:128;uniqueIndex:uk_email;not null"`
	PasswordHash string `json:"-" gorm:"size:255"`
	Role         Role   `json:"role" gorm:"size:16;index;not null"`

	// Preference columns. Empty values fall back to defaults on decode.
	LearningStyle     string `json:"learningStyle" gorm:"size:32"`
	AcademicLevel     string `json:"academicLevel" gorm:"size:32"`
	Major             string `json:"major" gorm:"size:128"`
	PreferredLanguage string `json:"preferredLanguage" gorm:"size:64"`
	ResponseStyle     string `json:"responseStyle" gorm:"size:32"`
	Tone              string `json:"tone" gorm:"size:32"`

	// Memory columns.
	MemoryTopics      []string  `json:"memoryTopics" gorm:"serializer:json;type:text"`
	MemoryStrengths   []string  `json:"memoryStrengths" gorm:"serializer:json;type:text"`
	MemoryWeaknesses  []string  `json:"memoryWeaknesses" gorm:"serializer:json;type:text"`
	RecentQuestions   []string  `json:"recentQuestions" gorm:"serializer:json;type:text"`
	MemoryNotes       string    `json:"memoryNotes" gorm:"type:text"`
	MemoryLastUpdated time.Time `json:"memoryLastUpdated"`

	CreatedAt time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for GORM.
func (u *User) TableName() string {
	return "users"
}

// Preferences is the decoded preference set with defaults applied.
type Preferences struct {
	LearningStyle     string `json:"learningStyle"`
	AcademicLevel     string `json:"academicLevel"`
	Major             string `json:"major"`
	PreferredLanguage string `json:"preferredLanguage"`
	ResponseStyle     string `json:"responseStyle"`
	Tone              string `json:"tone"`
}

// Memory is the decoded assistant memory with defaults applied.
type Memory struct {
	Topics          []string  `json:"topics"`
	Strengths       []string  `json:"strengths"`
	Weaknesses      []string  `json:"weaknesses"`
	RecentQuestions []string  `json:"recentQuestions"`
	Notes           string    `json:"notes"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// Preferences decodes the preference columns. Every field has a default
// so rows written before a column existed still decode completely.
func (u *User) Preferences() Preferences {
	p := Preferences{
		LearningStyle:     u.LearningStyle,
		AcademicLevel:     u.AcademicLevel,
		Major:             u.Major,
		PreferredLanguage: u.PreferredLanguage,
		ResponseStyle:     u.ResponseStyle,
		Tone:              u.Tone,
	}
	if p.LearningStyle == "" {
		p.LearningStyle = "reading"
	}
	if p.AcademicLevel == "" {
		p.AcademicLevel = "sophomore"
	}
	if p.PreferredLanguage == "" {
		p.PreferredLanguage = "English"
	}
	if p.ResponseStyle == "" {
		p.ResponseStyle = "detailed"
	}
	if p.Tone == "" {
		p.Tone = "encouraging"
	}
	return p
}

// Memory decodes the memory columns, defaulting nil slices to empty.
func (u *User) Memory() Memory {
	m := Memory{
		Topics:          u.MemoryTopics,
		Strengths:       u.MemoryStrengths,
		Weaknesses:      u.MemoryWeaknesses,
		RecentQuestions: u.RecentQuestions,
		Notes:           u.MemoryNotes,
		LastUpdated:     u.MemoryLastUpdated,
	}
	if m.Topics == nil {
		m.Topics = []string{}
	}
	if m.Strengths == nil {
		m.Strengths = []string{}
	}
	if m.Weaknesses == nil {
		m.Weaknesses = []string{}
	}
	if m.RecentQuestions == nil {
		m.RecentQuestions = []string{}
	}
	return m
}

package task

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the three known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts a raw string into a Status, returning a
// ValidationError for anything outside the enumerated set.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", newValidationError("status", "must be one of: created, in_progress, completed")
	}
	return s, nil
}

type Task struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null;index"`
	Description string    `json:"description" gorm:"size:1000"`
	Status      Status    `json:"status" gorm:"type:text;not null;default:'created';index;check:status IN ('created', 'in_progress', 'completed')"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null"`
}

func (Task) TableName() string {
	return "tasks"
}

// Migrate creates or updates the tasks table schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Task{})
}

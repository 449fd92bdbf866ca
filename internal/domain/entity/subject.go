package entity

import (
	"time"
)

// Subject groups quizzes. RequiresApproval is per-subject configuration owned
// by the content collaborator; when false the access gate is open.
type Subject struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"size:100;not null" json:"title"`
	Description      string    `gorm:"size:500;not null;default:''" json:"description"`
	RequiresApproval bool      `gorm:"not null;default:false" json:"requires_approval"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Subject) TableName() string {
	return "subjects"
}

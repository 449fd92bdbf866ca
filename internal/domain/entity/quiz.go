package entity

import (
	"time"
)

// Quiz is a quiz definition. Content authoring is owned by an external
// collaborator; this core reads definitions to run and score attempts.
type Quiz struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SubjectID     uint       `gorm:"not null;index" json:"subject_id"`
	Title         string     `gorm:"size:100;not null" json:"title"`
	Description   string     `gorm:"size:500;not null;default:''" json:"description"`
	DurationMin   int        `gorm:"not null" json:"duration_min"`
	MaxAttempts   int        `gorm:"not null;default:0" json:"max_attempts"` // 0 = unbounded
	AvailableFrom *time.Time `gorm:"index" json:"available_from,omitempty"`
	AvailableTo   *time.Time `gorm:"index" json:"available_to,omitempty"`
	PassThreshold float64    `gorm:"not null;default:0" json:"pass_threshold"` // percentage, must be configured
	Questions     []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Quiz) TableName() string {
	return "quizzes"
}

// Duration returns the attempt time limit.
func (q *Quiz) Duration() time.Duration {
	return time.Duration(q.DurationMin) * time.Minute
}

// IsAvailableAt reports whether t falls inside the availability window.
// A missing bound leaves that side open-ended.
func (q *Quiz) IsAvailableAt(t time.Time) bool {
	if q.AvailableFrom != nil && t.Before(*q.AvailableFrom) {
		return false
	}
	if q.AvailableTo != nil && t.After(*q.AvailableTo) {
		return false
	}
	return true
}

// HasAttemptLimit reports whether the quiz bounds the number of attempts.
func (q *Quiz) HasAttemptLimit() bool {
	return q.MaxAttempts > 0
}

// TotalMarks returns the sum of all question marks, independent of what was
// answered.
func (q *Quiz) TotalMarks() float64 {
	var total float64
	for i := range q.Questions {
		total += q.Questions[i].Marks
	}
	return total
}

// QuestionByID returns the question with the given id, or nil.
func (q *Quiz) QuestionByID(questionID uint) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return &q.Questions[i]
		}
	}
	return nil
}

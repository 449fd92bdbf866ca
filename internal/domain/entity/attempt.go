package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Attempt statuses. in_progress is the only non-terminal state.
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
	AttemptStatusExpired    = "expired"
)

// Attempt results.
const (
	AttemptResultPass = "pass"
	AttemptResultFail = "fail"
)

// AnswerMap maps question id to the selected option indexes, stored as JSONB.
// Only answered questions have an entry.
type AnswerMap map[uint][]int

// Scan implements sql.Scanner for AnswerMap.
func (a *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*a = AnswerMap{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = AnswerMap{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value implements driver.Valuer for AnswerMap.
func (a AnswerMap) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Attempt is one learner's timed run through a quiz. Score fields are set
// exactly once, when the attempt reaches a terminal state; after that the row
// is immutable.
type Attempt struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	QuizID      uint       `gorm:"not null;index;uniqueIndex:idx_attempts_one_in_progress,where:status = 'in_progress'" json:"quiz_id"`
	UserID      uint       `gorm:"not null;index;uniqueIndex:idx_attempts_one_in_progress,where:status = 'in_progress'" json:"user_id"`
	Status      string     `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Answers     AnswerMap  `gorm:"type:jsonb;not null" json:"answers"`

	// Score breakdown, present only after the attempt is terminal.
	MarksObtained    float64 `gorm:"not null;default:0" json:"marks_obtained"`
	TotalMarks       float64 `gorm:"not null;default:0" json:"total_marks"`
	CorrectCount     int     `gorm:"not null;default:0" json:"correct_count"`
	IncorrectCount   int     `gorm:"not null;default:0" json:"incorrect_count"`
	UnattemptedCount int     `gorm:"not null;default:0" json:"unattempted_count"`
	Percentage       float64 `gorm:"not null;default:0" json:"percentage"`
	Result           string  `gorm:"size:10;not null;default:''" json:"result"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Attempt) TableName() string {
	return "attempts"
}

// IsTerminal reports whether the attempt reached a terminal state.
func (a *Attempt) IsTerminal() bool {
	return a.Status == AttemptStatusSubmitted || a.Status == AttemptStatusExpired
}

// DeadlinePassed reports whether the attempt deadline has passed at the given
// instant. Expiry is a pure function of stored state and current time; no
// background timer is involved.
func (a *Attempt) DeadlinePassed(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// RemainingTime returns how long the attempt may still be worked on, never
// negative.
func (a *Attempt) RemainingTime(now time.Time) time.Duration {
	if a.DeadlinePassed(now) {
		return 0
	}
	return a.ExpiresAt.Sub(now)
}

// AnsweredCount returns the number of questions with a recorded selection.
func (a *Attempt) AnsweredCount() int {
	return len(a.Answers)
}

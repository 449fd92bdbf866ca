package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type stored as JSONB.
type StringArray []string

// Scan implements sql.Scanner for StringArray.
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value implements driver.Valuer for StringArray.
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// IntArray is a custom type for JSONB arrays of option indexes.
type IntArray []int

// Scan implements sql.Scanner for IntArray.
func (o *IntArray) Scan(value interface{}) error {
	if value == nil {
		*o = IntArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = IntArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value implements driver.Valuer for IntArray.
func (o IntArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Question is one question inside a quiz definition.
// CorrectOptions holds the indexes of the correct options; a single-select
// question has exactly one entry, a multi-select question has one or more.
type Question struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	QuizID         uint        `gorm:"not null;index" json:"quiz_id"`
	Position       int         `gorm:"not null;default:0" json:"position"`
	Text           string      `gorm:"size:1000;not null" json:"text"`
	Options        StringArray `gorm:"type:jsonb;not null" json:"options"`
	CorrectOptions IntArray    `gorm:"type:jsonb;not null" json:"-"` // Hidden from clients
	MultiSelect    bool        `gorm:"not null;default:false" json:"multi_select"`
	Marks          float64     `gorm:"not null" json:"marks"`
	NegativeMarks  float64     `gorm:"not null;default:0" json:"negative_marks"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Question) TableName() string {
	return "questions"
}

// IsCorrect reports whether the selection exactly matches the correct-answer
// set. Order and duplicates within the selection are irrelevant; for
// multi-select questions the match is set equality.
func (q *Question) IsCorrect(selection []int) bool {
	if len(selection) == 0 {
		return false
	}

	want := make(map[int]struct{}, len(q.CorrectOptions))
	for _, idx := range q.CorrectOptions {
		want[idx] = struct{}{}
	}

	got := make(map[int]struct{}, len(selection))
	for _, idx := range selection {
		got[idx] = struct{}{}
	}

	if len(got) != len(want) {
		return false
	}
	for idx := range got {
		if _, ok := want[idx]; !ok {
			return false
		}
	}
	return true
}

// OptionsCount returns the number of answer options.
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// IsValidSelection reports whether every selected index is within range and
// whether the selection shape matches the question type (a single-select
// question accepts at most one index).
func (q *Question) IsValidSelection(selection []int) bool {
	if !q.MultiSelect && len(selection) > 1 {
		return false
	}
	for _, idx := range selection {
		if idx < 0 || idx >= len(q.Options) {
			return false
		}
	}
	return true
}

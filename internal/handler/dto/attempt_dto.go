package dto

import (
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// ScoreResponse is the score breakdown of a finished attempt.
type ScoreResponse struct {
	MarksObtained    float64 `json:"marks_obtained"`
	TotalMarks       float64 `json:"total_marks"`
	CorrectCount     int     `json:"correct_count"`
	IncorrectCount   int     `json:"incorrect_count"`
	UnattemptedCount int     `json:"unattempted_count"`
	Percentage       float64 `json:"percentage"`
	Result           string  `json:"result"`
}

// AttemptResponse is an attempt in client format. Score is present only once
// the attempt is terminal; RemainingSec only while it is in progress.
type AttemptResponse struct {
	ID            uint             `json:"id"`
	QuizID        uint             `json:"quiz_id"`
	UserID        uint             `json:"user_id"`
	Status        string           `json:"status"`
	StartedAt     time.Time        `json:"started_at"`
	ExpiresAt     time.Time        `json:"expires_at"`
	SubmittedAt   *time.Time       `json:"submitted_at,omitempty"`
	RemainingSec  *int64           `json:"remaining_sec,omitempty"`
	AnsweredCount int              `json:"answered_count"`
	Answers       entity.AnswerMap `json:"answers,omitempty"`
	Score         *ScoreResponse   `json:"score,omitempty"`
}

// NewAttemptResponse creates a DTO for an attempt. now feeds the remaining
// time countdown for in_progress attempts.
func NewAttemptResponse(attempt *entity.Attempt, now time.Time) *AttemptResponse {
	if attempt == nil {
		return nil
	}

	resp := &AttemptResponse{
		ID:            attempt.ID,
		QuizID:        attempt.QuizID,
		UserID:        attempt.UserID,
		Status:        attempt.Status,
		StartedAt:     attempt.StartedAt,
		ExpiresAt:     attempt.ExpiresAt,
		SubmittedAt:   attempt.SubmittedAt,
		AnsweredCount: attempt.AnsweredCount(),
		Answers:       attempt.Answers,
	}

	if attempt.IsTerminal() {
		resp.Score = &ScoreResponse{
			MarksObtained:    attempt.MarksObtained,
			TotalMarks:       attempt.TotalMarks,
			CorrectCount:     attempt.CorrectCount,
			IncorrectCount:   attempt.IncorrectCount,
			UnattemptedCount: attempt.UnattemptedCount,
			Percentage:       attempt.Percentage,
			Result:           attempt.Result,
		}
	} else {
		remaining := int64(attempt.RemainingTime(now).Seconds())
		resp.RemainingSec = &remaining
	}

	return resp
}

// NewListAttemptResponse creates DTOs for an attempt list.
func NewListAttemptResponse(attempts []entity.Attempt, now time.Time) []*AttemptResponse {
	list := make([]*AttemptResponse, len(attempts))
	for i := range attempts {
		list[i] = NewAttemptResponse(&attempts[i], now)
	}
	return list
}

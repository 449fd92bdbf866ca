package service

import (
	"fmt"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// ScoreBreakdown is the result of scoring one attempt. MarksObtained can be
// negative when negative marking outweighs correct answers; that is the quiz
// author's policy and is never floored.
type ScoreBreakdown struct {
	MarksObtained    float64 `json:"marks_obtained"`
	TotalMarks       float64 `json:"total_marks"`
	CorrectCount     int     `json:"correct_count"`
	IncorrectCount   int     `json:"incorrect_count"`
	UnattemptedCount int     `json:"unattempted_count"`
	Percentage       float64 `json:"percentage"`
	Result           string  `json:"result"`
}

// ScoreAttempt computes the score breakdown for a final answer set against a
// quiz definition. Pure function: no side effects, no I/O.
//
// Per question:
//   - no entry or empty selection → unattempted, 0 marks
//   - exact match of the correct-answer set → +marks
//   - non-empty non-matching selection → −negativeMarks
//
// percentage is 0 when the quiz carries no marks at all (defined, not an
// error). A quiz without a configured pass threshold is a configuration error
// the caller must fix; no default is invented here.
func ScoreAttempt(quiz *entity.Quiz, answers entity.AnswerMap) (*ScoreBreakdown, error) {
	if quiz.PassThreshold <= 0 {
		return nil, fmt.Errorf("%w: quiz #%d has no pass threshold configured", apperrors.ErrValidation, quiz.ID)
	}

	known := make(map[uint]struct{}, len(quiz.Questions))
	for i := range quiz.Questions {
		known[quiz.Questions[i].ID] = struct{}{}
	}
	for questionID := range answers {
		if _, ok := known[questionID]; !ok {
			return nil, fmt.Errorf("%w: answer references unknown question #%d", apperrors.ErrValidation, questionID)
		}
	}

	breakdown := &ScoreBreakdown{}

	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		breakdown.TotalMarks += question.Marks

		selection, answered := answers[question.ID]
		if !answered || len(selection) == 0 {
			breakdown.UnattemptedCount++
			continue
		}

		if question.IsCorrect(selection) {
			breakdown.CorrectCount++
			breakdown.MarksObtained += question.Marks
		} else {
			breakdown.IncorrectCount++
			breakdown.MarksObtained -= question.NegativeMarks
		}
	}

	if breakdown.TotalMarks > 0 {
		breakdown.Percentage = breakdown.MarksObtained / breakdown.TotalMarks * 100
	}

	if breakdown.Percentage >= quiz.PassThreshold {
		breakdown.Result = entity.AttemptResultPass
	} else {
		breakdown.Result = entity.AttemptResultFail
	}

	return breakdown, nil
}

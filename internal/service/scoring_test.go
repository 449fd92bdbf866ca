package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// twoQuestionQuiz is the worked example: marks [5,5], negative marks [1,1],
// pass threshold 50%.
func twoQuestionQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:            1,
		PassThreshold: 50,
		Questions: []entity.Question{
			{ID: 1, Options: entity.StringArray{"A", "B", "C"}, CorrectOptions: entity.IntArray{0}, Marks: 5, NegativeMarks: 1},
			{ID: 2, Options: entity.StringArray{"A", "B", "C"}, CorrectOptions: entity.IntArray{1}, Marks: 5, NegativeMarks: 1},
		},
	}
}

func TestScoreAttempt_OneCorrectOneIncorrect(t *testing.T) {
	// Arrange: Q1 correct, Q2 incorrect → 5 − 1 = 4 of 10 → 40%, fail
	quiz := twoQuestionQuiz()
	answers := entity.AnswerMap{1: {0}, 2: {2}}

	// Act
	breakdown, err := ScoreAttempt(quiz, answers)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4.0, breakdown.MarksObtained)
	assert.Equal(t, 10.0, breakdown.TotalMarks)
	assert.Equal(t, 1, breakdown.CorrectCount)
	assert.Equal(t, 1, breakdown.IncorrectCount)
	assert.Equal(t, 0, breakdown.UnattemptedCount)
	assert.InDelta(t, 40.0, breakdown.Percentage, 1e-9)
	assert.Equal(t, entity.AttemptResultFail, breakdown.Result)
}

func TestScoreAttempt_OneCorrectOneUnattempted(t *testing.T) {
	// Arrange: Q1 correct, Q2 unattempted → 5 of 10 → exactly 50%, pass
	quiz := twoQuestionQuiz()
	answers := entity.AnswerMap{1: {0}}

	// Act
	breakdown, err := ScoreAttempt(quiz, answers)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5.0, breakdown.MarksObtained)
	assert.Equal(t, 1, breakdown.UnattemptedCount)
	assert.InDelta(t, 50.0, breakdown.Percentage, 1e-9)
	assert.Equal(t, entity.AttemptResultPass, breakdown.Result)
}

func TestScoreAttempt_NegativeTotalNotFloored(t *testing.T) {
	// Arrange: all incorrect with aggressive negative marking
	quiz := &entity.Quiz{
		ID:            2,
		PassThreshold: 40,
		Questions: []entity.Question{
			{ID: 1, Options: entity.StringArray{"A", "B"}, CorrectOptions: entity.IntArray{0}, Marks: 2, NegativeMarks: 3},
			{ID: 2, Options: entity.StringArray{"A", "B"}, CorrectOptions: entity.IntArray{0}, Marks: 2, NegativeMarks: 3},
		},
	}
	answers := entity.AnswerMap{1: {1}, 2: {1}}

	// Act
	breakdown, err := ScoreAttempt(quiz, answers)

	// Assert: −6, not clamped to zero — the quiz author's policy is preserved
	require.NoError(t, err)
	assert.Equal(t, -6.0, breakdown.MarksObtained)
	assert.InDelta(t, -150.0, breakdown.Percentage, 1e-9)
	assert.Equal(t, entity.AttemptResultFail, breakdown.Result)
}

func TestScoreAttempt_EmptySelectionIsUnattempted(t *testing.T) {
	// Arrange
	quiz := twoQuestionQuiz()
	answers := entity.AnswerMap{1: {}}

	// Act
	breakdown, err := ScoreAttempt(quiz, answers)

	// Assert: no negative marking for an empty selection
	require.NoError(t, err)
	assert.Equal(t, 0.0, breakdown.MarksObtained)
	assert.Equal(t, 2, breakdown.UnattemptedCount)
	assert.Equal(t, 0, breakdown.IncorrectCount)
}

func TestScoreAttempt_MultiSelectSetEquality(t *testing.T) {
	// Arrange
	quiz := &entity.Quiz{
		ID:            3,
		PassThreshold: 50,
		Questions: []entity.Question{
			{ID: 1, Options: entity.StringArray{"A", "B", "C", "D"}, CorrectOptions: entity.IntArray{0, 2}, MultiSelect: true, Marks: 4, NegativeMarks: 2},
		},
	}

	// Act: exact set in different order
	full, err := ScoreAttempt(quiz, entity.AnswerMap{1: {2, 0}})
	require.NoError(t, err)

	// Partial match counts as incorrect, not partially correct
	partial, err := ScoreAttempt(quiz, entity.AnswerMap{1: {0}})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 4.0, full.MarksObtained)
	assert.Equal(t, -2.0, partial.MarksObtained)
}

func TestScoreAttempt_ZeroTotalMarks(t *testing.T) {
	// Arrange: a quiz with no questions carries no marks
	quiz := &entity.Quiz{ID: 4, PassThreshold: 50}

	// Act
	breakdown, err := ScoreAttempt(quiz, entity.AnswerMap{})

	// Assert: percentage is defined as 0, not a division error
	require.NoError(t, err)
	assert.Equal(t, 0.0, breakdown.Percentage)
	assert.Equal(t, entity.AttemptResultFail, breakdown.Result)
}

func TestScoreAttempt_MissingPassThreshold(t *testing.T) {
	// Arrange
	quiz := twoQuestionQuiz()
	quiz.PassThreshold = 0

	// Act
	_, err := ScoreAttempt(quiz, entity.AnswerMap{})

	// Assert: configuration error, no silent default
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestScoreAttempt_UnknownQuestionID(t *testing.T) {
	// Arrange
	quiz := twoQuestionQuiz()
	answers := entity.AnswerMap{99: {0}}

	// Act
	_, err := ScoreAttempt(quiz, answers)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

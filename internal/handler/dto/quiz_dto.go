package dto

import (
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// QuestionResponse is a question as shown to a taker. Correct options are
// never part of the payload.
type QuestionResponse struct {
	ID            uint     `json:"id"`
	QuizID        uint     `json:"quiz_id"`
	Position      int      `json:"position"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	MultiSelect   bool     `json:"multi_select"`
	Marks         float64  `json:"marks"`
	NegativeMarks float64  `json:"negative_marks"`
}

// QuizResponse is a quiz definition in client format.
type QuizResponse struct {
	ID            uint               `json:"id"`
	SubjectID     uint               `json:"subject_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	DurationMin   int                `json:"duration_min"`
	MaxAttempts   int                `json:"max_attempts"`
	AvailableFrom *time.Time         `json:"available_from,omitempty"`
	AvailableTo   *time.Time         `json:"available_to,omitempty"`
	PassThreshold float64            `json:"pass_threshold"`
	TotalMarks    float64            `json:"total_marks"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewQuestionResponse creates a DTO for one question.
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:            q.ID,
		QuizID:        q.QuizID,
		Position:      q.Position,
		Text:          q.Text,
		Options:       []string(q.Options),
		MultiSelect:   q.MultiSelect,
		Marks:         q.Marks,
		NegativeMarks: q.NegativeMarks,
	}
}

// NewQuizResponse creates a DTO for a quiz, optionally with its questions.
func NewQuizResponse(quiz *entity.Quiz, includeQuestions bool) *QuizResponse {
	if quiz == nil {
		return nil
	}

	var questionsDTO []QuestionResponse
	if includeQuestions {
		questionsDTO = make([]QuestionResponse, len(quiz.Questions))
		for i := range quiz.Questions {
			questionsDTO[i] = NewQuestionResponse(&quiz.Questions[i])
		}
	}

	return &QuizResponse{
		ID:            quiz.ID,
		SubjectID:     quiz.SubjectID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		DurationMin:   quiz.DurationMin,
		MaxAttempts:   quiz.MaxAttempts,
		AvailableFrom: quiz.AvailableFrom,
		AvailableTo:   quiz.AvailableTo,
		PassThreshold: quiz.PassThreshold,
		TotalMarks:    quiz.TotalMarks(),
		QuestionCount: len(quiz.Questions),
		Questions:     questionsDTO,
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
	}
}

// NewListQuizResponse creates DTOs for a quiz list, questions excluded.
func NewListQuizResponse(quizzes []entity.Quiz) []*QuizResponse {
	list := make([]*QuizResponse, len(quizzes))
	for i := range quizzes {
		list[i] = NewQuizResponse(&quizzes[i], false)
	}
	return list
}

package service

import (
	"fmt"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
)

// QuizService exposes the quiz catalog read-side. Authoring lives elsewhere;
// attempt-takers and admin screens only ever read definitions here.
type QuizService struct {
	quizRepo repository.QuizRepository
}

// NewQuizService creates a new quiz catalog service.
func NewQuizService(quizRepo repository.QuizRepository) *QuizService {
	return &QuizService{quizRepo: quizRepo}
}

// GetByID returns the quiz definition without questions.
func (s *QuizService) GetByID(quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}
	return quiz, nil
}

// GetWithQuestions returns the quiz with its ordered questions. Correct
// options never serialize, so this is safe to show to a taker mid-attempt.
func (s *QuizService) GetWithQuestions(quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}
	return quiz, nil
}

// List returns a page of quiz definitions.
func (s *QuizService) List(limit, offset int) ([]entity.Quiz, error) {
	return s.quizRepo.List(limit, offset)
}

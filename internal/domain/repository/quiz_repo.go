package repository

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// QuizRepository reads quiz definitions. Authoring is owned by the content
// collaborator, so this core only consumes the catalog.
type QuizRepository interface {
	GetByID(id uint) (*entity.Quiz, error)
	// GetWithQuestions returns the quiz together with its ordered questions.
	GetWithQuestions(id uint) (*entity.Quiz, error)
	List(limit, offset int) ([]entity.Quiz, error)
}

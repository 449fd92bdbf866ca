package repository

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// SubjectRepository reads subjects. Subject CRUD is owned by the content
// collaborator.
type SubjectRepository interface {
	GetByID(id uint) (*entity.Subject, error)
}

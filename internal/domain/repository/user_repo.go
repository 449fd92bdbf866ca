package repository

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// UserRepository reads user display data for rankings and exports.
type UserRepository interface {
	GetByID(id uint) (*entity.User, error)
	// GetByIDs returns the users for the given ids, keyed by id. Missing ids
	// are simply absent from the map.
	GetByIDs(ids []uint) (map[uint]entity.User, error)
}

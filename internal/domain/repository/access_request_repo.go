package repository

import (
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// AccessRequestRepository persists subject access requests. Creation is
// atomic with the one-pending-per-(user,subject) check, and decisions are a
// compare-and-update on the pending status.
type AccessRequestRepository interface {
	// CreatePending inserts a new pending request. The partial unique index
	// on (user_id, subject_id) WHERE status = 'pending' surfaces a duplicate
	// as errors.ErrConflict. Terminal prior requests do not block.
	CreatePending(request *entity.SubjectAccessRequest) error

	GetByID(id uint) (*entity.SubjectAccessRequest, error)

	// Decide transitions a pending request to the given terminal status,
	// setting decided_at. Guarded on status = 'pending'; zero rows affected
	// surfaces as errors.ErrInvalidState so a second concurrent decision is
	// rejected, not silently accepted.
	Decide(requestID uint, status string, decidedAt time.Time) error

	// HasApproved reports whether an approved request exists for the pair.
	HasApproved(userID, subjectID uint) (bool, error)

	// ListByStatus returns requests with the given status, oldest first,
	// for the admin approval screens. Empty status means all.
	ListByStatus(status string, limit, offset int) ([]entity.SubjectAccessRequest, int64, error)
}

package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// AccessRequestRepo implements repository.AccessRequestRepository.
type AccessRequestRepo struct {
	db *gorm.DB
}

// NewAccessRequestRepo creates a new access request repository.
func NewAccessRequestRepo(db *gorm.DB) *AccessRequestRepo {
	return &AccessRequestRepo{db: db}
}

// CreatePending inserts a new pending request.
// The partial unique index idx_access_requests_one_pending makes the insert
// atomic with the "no duplicate pending request" check:
// - 23505 (unique violation) → ErrConflict, a pending request already exists
// - terminal prior requests never collide, so re-filing after a rejection works
func (r *AccessRequestRepo) CreatePending(request *entity.SubjectAccessRequest) error {
	request.Status = entity.AccessRequestStatusPending
	request.DecidedAt = nil

	if err := r.db.Create(request).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pending request already exists for user #%d subject #%d",
				apperrors.ErrConflict, request.UserID, request.SubjectID)
		}
		return err
	}
	return nil
}

// GetByID returns a request by id.
func (r *AccessRequestRepo) GetByID(id uint) (*entity.SubjectAccessRequest, error) {
	var request entity.SubjectAccessRequest
	err := r.db.First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// Decide transitions pending → approved/rejected via compare-and-update.
// RowsAffected == 0 means the request is no longer pending (e.g. a second
// concurrent admin click) → ErrInvalidState, never a silent second write.
func (r *AccessRequestRepo) Decide(requestID uint, status string, decidedAt time.Time) error {
	result := r.db.Model(&entity.SubjectAccessRequest{}).
		Where("id = ? AND status = ?", requestID, entity.AccessRequestStatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"decided_at": decidedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: request #%d is not pending", apperrors.ErrInvalidState, requestID)
	}
	return nil
}

// HasApproved reports whether an approved request exists for the pair.
func (r *AccessRequestRepo) HasApproved(userID, subjectID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.SubjectAccessRequest{}).
		Where("user_id = ? AND subject_id = ? AND status = ?",
			userID, subjectID, entity.AccessRequestStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByStatus returns requests filtered by status with total count, oldest
// first so the approval queue is processed in arrival order.
func (r *AccessRequestRepo) ListByStatus(status string, limit, offset int) ([]entity.SubjectAccessRequest, int64, error) {
	query := r.db.Model(&entity.SubjectAccessRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []entity.SubjectAccessRequest
	err := query.Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// AttemptRepo implements repository.AttemptRepository.
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo creates a new attempt repository.
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateInProgress inserts a new in_progress attempt.
// The partial unique index idx_attempts_one_in_progress makes the insert
// atomic with the "no concurrent in_progress attempt" check:
// - 23505 (unique violation) → ErrConflict, the caller already has one running
// - any other DB error is returned as-is
func (r *AttemptRepo) CreateInProgress(attempt *entity.Attempt) error {
	attempt.Status = entity.AttemptStatusInProgress
	if attempt.Answers == nil {
		attempt.Answers = entity.AnswerMap{}
	}

	if err := r.db.Create(attempt).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: attempt already in progress for user #%d quiz #%d",
				apperrors.ErrConflict, attempt.UserID, attempt.QuizID)
		}
		return err
	}
	return nil
}

// GetByID returns an attempt by id.
func (r *AttemptRepo) GetByID(id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// UpdateAnswers replaces the answer map, guarded on status = 'in_progress'.
// RowsAffected == 0 means the attempt went terminal under us → ErrInvalidState.
func (r *AttemptRepo) UpdateAnswers(attemptID uint, answers entity.AnswerMap) error {
	result := r.db.Model(&entity.Attempt{}).
		Where("id = ? AND status = ?", attemptID, entity.AttemptStatusInProgress).
		Update("answers", answers)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: attempt #%d is not in progress", apperrors.ErrInvalidState, attemptID)
	}
	return nil
}

// Finalize transitions in_progress → submitted/expired and stores the score
// in one compare-and-update statement. RowsAffected == 0 means another caller
// finalized it first → ErrInvalidState.
func (r *AttemptRepo) Finalize(attempt *entity.Attempt) error {
	result := r.db.Model(&entity.Attempt{}).
		Where("id = ? AND status = ?", attempt.ID, entity.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"status":            attempt.Status,
			"submitted_at":      attempt.SubmittedAt,
			"answers":           attempt.Answers,
			"marks_obtained":    attempt.MarksObtained,
			"total_marks":       attempt.TotalMarks,
			"correct_count":     attempt.CorrectCount,
			"incorrect_count":   attempt.IncorrectCount,
			"unattempted_count": attempt.UnattemptedCount,
			"percentage":        attempt.Percentage,
			"result":            attempt.Result,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: attempt #%d is not in progress", apperrors.ErrInvalidState, attempt.ID)
	}
	return nil
}

// CountTerminal returns the number of submitted + expired attempts for the
// (user, quiz) pair.
func (r *AttemptRepo) CountTerminal(userID, quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Attempt{}).
		Where("user_id = ? AND quiz_id = ? AND status IN ?",
			userID, quizID, []string{entity.AttemptStatusSubmitted, entity.AttemptStatusExpired}).
		Count(&count).Error
	return count, err
}

// ListTerminal returns all terminal attempts within scope, ordered by
// submission time so aggregation sees a deterministic sequence.
func (r *AttemptRepo) ListTerminal(scope repository.AttemptScope) ([]entity.Attempt, error) {
	query := r.db.Where("status IN ?",
		[]string{entity.AttemptStatusSubmitted, entity.AttemptStatusExpired})

	if scope.QuizID != nil {
		query = query.Where("quiz_id = ?", *scope.QuizID)
	}

	var attempts []entity.Attempt
	err := query.Order("submitted_at ASC, id ASC").Find(&attempts).Error
	return attempts, err
}

// ListTerminalByUser returns the user's terminal attempts, newest first.
func (r *AttemptRepo) ListTerminalByUser(userID uint, limit, offset int) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.Where("user_id = ? AND status IN ?",
		userID, []string{entity.AttemptStatusSubmitted, entity.AttemptStatusExpired}).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	return attempts, err
}

// ListOverdueInProgress returns in_progress attempts whose deadline is at or
// before now, oldest deadline first.
func (r *AttemptRepo) ListOverdueInProgress(now time.Time, limit int) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.Where("status = ? AND expires_at <= ?", entity.AttemptStatusInProgress, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

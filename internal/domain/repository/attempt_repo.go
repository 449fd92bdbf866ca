package repository

import (
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// AttemptScope narrows which terminal attempts an aggregation reads.
// A nil QuizID means all quizzes.
type AttemptScope struct {
	QuizID *uint
}

// AttemptRepository persists attempts. The write methods encode the state
// machine's atomicity requirements: creation is atomic with the
// one-in_progress-per-(user,quiz) uniqueness check, and finalization is a
// compare-and-update on status so two racing transitions cannot both win.
type AttemptRepository interface {
	// CreateInProgress inserts a new in_progress attempt. The partial unique
	// index on (user_id, quiz_id) WHERE status = 'in_progress' makes the
	// insert atomic with the uniqueness check; a violation surfaces as
	// errors.ErrConflict.
	CreateInProgress(attempt *entity.Attempt) error

	GetByID(id uint) (*entity.Attempt, error)

	// UpdateAnswers replaces the answer map of an attempt, guarded on
	// status = 'in_progress'. Zero rows affected surfaces as
	// errors.ErrInvalidState.
	UpdateAnswers(attemptID uint, answers entity.AnswerMap) error

	// Finalize transitions an in_progress attempt to the given terminal
	// status and writes the score breakdown in the same statement. Guarded on
	// status = 'in_progress'; zero rows affected surfaces as
	// errors.ErrInvalidState (another caller already finalized it).
	Finalize(attempt *entity.Attempt) error

	// CountTerminal returns the number of submitted + expired attempts the
	// user has on the quiz.
	CountTerminal(userID, quizID uint) (int64, error)

	// ListTerminal returns all terminal attempts within scope, for ranking
	// aggregation.
	ListTerminal(scope AttemptScope) ([]entity.Attempt, error)

	// ListTerminalByUser returns the user's terminal attempts, newest first.
	ListTerminalByUser(userID uint, limit, offset int) ([]entity.Attempt, error)

	// ListOverdueInProgress returns up to limit in_progress attempts whose
	// deadline is at or before now. Used by the optional expiry reconciler;
	// lazy expiry on access remains authoritative.
	ListOverdueInProgress(now time.Time, limit int) ([]entity.Attempt, error)
}

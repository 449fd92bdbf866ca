package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// Authorizer is the access-gate view the attempt state machine needs.
type Authorizer interface {
	IsAuthorized(userID, subjectID uint) (bool, error)
}

// AttemptService owns the attempt state machine: creation, answer mutation,
// timeout and submission. Expiry is detected lazily on any access by comparing
// the stored deadline against the injected clock; no background timer is
// required for correctness.
type AttemptService struct {
	attemptRepo repository.AttemptRepository
	quizRepo    repository.QuizRepository
	gate        Authorizer
	clock       Clock
}

// NewAttemptService creates a new attempt session manager.
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	gate Authorizer,
	clock Clock,
) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		gate:        gate,
		clock:       clock,
	}
}

// Start creates a new in_progress attempt for (userID, quizID).
// Precondition failures map to distinct errors: ErrForbidden (gate denies),
// ErrNotAvailable (outside availability window), ErrAttemptLimitExceeded,
// ErrConflict (an in_progress attempt already exists — enforced atomically by
// the insert, not by a racy check-then-write).
func (s *AttemptService) Start(userID, quizID uint) (*entity.Attempt, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}

	// A quiz that cannot be timed or scored must be fixed by the author
	// before anyone may start it.
	if quiz.DurationMin <= 0 || quiz.PassThreshold <= 0 {
		return nil, fmt.Errorf("%w: quiz #%d is misconfigured (duration or pass threshold missing)",
			apperrors.ErrValidation, quizID)
	}

	authorized, err := s.gate.IsAuthorized(userID, quiz.SubjectID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, fmt.Errorf("%w: subject #%d requires approval", apperrors.ErrForbidden, quiz.SubjectID)
	}

	now := s.clock.Now()
	if !quiz.IsAvailableAt(now) {
		return nil, fmt.Errorf("%w: quiz #%d is outside its availability window", apperrors.ErrNotAvailable, quizID)
	}

	if quiz.HasAttemptLimit() {
		used, err := s.attemptRepo.CountTerminal(userID, quizID)
		if err != nil {
			return nil, err
		}
		if used >= int64(quiz.MaxAttempts) {
			return nil, fmt.Errorf("%w: %d of %d attempts used", apperrors.ErrAttemptLimitExceeded, used, quiz.MaxAttempts)
		}
	}

	attempt := &entity.Attempt{
		QuizID:    quizID,
		UserID:    userID,
		Status:    entity.AttemptStatusInProgress,
		StartedAt: now,
		ExpiresAt: now.Add(quiz.Duration()),
		Answers:   entity.AnswerMap{},
	}

	if err := s.attemptRepo.CreateInProgress(attempt); err != nil {
		return nil, err
	}

	log.Printf("[AttemptService] attempt #%d started: user #%d quiz #%d expires %v",
		attempt.ID, userID, quizID, attempt.ExpiresAt)
	return attempt, nil
}

// RecordAnswer records (or overwrites) the selection for one question.
// Last write wins; an empty selection clears the entry, which scores as
// unattempted. Once the deadline has passed the attempt is expired as a side
// effect — with its pre-deadline answers — and ErrExpired is returned.
func (s *AttemptService) RecordAnswer(attemptID, userID, questionID uint, selection []int) (*entity.Attempt, error) {
	attempt, err := s.ownedAttempt(attemptID, userID)
	if err != nil {
		return nil, err
	}

	if attempt.IsTerminal() {
		return nil, fmt.Errorf("%w: attempt #%d is %s", apperrors.ErrInvalidState, attemptID, attempt.Status)
	}

	quiz, err := s.quizRepo.GetWithQuestions(attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", attempt.QuizID, err)
	}

	if attempt.DeadlinePassed(s.clock.Now()) {
		s.expireAttempt(attempt, quiz)
		return nil, fmt.Errorf("%w: attempt #%d", apperrors.ErrExpired, attemptID)
	}

	question := quiz.QuestionByID(questionID)
	if question == nil {
		return nil, fmt.Errorf("%w: question #%d is not part of quiz #%d", apperrors.ErrNotFound, questionID, quiz.ID)
	}
	if !question.IsValidSelection(selection) {
		return nil, fmt.Errorf("%w: invalid selection for question #%d", apperrors.ErrValidation, questionID)
	}

	if len(selection) == 0 {
		delete(attempt.Answers, questionID)
	} else {
		attempt.Answers[questionID] = selection
	}

	if err := s.attemptRepo.UpdateAnswers(attempt.ID, attempt.Answers); err != nil {
		// The attempt went terminal between our read and the guarded write.
		if errors.Is(err, apperrors.ErrInvalidState) {
			return nil, s.refreshTerminalError(attemptID)
		}
		return nil, err
	}

	return attempt, nil
}

// Submit finalizes an in_progress attempt with a score. Idempotent for
// already-submitted attempts: the stored score is returned unchanged, so
// duplicate network retries are harmless. A submit after expiry is rejected
// with ErrInvalidState — expiry already auto-submitted the last known answers
// and the transition audit trail stays unambiguous.
func (s *AttemptService) Submit(attemptID, userID uint) (*entity.Attempt, error) {
	attempt, err := s.ownedAttempt(attemptID, userID)
	if err != nil {
		return nil, err
	}

	if attempt.Status == entity.AttemptStatusSubmitted {
		return attempt, nil
	}
	if attempt.Status == entity.AttemptStatusExpired {
		return nil, fmt.Errorf("%w: attempt #%d already expired", apperrors.ErrInvalidState, attemptID)
	}

	quiz, err := s.quizRepo.GetWithQuestions(attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", attempt.QuizID, err)
	}

	now := s.clock.Now()
	if attempt.DeadlinePassed(now) {
		s.expireAttempt(attempt, quiz)
		return nil, fmt.Errorf("%w: attempt #%d already expired", apperrors.ErrInvalidState, attemptID)
	}

	breakdown, err := ScoreAttempt(quiz, attempt.Answers)
	if err != nil {
		return nil, err
	}

	attempt.Status = entity.AttemptStatusSubmitted
	attempt.SubmittedAt = &now
	applyBreakdown(attempt, breakdown)

	if err := s.attemptRepo.Finalize(attempt); err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) {
			// Lost the race against a concurrent submit or expiry; report
			// whatever terminal state won.
			fresh, freshErr := s.attemptRepo.GetByID(attemptID)
			if freshErr != nil {
				return nil, freshErr
			}
			if fresh.Status == entity.AttemptStatusSubmitted {
				return fresh, nil
			}
			return nil, fmt.Errorf("%w: attempt #%d already expired", apperrors.ErrInvalidState, attemptID)
		}
		return nil, err
	}

	log.Printf("[AttemptService] attempt #%d submitted: %.2f/%.2f (%s)",
		attempt.ID, attempt.MarksObtained, attempt.TotalMarks, attempt.Result)
	return attempt, nil
}

// Get returns the attempt for its owner, applying lazy expiry first so a read
// after the deadline always observes the terminal state and its score.
func (s *AttemptService) Get(attemptID, userID uint) (*entity.Attempt, error) {
	attempt, err := s.ownedAttempt(attemptID, userID)
	if err != nil {
		return nil, err
	}

	if attempt.Status == entity.AttemptStatusInProgress && attempt.DeadlinePassed(s.clock.Now()) {
		quiz, err := s.quizRepo.GetWithQuestions(attempt.QuizID)
		if err != nil {
			return nil, fmt.Errorf("quiz #%d: %w", attempt.QuizID, err)
		}
		s.expireAttempt(attempt, quiz)
		return s.attemptRepo.GetByID(attemptID)
	}

	return attempt, nil
}

// History returns the user's terminal attempts, newest first. In_progress
// attempts are excluded; they are reachable through Get until they finish.
func (s *AttemptService) History(userID uint, limit, offset int) ([]entity.Attempt, error) {
	return s.attemptRepo.ListTerminalByUser(userID, limit, offset)
}

// ExpireOverdue finalizes up to limit in_progress attempts whose deadline has
// passed. Called by the optional reconciler; lazy expiry on access remains
// authoritative, this only makes results visible to rankings sooner.
func (s *AttemptService) ExpireOverdue(limit int) (int, error) {
	overdue, err := s.attemptRepo.ListOverdueInProgress(s.clock.Now(), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range overdue {
		attempt := &overdue[i]
		quiz, err := s.quizRepo.GetWithQuestions(attempt.QuizID)
		if err != nil {
			log.Printf("[AttemptService] reconcile: quiz #%d for attempt #%d: %v", attempt.QuizID, attempt.ID, err)
			continue
		}
		if s.expireAttempt(attempt, quiz) {
			expired++
		}
	}
	return expired, nil
}

// expireAttempt transitions in_progress → expired, scoring whatever answers
// exist. submittedAt is the deadline, not "now", so scoring and ranking
// timestamps are deterministic regardless of when expiry was noticed.
// Returns false when a concurrent caller finalized the attempt first.
func (s *AttemptService) expireAttempt(attempt *entity.Attempt, quiz *entity.Quiz) bool {
	breakdown, err := ScoreAttempt(quiz, attempt.Answers)
	if err != nil {
		log.Printf("[AttemptService] scoring expired attempt #%d failed: %v", attempt.ID, err)
		return false
	}

	deadline := attempt.ExpiresAt
	attempt.Status = entity.AttemptStatusExpired
	attempt.SubmittedAt = &deadline
	applyBreakdown(attempt, breakdown)

	if err := s.attemptRepo.Finalize(attempt); err != nil {
		if !errors.Is(err, apperrors.ErrInvalidState) {
			log.Printf("[AttemptService] expiring attempt #%d failed: %v", attempt.ID, err)
		}
		return false
	}

	log.Printf("[AttemptService] attempt #%d expired at %v: %.2f/%.2f",
		attempt.ID, deadline, attempt.MarksObtained, attempt.TotalMarks)
	return true
}

// ownedAttempt loads the attempt and enforces that attempts are owned
// exclusively by their creating user.
func (s *AttemptService) ownedAttempt(attemptID, userID uint) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, fmt.Errorf("attempt #%d: %w", attemptID, err)
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("%w: attempt #%d belongs to another user", apperrors.ErrForbidden, attemptID)
	}
	return attempt, nil
}

// refreshTerminalError re-reads the attempt after a lost guarded write and
// maps the observed terminal state to the right error.
func (s *AttemptService) refreshTerminalError(attemptID uint) error {
	fresh, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return err
	}
	if fresh.Status == entity.AttemptStatusExpired {
		return fmt.Errorf("%w: attempt #%d", apperrors.ErrExpired, attemptID)
	}
	return fmt.Errorf("%w: attempt #%d is %s", apperrors.ErrInvalidState, attemptID, fresh.Status)
}

func applyBreakdown(attempt *entity.Attempt, breakdown *ScoreBreakdown) {
	attempt.MarksObtained = breakdown.MarksObtained
	attempt.TotalMarks = breakdown.TotalMarks
	attempt.CorrectCount = breakdown.CorrectCount
	attempt.IncorrectCount = breakdown.IncorrectCount
	attempt.UnattemptedCount = breakdown.UnattemptedCount
	attempt.Percentage = breakdown.Percentage
	attempt.Result = breakdown.Result
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

var testStart = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func attemptTestQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:            10,
		SubjectID:     3,
		DurationMin:   30,
		MaxAttempts:   2,
		PassThreshold: 50,
		Questions: []entity.Question{
			{ID: 1, QuizID: 10, Options: entity.StringArray{"A", "B", "C"}, CorrectOptions: entity.IntArray{0}, Marks: 5, NegativeMarks: 1},
			{ID: 2, QuizID: 10, Options: entity.StringArray{"A", "B", "C"}, CorrectOptions: entity.IntArray{1}, Marks: 5, NegativeMarks: 1},
		},
	}
}

func newAttemptServiceForTest(t *testing.T) (*AttemptService, *MockAttemptRepository, *MockQuizRepository, *MockAuthorizer, *fixedClock) {
	t.Helper()
	attemptRepo := new(MockAttemptRepository)
	quizRepo := new(MockQuizRepository)
	gate := new(MockAuthorizer)
	clock := &fixedClock{now: testStart}
	svc := NewAttemptService(attemptRepo, quizRepo, gate, clock)
	return svc, attemptRepo, quizRepo, gate, clock
}

func TestAttemptService_Start_Success(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, gate, _ := newAttemptServiceForTest(t)
	quiz := attemptTestQuiz()

	quizRepo.On("GetWithQuestions", uint(10)).Return(quiz, nil)
	gate.On("IsAuthorized", uint(7), uint(3)).Return(true, nil)
	attemptRepo.On("CountTerminal", uint(7), uint(10)).Return(int64(0), nil)
	attemptRepo.On("CreateInProgress", mock.AnythingOfType("*entity.Attempt")).Return(nil)

	// Act
	attempt, err := svc.Start(7, 10)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.AttemptStatusInProgress, attempt.Status)
	assert.Equal(t, testStart, attempt.StartedAt)
	assert.Equal(t, testStart.Add(30*time.Minute), attempt.ExpiresAt)
	assert.Empty(t, attempt.Answers)
	attemptRepo.AssertExpectations(t)
}

func TestAttemptService_Start_Forbidden(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, gate, _ := newAttemptServiceForTest(t)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	gate.On("IsAuthorized", uint(7), uint(3)).Return(false, nil)

	// Act
	_, err := svc.Start(7, 10)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	attemptRepo.AssertNotCalled(t, "CreateInProgress", mock.Anything)
}

func TestAttemptService_Start_OutsideAvailabilityWindow(t *testing.T) {
	// Arrange: window closed an hour before the clock's now
	svc, _, quizRepo, gate, _ := newAttemptServiceForTest(t)
	quiz := attemptTestQuiz()
	closed := testStart.Add(-time.Hour)
	quiz.AvailableTo = &closed

	quizRepo.On("GetWithQuestions", uint(10)).Return(quiz, nil)
	gate.On("IsAuthorized", uint(7), uint(3)).Return(true, nil)

	// Act
	_, err := svc.Start(7, 10)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)
}

func TestAttemptService_Start_AttemptLimitExceeded(t *testing.T) {
	// Arrange: MaxAttempts = 2, two terminal attempts already on record
	svc, attemptRepo, quizRepo, gate, _ := newAttemptServiceForTest(t)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	gate.On("IsAuthorized", uint(7), uint(3)).Return(true, nil)
	attemptRepo.On("CountTerminal", uint(7), uint(10)).Return(int64(2), nil)

	// Act
	_, err := svc.Start(7, 10)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrAttemptLimitExceeded)
	attemptRepo.AssertNotCalled(t, "CreateInProgress", mock.Anything)
}

func TestAttemptService_Start_ConflictFromAtomicInsert(t *testing.T) {
	// Arrange: the insert loses the uniqueness race, the repo reports Conflict
	svc, attemptRepo, quizRepo, gate, _ := newAttemptServiceForTest(t)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	gate.On("IsAuthorized", uint(7), uint(3)).Return(true, nil)
	attemptRepo.On("CountTerminal", uint(7), uint(10)).Return(int64(0), nil)
	attemptRepo.On("CreateInProgress", mock.AnythingOfType("*entity.Attempt")).Return(apperrors.ErrConflict)

	// Act
	_, err := svc.Start(7, 10)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAttemptService_Start_MisconfiguredQuiz(t *testing.T) {
	// Arrange: no pass threshold configured
	svc, _, quizRepo, _, _ := newAttemptServiceForTest(t)
	quiz := attemptTestQuiz()
	quiz.PassThreshold = 0
	quizRepo.On("GetWithQuestions", uint(10)).Return(quiz, nil)

	// Act
	_, err := svc.Start(7, 10)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func inProgressAttempt() *entity.Attempt {
	return &entity.Attempt{
		ID:        100,
		QuizID:    10,
		UserID:    7,
		Status:    entity.AttemptStatusInProgress,
		StartedAt: testStart,
		ExpiresAt: testStart.Add(30 * time.Minute),
		Answers:   entity.AnswerMap{},
	}
}

func TestAttemptService_RecordAnswer_LastWriteWins(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, _, _ := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Answers = entity.AnswerMap{1: {2}}

	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	attemptRepo.On("UpdateAnswers", uint(100), mock.AnythingOfType("entity.AnswerMap")).Return(nil)

	// Act: overwrite the earlier selection for question 1
	updated, err := svc.RecordAnswer(100, 7, 1, []int{0})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{0}, updated.Answers[1])
}

func TestAttemptService_RecordAnswer_EmptySelectionClears(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, _, _ := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Answers = entity.AnswerMap{1: {2}}

	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	attemptRepo.On("UpdateAnswers", uint(100), mock.AnythingOfType("entity.AnswerMap")).Return(nil)

	// Act
	updated, err := svc.RecordAnswer(100, 7, 1, nil)

	// Assert: the entry is gone, which scores as unattempted
	require.NoError(t, err)
	_, present := updated.Answers[1]
	assert.False(t, present)
}

func TestAttemptService_RecordAnswer_UnknownQuestion(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, _, _ := newAttemptServiceForTest(t)
	attemptRepo.On("GetByID", uint(100)).Return(inProgressAttempt(), nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)

	// Act
	_, err := svc.RecordAnswer(100, 7, 99, []int{0})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAttemptService_RecordAnswer_InvalidSelection(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, _, _ := newAttemptServiceForTest(t)
	attemptRepo.On("GetByID", uint(100)).Return(inProgressAttempt(), nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)

	// Act: option index out of range
	_, err := svc.RecordAnswer(100, 7, 1, []int{5})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAttemptService_RecordAnswer_AnotherUsersAttempt(t *testing.T) {
	// Arrange
	svc, attemptRepo, _, _, _ := newAttemptServiceForTest(t)
	attemptRepo.On("GetByID", uint(100)).Return(inProgressAttempt(), nil)

	// Act
	_, err := svc.RecordAnswer(100, 8, 1, []int{0})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAttemptService_RecordAnswer_PastDeadline(t *testing.T) {
	// Arrange: clock advanced past the deadline
	svc, attemptRepo, quizRepo, _, clock := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Answers = entity.AnswerMap{1: {0}}
	clock.Advance(31 * time.Minute)

	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	attemptRepo.On("Finalize", mock.AnythingOfType("*entity.Attempt")).Return(nil)

	// Act
	_, err := svc.RecordAnswer(100, 7, 2, []int{1})

	// Assert: ErrExpired, and the attempt was finalized as expired with the
	// pre-deadline answers — the late answer never landed.
	assert.ErrorIs(t, err, apperrors.ErrExpired)
	attemptRepo.AssertCalled(t, "Finalize", mock.MatchedBy(func(a *entity.Attempt) bool {
		return a.Status == entity.AttemptStatusExpired &&
			a.SubmittedAt != nil && a.SubmittedAt.Equal(a.ExpiresAt) &&
			len(a.Answers) == 1 &&
			a.MarksObtained == 5.0
	}))
	attemptRepo.AssertNotCalled(t, "UpdateAnswers", mock.Anything, mock.Anything)
}

func TestAttemptService_RecordAnswer_TerminalAttempt(t *testing.T) {
	// Arrange
	svc, attemptRepo, _, _, _ := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Status = entity.AttemptStatusSubmitted
	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)

	// Act
	_, err := svc.RecordAnswer(100, 7, 1, []int{0})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestAttemptService_Submit_Success(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, _, clock := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Answers = entity.AnswerMap{1: {0}, 2: {2}}
	clock.Advance(10 * time.Minute)

	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	attemptRepo.On("Finalize", mock.AnythingOfType("*entity.Attempt")).Return(nil)

	// Act
	submitted, err := svc.Submit(100, 7)

	// Assert: Q1 correct (+5), Q2 incorrect (−1) → 4 of 10
	require.NoError(t, err)
	assert.Equal(t, entity.AttemptStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, testStart.Add(10*time.Minute), *submitted.SubmittedAt)
	assert.Equal(t, 4.0, submitted.MarksObtained)
	assert.Equal(t, entity.AttemptResultFail, submitted.Result)
}

func TestAttemptService_Submit_IdempotentOnResubmission(t *testing.T) {
	// Arrange: already submitted with a stored score
	svc, attemptRepo, _, _, _ := newAttemptServiceForTest(t)
	submittedAt := testStart.Add(12 * time.Minute)
	attempt := inProgressAttempt()
	attempt.Status = entity.AttemptStatusSubmitted
	attempt.SubmittedAt = &submittedAt
	attempt.MarksObtained = 4
	attempt.TotalMarks = 10
	attempt.Percentage = 40
	attempt.Result = entity.AttemptResultFail

	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)

	// Act: submit twice more
	first, err1 := svc.Submit(100, 7)
	second, err2 := svc.Submit(100, 7)

	// Assert: identical stored score both times, no re-finalization
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first.MarksObtained, second.MarksObtained)
	assert.Equal(t, first.SubmittedAt, second.SubmittedAt)
	attemptRepo.AssertNotCalled(t, "Finalize", mock.Anything)
}

func TestAttemptService_Submit_AfterExpiry(t *testing.T) {
	// Arrange
	svc, attemptRepo, _, _, _ := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Status = entity.AttemptStatusExpired
	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)

	// Act
	_, err := svc.Submit(100, 7)

	// Assert: expiry already auto-submitted, the explicit submit is rejected
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestAttemptService_Submit_PastDeadlineExpiresFirst(t *testing.T) {
	// Arrange: still in_progress in storage, but past the deadline
	svc, attemptRepo, quizRepo, _, clock := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Answers = entity.AnswerMap{1: {0}}
	clock.Advance(45 * time.Minute)

	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	attemptRepo.On("Finalize", mock.AnythingOfType("*entity.Attempt")).Return(nil)

	// Act
	_, err := svc.Submit(100, 7)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	attemptRepo.AssertCalled(t, "Finalize", mock.MatchedBy(func(a *entity.Attempt) bool {
		return a.Status == entity.AttemptStatusExpired && a.SubmittedAt.Equal(a.ExpiresAt)
	}))
}

func TestAttemptService_Get_LazyExpiryOnRead(t *testing.T) {
	// Arrange
	svc, attemptRepo, quizRepo, _, clock := newAttemptServiceForTest(t)
	attempt := inProgressAttempt()
	attempt.Answers = entity.AnswerMap{1: {0}}
	clock.Advance(time.Hour)

	expired := *attempt
	expired.Status = entity.AttemptStatusExpired

	attemptRepo.On("GetByID", uint(100)).Return(attempt, nil).Once()
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	attemptRepo.On("Finalize", mock.AnythingOfType("*entity.Attempt")).Return(nil)
	attemptRepo.On("GetByID", uint(100)).Return(&expired, nil)

	// Act
	got, err := svc.Get(100, 7)

	// Assert: the read observes the terminal state
	require.NoError(t, err)
	assert.Equal(t, entity.AttemptStatusExpired, got.Status)
}

func TestAttemptService_ExpireOverdue(t *testing.T) {
	// Arrange: two overdue attempts, one already won by a concurrent finalize
	svc, attemptRepo, quizRepo, _, clock := newAttemptServiceForTest(t)
	clock.Advance(time.Hour)

	first := inProgressAttempt()
	second := inProgressAttempt()
	second.ID = 101

	attemptRepo.On("ListOverdueInProgress", clock.Now(), 50).Return([]entity.Attempt{*first, *second}, nil)
	quizRepo.On("GetWithQuestions", uint(10)).Return(attemptTestQuiz(), nil)
	attemptRepo.On("Finalize", mock.MatchedBy(func(a *entity.Attempt) bool { return a.ID == 100 })).Return(nil)
	attemptRepo.On("Finalize", mock.MatchedBy(func(a *entity.Attempt) bool { return a.ID == 101 })).Return(apperrors.ErrInvalidState)

	// Act
	expired, err := svc.ExpireOverdue(50)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
}

package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
)

// ============================================================================
// Shared mocks for the service tests.
// ============================================================================

// anyUintSlice matches any []uint argument.
func anyUintSlice() interface{} {
	return mock.AnythingOfType("[]uint")
}

// fixedClock returns a preset instant and can be advanced by tests.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// MockAttemptRepository implements repository.AttemptRepository.
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateInProgress(attempt *entity.Attempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(id uint) (*entity.Attempt, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) UpdateAnswers(attemptID uint, answers entity.AnswerMap) error {
	args := m.Called(attemptID, answers)
	return args.Error(0)
}

func (m *MockAttemptRepository) Finalize(attempt *entity.Attempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) CountTerminal(userID, quizID uint) (int64, error) {
	args := m.Called(userID, quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) ListTerminal(scope repository.AttemptScope) ([]entity.Attempt, error) {
	args := m.Called(scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) ListTerminalByUser(userID uint, limit, offset int) ([]entity.Attempt, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) ListOverdueInProgress(now time.Time, limit int) ([]entity.Attempt, error) {
	args := m.Called(now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

// MockQuizRepository implements repository.QuizRepository.
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetByID(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetWithQuestions(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) List(limit, offset int) ([]entity.Quiz, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

// MockAccessRequestRepository implements repository.AccessRequestRepository.
type MockAccessRequestRepository struct {
	mock.Mock
}

func (m *MockAccessRequestRepository) CreatePending(request *entity.SubjectAccessRequest) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockAccessRequestRepository) GetByID(id uint) (*entity.SubjectAccessRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SubjectAccessRequest), args.Error(1)
}

func (m *MockAccessRequestRepository) Decide(requestID uint, status string, decidedAt time.Time) error {
	args := m.Called(requestID, status, decidedAt)
	return args.Error(0)
}

func (m *MockAccessRequestRepository) HasApproved(userID, subjectID uint) (bool, error) {
	args := m.Called(userID, subjectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccessRequestRepository) ListByStatus(status string, limit, offset int) ([]entity.SubjectAccessRequest, int64, error) {
	args := m.Called(status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.SubjectAccessRequest), args.Get(1).(int64), args.Error(2)
}

// MockSubjectRepository implements repository.SubjectRepository.
type MockSubjectRepository struct {
	mock.Mock
}

func (m *MockSubjectRepository) GetByID(id uint) (*entity.Subject, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subject), args.Error(1)
}

// MockUserRepository implements repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ids []uint) (map[uint]entity.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]entity.User), args.Error(1)
}

// MockAuthorizer implements Authorizer.
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) IsAuthorized(userID, subjectID uint) (bool, error) {
	args := m.Called(userID, subjectID)
	return args.Bool(0), args.Error(1)
}

// MockEmailService implements EmailService.
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendAccessDecision(ctx context.Context, toEmail, subjectTitle string, approved bool, idempotencyKey string) error {
	args := m.Called(ctx, toEmail, subjectTitle, approved, idempotencyKey)
	return args.Error(0)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

func terminalAttempt(userID uint, percentage, marks float64, result string, submittedAt time.Time) entity.Attempt {
	return entity.Attempt{
		QuizID:        10,
		UserID:        userID,
		Status:        entity.AttemptStatusSubmitted,
		SubmittedAt:   &submittedAt,
		Percentage:    percentage,
		MarksObtained: marks,
		TotalMarks:    50,
		Result:        result,
	}
}

func newRankingServiceForTest(t *testing.T) (*RankingService, *MockAttemptRepository, *MockUserRepository) {
	t.Helper()
	attemptRepo := new(MockAttemptRepository)
	userRepo := new(MockUserRepository)
	// No cache in unit tests: a nil cache degrades to recomputation.
	svc := NewRankingService(attemptRepo, userRepo, nil, 0)
	return svc, attemptRepo, userRepo
}

func TestRankingService_Aggregate_TieBrokenByTotalMarks(t *testing.T) {
	// Arrange: averages [80, 80, 60] with total marks [40, 45, 30] — the 45
	// breaks the tie and wins rank 1.
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	attempts := []entity.Attempt{
		terminalAttempt(1, 80, 40, entity.AttemptResultPass, base),
		terminalAttempt(2, 80, 45, entity.AttemptResultPass, base.Add(time.Minute)),
		terminalAttempt(3, 60, 30, entity.AttemptResultPass, base.Add(2*time.Minute)),
	}

	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return(attempts, nil)
	userRepo.On("GetByIDs", anyUintSlice()).Return(map[uint]entity.User{}, nil).Maybe()

	// Act
	standings, err := svc.Aggregate(scope)

	// Assert
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, uint(2), standings[0].UserID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, uint(1), standings[1].UserID)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, uint(3), standings[2].UserID)
	assert.Equal(t, 3, standings[2].Rank)
}

func TestRankingService_Aggregate_TieBrokenByFirstSubmission(t *testing.T) {
	// Arrange: identical averages and totals; the earlier achiever ranks higher.
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	attempts := []entity.Attempt{
		terminalAttempt(1, 70, 35, entity.AttemptResultPass, base.Add(time.Hour)),
		terminalAttempt(2, 70, 35, entity.AttemptResultPass, base),
	}

	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return(attempts, nil)
	userRepo.On("GetByIDs", anyUintSlice()).Return(map[uint]entity.User{}, nil).Maybe()

	// Act
	standings, err := svc.Aggregate(scope)

	// Assert: dense unique ranks even after tie-breaking
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, uint(2), standings[0].UserID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, uint(1), standings[1].UserID)
	assert.Equal(t, 2, standings[1].Rank)
}

func TestRankingService_Aggregate_PerUserStatistics(t *testing.T) {
	// Arrange: one user, three attempts with mixed outcomes
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a1 := terminalAttempt(1, 80, 40, entity.AttemptResultPass, base)
	a1.CorrectCount, a1.IncorrectCount = 8, 2
	a2 := terminalAttempt(1, 40, 20, entity.AttemptResultFail, base.Add(time.Hour))
	a2.CorrectCount, a2.IncorrectCount = 4, 4
	a3 := terminalAttempt(1, 60, 30, entity.AttemptResultPass, base.Add(2*time.Hour))
	a3.CorrectCount, a3.IncorrectCount = 6, 0

	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return([]entity.Attempt{a1, a2, a3}, nil)
	userRepo.On("GetByIDs", []uint{1}).Return(map[uint]entity.User{1: {ID: 1, Username: "amira"}}, nil)

	// Act
	standings, err := svc.Aggregate(scope)

	// Assert
	require.NoError(t, err)
	require.Len(t, standings, 1)
	st := standings[0]
	assert.Equal(t, "amira", st.Username)
	assert.InDelta(t, 60.0, st.AverageScore, 1e-9)
	assert.Equal(t, 80.0, st.BestScore)
	assert.Equal(t, 90.0, st.TotalMarksObtained)
	assert.Equal(t, 3, st.TotalAttempts)
	assert.InDelta(t, 2.0/3.0, st.PassRate, 1e-9)
	assert.InDelta(t, 18.0/24.0, st.Accuracy, 1e-9)
	assert.Equal(t, base, st.FirstSubmittedAt)
}

func TestRankingService_Aggregate_AccuracyZeroDenominator(t *testing.T) {
	// Arrange: every question unattempted on the only attempt
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := terminalAttempt(1, 0, 0, entity.AttemptResultFail, base)

	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return([]entity.Attempt{a}, nil)
	userRepo.On("GetByIDs", []uint{1}).Return(map[uint]entity.User{}, nil)

	// Act
	standings, err := svc.Aggregate(scope)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0.0, standings[0].Accuracy)
}

func TestRankingService_Neighbors_MiddleOfField(t *testing.T) {
	// Arrange: five users ranked 1..5 by average
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var attempts []entity.Attempt
	for i, pct := range []float64{90, 80, 70, 60, 50} {
		attempts = append(attempts, terminalAttempt(uint(i+1), pct, pct/2, entity.AttemptResultPass, base))
	}

	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return(attempts, nil)
	userRepo.On("GetByIDs", anyUintSlice()).Return(map[uint]entity.User{}, nil).Maybe()

	// Act: user 3 sits at rank 3, window of 1 each side
	result, err := svc.Neighbors(3, scope, 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.Me.Rank)
	require.Len(t, result.Above, 1)
	require.Len(t, result.Below, 1)
	assert.Equal(t, uint(2), result.Above[0].UserID)
	assert.Equal(t, uint(4), result.Below[0].UserID)
	assert.Equal(t, 5, result.TotalUsers)
}

func TestRankingService_Neighbors_TopOfField_NoWrap(t *testing.T) {
	// Arrange
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	attempts := []entity.Attempt{
		terminalAttempt(1, 90, 45, entity.AttemptResultPass, base),
		terminalAttempt(2, 80, 40, entity.AttemptResultPass, base),
		terminalAttempt(3, 70, 35, entity.AttemptResultPass, base),
	}

	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return(attempts, nil)
	userRepo.On("GetByIDs", anyUintSlice()).Return(map[uint]entity.User{}, nil).Maybe()

	// Act: rank 1 with a window of 2
	result, err := svc.Neighbors(1, scope, 2)

	// Assert: nothing above, no wrap-around; both remaining users below
	require.NoError(t, err)
	assert.Equal(t, 1, result.Me.Rank)
	assert.Empty(t, result.Above)
	assert.Len(t, result.Below, 2)
}

func TestRankingService_Neighbors_UnrankedUser(t *testing.T) {
	// Arrange
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return([]entity.Attempt{}, nil)
	userRepo.On("GetByIDs", anyUintSlice()).Return(map[uint]entity.User{}, nil).Maybe()

	// Act
	_, err := svc.Neighbors(42, scope, 3)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRankingService_Standings_Pagination(t *testing.T) {
	// Arrange
	svc, attemptRepo, userRepo := newRankingServiceForTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var attempts []entity.Attempt
	for i := 0; i < 4; i++ {
		attempts = append(attempts, terminalAttempt(uint(i+1), float64(90-i*10), 40, entity.AttemptResultPass, base))
	}

	scope := repository.AttemptScope{}
	attemptRepo.On("ListTerminal", scope).Return(attempts, nil)
	userRepo.On("GetByIDs", anyUintSlice()).Return(map[uint]entity.User{}, nil).Maybe()

	// Act
	page, total, err := svc.Standings(scope, 2, 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].Rank)
	assert.Equal(t, 3, page[1].Rank)
}

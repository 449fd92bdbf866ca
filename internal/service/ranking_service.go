package service

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// UserStanding is one user's aggregate row in a ranking. Rank is dense and
// unique: the tie-break chain (totalMarksObtained desc, then earliest
// firstSubmittedAt) produces a strict total order, so every user gets their
// own ordinal with no gaps.
type UserStanding struct {
	UserID             uint      `json:"user_id"`
	Username           string    `json:"username,omitempty"`
	Rank               int       `json:"rank"`
	AverageScore       float64   `json:"average_score"`
	BestScore          float64   `json:"best_score"`
	TotalMarksObtained float64   `json:"total_marks_obtained"`
	TotalAttempts      int       `json:"total_attempts"`
	PassRate           float64   `json:"pass_rate"`
	Accuracy           float64   `json:"accuracy"`
	FirstSubmittedAt   time.Time `json:"first_submitted_at"`
}

// NeighborsResult is the "where do I stand" window around one user.
type NeighborsResult struct {
	Me         UserStanding   `json:"me"`
	Above      []UserStanding `json:"above"`
	Below      []UserStanding `json:"below"`
	TotalUsers int            `json:"total_users"`
}

// RankingService computes comparative standings from terminal attempts.
// It only reads; attempts are never mutated here. Aggregations are cached in
// Redis per scope with a short TTL; cache trouble degrades to recomputation.
type RankingService struct {
	attemptRepo repository.AttemptRepository
	userRepo    repository.UserRepository
	cacheRepo   repository.CacheRepository
	cacheTTL    time.Duration
}

// NewRankingService creates a new ranking aggregator.
func NewRankingService(
	attemptRepo repository.AttemptRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
) *RankingService {
	return &RankingService{
		attemptRepo: attemptRepo,
		userRepo:    userRepo,
		cacheRepo:   cacheRepo,
		cacheTTL:    cacheTTL,
	}
}

// Aggregate computes the full ordered standings for the scope: every user
// with at least one terminal attempt, ranked.
func (s *RankingService) Aggregate(scope repository.AttemptScope) ([]UserStanding, error) {
	cacheKey := rankingCacheKey(scope)

	if s.cacheRepo != nil {
		var cached []UserStanding
		if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	attempts, err := s.attemptRepo.ListTerminal(scope)
	if err != nil {
		return nil, err
	}

	standings := aggregateAttempts(attempts)
	s.attachUsernames(standings)

	if s.cacheRepo != nil && s.cacheTTL > 0 {
		if err := s.cacheRepo.SetJSON(cacheKey, standings, s.cacheTTL); err != nil {
			log.Printf("[RankingService] caching %s failed: %v", cacheKey, err)
		}
	}

	return standings, nil
}

// Standings returns a page of the ordered standings plus the total user count.
func (s *RankingService) Standings(scope repository.AttemptScope, limit, offset int) ([]UserStanding, int, error) {
	all, err := s.Aggregate(scope)
	if err != nil {
		return nil, 0, err
	}

	total := len(all)
	if offset >= total {
		return []UserStanding{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// Neighbors returns up to windowSize users immediately above and below the
// given user, the user's own entry, and the total ranked user count. The
// window never wraps: near the edges one side simply has fewer entries.
func (s *RankingService) Neighbors(userID uint, scope repository.AttemptScope, windowSize int) (*NeighborsResult, error) {
	all, err := s.Aggregate(scope)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range all {
		if all[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: user #%d has no ranked attempts in scope", apperrors.ErrNotFound, userID)
	}

	if windowSize < 0 {
		windowSize = 0
	}
	lo := idx - windowSize
	if lo < 0 {
		lo = 0
	}
	hi := idx + windowSize + 1
	if hi > len(all) {
		hi = len(all)
	}

	return &NeighborsResult{
		Me:         all[idx],
		Above:      append([]UserStanding{}, all[lo:idx]...),
		Below:      append([]UserStanding{}, all[idx+1:hi]...),
		TotalUsers: len(all),
	}, nil
}

// InvalidateScope drops the cached aggregation for a scope. Harmless when the
// cache is absent; rankings recompute on next read either way.
func (s *RankingService) InvalidateScope(scope repository.AttemptScope) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(rankingCacheKey(scope)); err != nil {
		log.Printf("[RankingService] invalidating %s failed: %v", rankingCacheKey(scope), err)
	}
}

func rankingCacheKey(scope repository.AttemptScope) string {
	if scope.QuizID != nil {
		return fmt.Sprintf("ranking:quiz:%d", *scope.QuizID)
	}
	return "ranking:all"
}

// aggregateAttempts folds terminal attempts into per-user statistics and
// sorts them into the strict ranking order.
func aggregateAttempts(attempts []entity.Attempt) []UserStanding {
	type userAccum struct {
		standing       UserStanding
		percentageSum  float64
		correctTotal   int
		incorrectTotal int
		passCount      int
	}

	byUser := make(map[uint]*userAccum)

	for i := range attempts {
		attempt := &attempts[i]
		acc, ok := byUser[attempt.UserID]
		if !ok {
			acc = &userAccum{standing: UserStanding{UserID: attempt.UserID}}
			byUser[attempt.UserID] = acc
		}

		acc.standing.TotalAttempts++
		acc.standing.TotalMarksObtained += attempt.MarksObtained
		acc.percentageSum += attempt.Percentage
		acc.correctTotal += attempt.CorrectCount
		acc.incorrectTotal += attempt.IncorrectCount

		if attempt.Percentage > acc.standing.BestScore || acc.standing.TotalAttempts == 1 {
			acc.standing.BestScore = attempt.Percentage
		}
		if attempt.Result == entity.AttemptResultPass {
			acc.passCount++
		}

		if attempt.SubmittedAt != nil {
			if acc.standing.FirstSubmittedAt.IsZero() || attempt.SubmittedAt.Before(acc.standing.FirstSubmittedAt) {
				acc.standing.FirstSubmittedAt = *attempt.SubmittedAt
			}
		}
	}

	standings := make([]UserStanding, 0, len(byUser))
	for _, acc := range byUser {
		st := acc.standing
		st.AverageScore = acc.percentageSum / float64(st.TotalAttempts)
		st.PassRate = float64(acc.passCount) / float64(st.TotalAttempts)
		if attempted := acc.correctTotal + acc.incorrectTotal; attempted > 0 {
			st.Accuracy = float64(acc.correctTotal) / float64(attempted)
		}
		standings = append(standings, st)
	}

	// averageScore desc, then totalMarksObtained desc, then earliest first
	// submission (earlier achiever ranks higher). User id is the final key so
	// the order is total even for byte-identical records.
	sort.Slice(standings, func(i, j int) bool {
		a, b := &standings[i], &standings[j]
		if a.AverageScore != b.AverageScore {
			return a.AverageScore > b.AverageScore
		}
		if a.TotalMarksObtained != b.TotalMarksObtained {
			return a.TotalMarksObtained > b.TotalMarksObtained
		}
		if !a.FirstSubmittedAt.Equal(b.FirstSubmittedAt) {
			return a.FirstSubmittedAt.Before(b.FirstSubmittedAt)
		}
		return a.UserID < b.UserID
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// attachUsernames decorates standings with display names, best-effort.
func (s *RankingService) attachUsernames(standings []UserStanding) {
	if s.userRepo == nil || len(standings) == 0 {
		return
	}

	ids := make([]uint, 0, len(standings))
	for i := range standings {
		ids = append(ids, standings[i].UserID)
	}

	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		log.Printf("[RankingService] loading usernames failed: %v", err)
		return
	}
	for i := range standings {
		if u, ok := users[standings[i].UserID]; ok {
			standings[i].Username = u.Username
		}
	}
}

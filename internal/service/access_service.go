package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// Decision outcomes accepted by Decide.
const (
	AccessOutcomeApprove = "approve"
	AccessOutcomeReject  = "reject"
)

// AccessService is the approval gate controlling who may attempt a subject's
// quizzes. It owns the request/approve/reject workflow; who may call Decide
// is enforced at the transport layer via capability middleware.
type AccessService struct {
	accessRepo  repository.AccessRequestRepository
	subjectRepo repository.SubjectRepository
	email       EmailService
	clock       Clock
}

// NewAccessService creates a new access gate service.
func NewAccessService(
	accessRepo repository.AccessRequestRepository,
	subjectRepo repository.SubjectRepository,
	email EmailService,
	clock Clock,
) *AccessService {
	return &AccessService{
		accessRepo:  accessRepo,
		subjectRepo: subjectRepo,
		email:       email,
		clock:       clock,
	}
}

// Request files a new pending access request for (userID, subjectID).
// Returns ErrConflict when a pending request already exists for the pair;
// a previously rejected request does not block a new one.
func (s *AccessService) Request(userID, subjectID uint, email, phone string) (*entity.SubjectAccessRequest, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid contact email is required", apperrors.ErrValidation)
	}

	if _, err := s.subjectRepo.GetByID(subjectID); err != nil {
		return nil, fmt.Errorf("subject #%d: %w", subjectID, err)
	}

	request := &entity.SubjectAccessRequest{
		UserID:    userID,
		SubjectID: subjectID,
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		CreatedAt: s.clock.Now(),
	}

	if err := s.accessRepo.CreatePending(request); err != nil {
		return nil, err
	}

	log.Printf("[AccessService] request #%d filed: user #%d subject #%d", request.ID, userID, subjectID)
	return request, nil
}

// Decide resolves a pending request with the given outcome. The transition is
// one-shot: a request that is no longer pending yields ErrInvalidState, so
// two concurrent decisions result in exactly one state change.
func (s *AccessService) Decide(ctx context.Context, requestID uint, outcome string) (*entity.SubjectAccessRequest, error) {
	var status string
	switch outcome {
	case AccessOutcomeApprove:
		status = entity.AccessRequestStatusApproved
	case AccessOutcomeReject:
		status = entity.AccessRequestStatusRejected
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", apperrors.ErrValidation, outcome)
	}

	request, err := s.accessRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}

	decidedAt := s.clock.Now()
	if err := s.accessRepo.Decide(requestID, status, decidedAt); err != nil {
		return nil, err
	}

	request.Status = status
	request.DecidedAt = &decidedAt

	s.notifyDecision(ctx, request)

	log.Printf("[AccessService] request #%d decided: %s (user #%d subject #%d)",
		requestID, status, request.UserID, request.SubjectID)
	return request, nil
}

// IsAuthorized reports whether the user may access the subject's quizzes:
// either the subject does not require approval, or an approved request exists.
// Pure query, no mutation.
func (s *AccessService) IsAuthorized(userID, subjectID uint) (bool, error) {
	subject, err := s.subjectRepo.GetByID(subjectID)
	if err != nil {
		return false, err
	}
	if !subject.RequiresApproval {
		return true, nil
	}
	return s.accessRepo.HasApproved(userID, subjectID)
}

// ListRequests returns access requests for the admin approval screens.
func (s *AccessService) ListRequests(status string, limit, offset int) ([]entity.SubjectAccessRequest, int64, error) {
	switch status {
	case "", entity.AccessRequestStatusPending, entity.AccessRequestStatusApproved, entity.AccessRequestStatusRejected:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	return s.accessRepo.ListByStatus(status, limit, offset)
}

// notifyDecision sends the decision email best-effort. Delivery failure is
// logged, never propagated: the decision itself already committed.
func (s *AccessService) notifyDecision(ctx context.Context, request *entity.SubjectAccessRequest) {
	if s.email == nil || request.Email == "" {
		return
	}

	subjectTitle := fmt.Sprintf("subject #%d", request.SubjectID)
	if subject, err := s.subjectRepo.GetByID(request.SubjectID); err == nil {
		subjectTitle = subject.Title
	}

	approved := request.Status == entity.AccessRequestStatusApproved
	idempotencyKey := uuid.New().String()
	if err := s.email.SendAccessDecision(ctx, request.Email, subjectTitle, approved, idempotencyKey); err != nil {
		log.Printf("[AccessService] decision email for request #%d failed: %v", request.ID, err)
	}
}

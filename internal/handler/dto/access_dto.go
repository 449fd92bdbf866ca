package dto

import (
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// AccessRequestResponse is a subject access request in client format.
type AccessRequestResponse struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"user_id"`
	SubjectID uint       `json:"subject_id"`
	Status    string     `json:"status"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// NewAccessRequestResponse creates a DTO for an access request.
func NewAccessRequestResponse(request *entity.SubjectAccessRequest) *AccessRequestResponse {
	if request == nil {
		return nil
	}
	return &AccessRequestResponse{
		ID:        request.ID,
		UserID:    request.UserID,
		SubjectID: request.SubjectID,
		Status:    request.Status,
		Email:     request.Email,
		Phone:     request.Phone,
		CreatedAt: request.CreatedAt,
		DecidedAt: request.DecidedAt,
	}
}

// NewListAccessRequestResponse creates DTOs for an access request list.
func NewListAccessRequestResponse(requests []entity.SubjectAccessRequest) []*AccessRequestResponse {
	list := make([]*AccessRequestResponse, len(requests))
	for i := range requests {
		list[i] = NewAccessRequestResponse(&requests[i])
	}
	return list
}

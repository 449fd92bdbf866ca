package entity

import (
	"time"
)

// Access request statuses. Transitions are one-shot: pending → approved or
// pending → rejected, nothing after that.
const (
	AccessRequestStatusPending  = "pending"
	AccessRequestStatusApproved = "approved"
	AccessRequestStatusRejected = "rejected"
)

// SubjectAccessRequest is a learner's request to access a subject's quizzes.
// At most one pending request may exist per (user, subject) at a time,
// enforced by a partial unique index.
type SubjectAccessRequest struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index;uniqueIndex:idx_access_requests_one_pending,where:status = 'pending'" json:"user_id"`
	SubjectID uint       `gorm:"not null;index;uniqueIndex:idx_access_requests_one_pending,where:status = 'pending'" json:"subject_id"`
	Status    string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Email     string     `gorm:"size:255;not null" json:"email"`
	Phone     string     `gorm:"size:30;not null;default:''" json:"phone,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// TableName sets the GORM table name.
func (SubjectAccessRequest) TableName() string {
	return "subject_access_requests"
}

// IsPending reports whether the request still awaits a decision.
func (r *SubjectAccessRequest) IsPending() bool {
	return r.Status == AccessRequestStatusPending
}

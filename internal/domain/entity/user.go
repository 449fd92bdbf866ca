package entity

import (
	"time"
)

// User is the learner identity as this core sees it. Account management,
// credentials and role assignment live in an external collaborator; here the
// row only supplies display data for rankings and the capability tags carried
// in the access token.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (User) TableName() string {
	return "users"
}

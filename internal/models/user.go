package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleClient is implicit: a profile in the users collection never carries
// one of the employee roles.
const RoleClient = "client"

type UserProfile struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	Role      string     `json:"role" db:"role"`
	LastLogin *time.Time `json:"last_login" db:"last_login"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// DisplayName returns "First Last" for directory listings.
func (u *UserProfile) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

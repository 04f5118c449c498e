package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is an identity-provider account. It lives apart from the
// users/employees collections: deleting an employee record does not remove
// its credential, and a credential can exist with no metadata record at all
// (the orphaned-account case).
type Credential struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

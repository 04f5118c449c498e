package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff roles. Only these three appear on an employee record; clients have
// no employee record at all.
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
	RoleCEO      = "ceo"
)

// ValidEmployeeRole reports whether role is one of the enumerated staff roles.
func ValidEmployeeRole(role string) bool {
	return role == RoleEmployee || role == RoleAdmin || role == RoleCEO
}

type Employee struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	Email           string      `json:"email" db:"email"`
	FirstName       string      `json:"first_name" db:"first_name"`
	LastName        string      `json:"last_name" db:"last_name"`
	Role            string      `json:"role" db:"role"`
	AssignedClients []uuid.UUID `json:"assigned_clients" db:"assigned_clients"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// HasAssignedClient reports whether clientID is already in the assigned set.
// A nil slice reads as the empty set; records written before the assignment
// feature have no assigned_clients value at all.
func (e *Employee) HasAssignedClient(clientID uuid.UUID) bool {
	for _, id := range e.AssignedClients {
		if id == clientID {
			return true
		}
	}
	return false
}

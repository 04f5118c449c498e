package models

import (
	"time"

	"github.com/google/uuid"
)

// Tax return preparation states.
const (
	ReturnStatusNotStarted = "not_started"
	ReturnStatusInProgress = "in_progress"
	ReturnStatusReview     = "review"
	ReturnStatusCompleted  = "completed"
)

// ValidReturnStatus reports whether s is a known preparation state.
func ValidReturnStatus(s string) bool {
	switch s {
	case ReturnStatusNotStarted, ReturnStatusInProgress, ReturnStatusReview, ReturnStatusCompleted:
		return true
	}
	return false
}

type TaxReturn struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ClientID        uuid.UUID  `json:"client_id" db:"client_id"`
	TaxYear         int        `json:"tax_year" db:"tax_year"`
	Status          string     `json:"status" db:"status"`
	FilingType      *string    `json:"filing_type" db:"filing_type"`
	TotalIncome     *float64   `json:"total_income" db:"total_income"`
	TotalDeductions *float64   `json:"total_deductions" db:"total_deductions"`
	TotalTax        *float64   `json:"total_tax" db:"total_tax"`
	Notes           *string    `json:"notes" db:"notes"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`
}

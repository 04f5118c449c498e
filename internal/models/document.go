package models

import (
	"time"

	"github.com/google/uuid"
)

// Document review states.
const (
	DocumentStatusPending  = "pending_review"
	DocumentStatusInReview = "in_review"
	DocumentStatusAccepted = "accepted"
	DocumentStatusRejected = "rejected"
)

// DocumentTypes lists the accepted tax form types.
var DocumentTypes = []string{"W-2", "1099-MISC", "1099-NEC", "1098-T", "1095-A", "Other"}

// ValidDocumentType reports whether t is one of the accepted form types.
func ValidDocumentType(t string) bool {
	for _, dt := range DocumentTypes {
		if dt == t {
			return true
		}
	}
	return false
}

// ValidDocumentStatus reports whether s is a known review state.
func ValidDocumentStatus(s string) bool {
	switch s {
	case DocumentStatusPending, DocumentStatusInReview, DocumentStatusAccepted, DocumentStatusRejected:
		return true
	}
	return false
}

type Document struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ClientID     uuid.UUID `json:"client_id" db:"client_id"`
	Filename     string    `json:"filename" db:"filename"`
	DocumentType string    `json:"document_type" db:"document_type"`
	TaxYear      int       `json:"tax_year" db:"tax_year"`
	Notes        string    `json:"notes" db:"notes"`
	Status       string    `json:"status" db:"status"`
	StorageKey   string    `json:"storage_key" db:"storage_key"`
	DownloadURL  string    `json:"download_url" db:"download_url"`
	UploadedAt   time.Time `json:"uploaded_at" db:"uploaded_at"`
}

package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"

	"github.com/google/uuid"
)

// downloadURLTTL is the presigned GET lifetime, the longest MinIO allows.
const downloadURLTTL = 7 * 24 * time.Hour

// DocumentUpload carries one file plus its filing details.
type DocumentUpload struct {
	Filename     string
	ContentType  string
	Reader       io.Reader
	Size         int64
	DocumentType string
	TaxYear      int
	Notes        string
}

// DocumentService orchestrates the document lifecycle: a binary write to
// the object store followed by a metadata record, with compensating
// rollback in between. Step order is load-bearing; see Upload and Delete.
type DocumentService interface {
	Upload(ctx context.Context, clientID uuid.UUID, upload DocumentUpload) (*models.Document, error)
	Delete(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]*models.Document, error)
	DownloadURL(ctx context.Context, doc *models.Document) (string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type documentService struct {
	documents repositories.DocumentRepository
	store     ObjectStore
}

func NewDocumentService(documents repositories.DocumentRepository, store ObjectStore) DocumentService {
	return &documentService{documents: documents, store: store}
}

// Upload runs the strictly ordered upload sequence:
//
//  1. validate input (no side effects yet);
//  2. derive a per-upload storage key;
//  3. write the binary;
//  4. obtain a download reference, deleting the binary on failure;
//  5. create the metadata record, deleting the binary on failure.
//
// A metadata record is only ever created after its binary exists. The
// inverse does not hold: a failed compensation can leave an unreferenced
// binary behind, which the sweeper reaps later.
func (s *documentService) Upload(ctx context.Context, clientID uuid.UUID, upload DocumentUpload) (*models.Document, error) {
	if upload.Reader == nil || upload.Filename == "" {
		return nil, fmt.Errorf("%w: a file is required", common.ErrValidation)
	}
	if upload.DocumentType == "" {
		return nil, fmt.Errorf("%w: document type is required", common.ErrValidation)
	}
	if !models.ValidDocumentType(upload.DocumentType) {
		return nil, fmt.Errorf("%w: unknown document type %q", common.ErrValidation, upload.DocumentType)
	}
	if err := common.ValidateTaxYear(upload.TaxYear, "tax year"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	// Client id plus a nanosecond timestamp keeps concurrent uploads by the
	// same client apart while preserving the original name for display.
	storageKey := fmt.Sprintf("%s/%d_%s", clientID.String(), time.Now().UnixNano(), upload.Filename)

	metadata := map[string]string{
		"document_type": upload.DocumentType,
		"tax_year":      strconv.Itoa(upload.TaxYear),
		"notes":         upload.Notes,
	}
	if err := s.store.Put(ctx, storageKey, upload.Reader, upload.Size, upload.ContentType, metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}

	downloadURL, err := s.store.PresignedGetURL(ctx, storageKey, downloadURLTTL)
	if err != nil {
		s.compensateBinary(ctx, storageKey)
		return nil, fmt.Errorf("%w: failed to obtain download reference: %v", common.ErrStorageWrite, err)
	}

	doc := &models.Document{
		ID:           uuid.New(),
		ClientID:     clientID,
		Filename:     upload.Filename,
		DocumentType: upload.DocumentType,
		TaxYear:      upload.TaxYear,
		Notes:        upload.Notes,
		Status:       models.DocumentStatusPending,
		StorageKey:   storageKey,
		DownloadURL:  downloadURL,
		UploadedAt:   time.Now(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.compensateBinary(ctx, storageKey)
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}

	return doc, nil
}

// Delete removes binary and metadata, binary first. If the binary delete
// fails nothing is touched and the caller can retry; if the metadata delete
// then fails, the leftover is an orphan metadata record whose retry is also
// safe, since deleting an already-missing object succeeds.
func (s *documentService) Delete(ctx context.Context, doc *models.Document) error {
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeletion, err)
	}
	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("%w: metadata record not removed: %v", common.ErrDeletion, err)
	}
	return nil
}

func (s *documentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return doc, nil
}

func (s *documentService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*models.Document, error) {
	docs, err := s.documents.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return docs, nil
}

// DownloadURL issues a fresh presigned reference; the stored one may have
// expired since upload.
func (s *documentService) DownloadURL(ctx context.Context, doc *models.Document) (string, error) {
	url, err := s.store.PresignedGetURL(ctx, doc.StorageKey, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}
	return url, nil
}

func (s *documentService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !models.ValidDocumentStatus(status) {
		return fmt.Errorf("%w: unknown document status %q", common.ErrValidation, status)
	}
	if err := s.documents.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}
	return nil
}

// compensateBinary best-effort deletes a binary written earlier in a failed
// upload. Its own failure is logged, never escalated: the caller already
// has the original error, and the sweeper covers the leak.
func (s *documentService) compensateBinary(ctx context.Context, storageKey string) {
	if err := s.store.Delete(ctx, storageKey); err != nil {
		log.Printf("WARN: failed to clean up binary %s after aborted upload: %v", storageKey, err)
	}
}

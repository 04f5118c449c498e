package repositories

import (
	"context"

	"taxdesk/internal/models"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Count(ctx context.Context) (int, error)
	CountsByClient(ctx context.Context) (map[uuid.UUID]int, error)
	ListStorageKeys(ctx context.Context) ([]string, error)
}

type documentRepo struct {
	db DB
}

func NewDocumentRepo(db DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, client_id, filename, document_type, tax_year, notes, status, storage_key, download_url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	_, err := r.db.Exec(ctx, query, doc.ID, doc.ClientID, doc.Filename, doc.DocumentType, doc.TaxYear, doc.Notes, doc.Status, doc.StorageKey, doc.DownloadURL)
	return err
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `
		SELECT id, client_id, filename, document_type, tax_year, notes, status, storage_key, download_url, uploaded_at
		FROM documents
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&doc.ID, &doc.ClientID, &doc.Filename, &doc.DocumentType, &doc.TaxYear, &doc.Notes, &doc.Status, &doc.StorageKey, &doc.DownloadURL, &doc.UploadedAt)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *documentRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT id, client_id, filename, document_type, tax_year, notes, status, storage_key, download_url, uploaded_at
		FROM documents
		WHERE client_id = $1
		ORDER BY uploaded_at DESC
	`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		if err := rows.Scan(&doc.ID, &doc.ClientID, &doc.Filename, &doc.DocumentType, &doc.TaxYear, &doc.Notes, &doc.Status, &doc.StorageKey, &doc.DownloadURL, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE documents SET status = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *documentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountsByClient returns document counts keyed by client id, for the
// client-overview join.
func (r *documentRepo) CountsByClient(ctx context.Context) (map[uuid.UUID]int, error) {
	query := `SELECT client_id, COUNT(*) FROM documents GROUP BY client_id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var clientID uuid.UUID
		var count int
		if err := rows.Scan(&clientID, &count); err != nil {
			return nil, err
		}
		counts[clientID] = count
	}
	return counts, rows.Err()
}

// ListStorageKeys returns every referenced storage key; the orphan sweeper
// diffs this against the object store's contents.
func (r *documentRepo) ListStorageKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT storage_key FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

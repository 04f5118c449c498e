package repositories

import (
	"context"
	"fmt"

	"taxdesk/internal/models"

	"github.com/google/uuid"
)

type CredentialRepository interface {
	Create(ctx context.Context, cred *models.Credential) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Credential, error)
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type credentialRepo struct {
	db DB
}

func NewCredentialRepo(db DB) CredentialRepository {
	return &credentialRepo{db: db}
}

func (r *credentialRepo) Create(ctx context.Context, cred *models.Credential) error {
	var count int
	emailCheckQuery := `SELECT COUNT(*) FROM credentials WHERE email = $1`
	err := r.db.QueryRow(ctx, emailCheckQuery, cred.Email).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("credential with email '%s' already exists", cred.Email)
	}

	query := `
		INSERT INTO credentials (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, cred.ID, cred.Email, cred.PasswordHash)
	return err
}

func (r *credentialRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Credential, error) {
	cred := &models.Credential{}
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM credentials
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&cred.ID, &cred.Email, &cred.PasswordHash, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (r *credentialRepo) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	cred := &models.Credential{}
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM credentials
		WHERE email = $1
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&cred.ID, &cred.Email, &cred.PasswordHash, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (r *credentialRepo) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	query := `UPDATE credentials SET email = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, email, id)
	return err
}

func (r *credentialRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE credentials SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, passwordHash, id)
	return err
}

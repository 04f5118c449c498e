package repositories

import (
	"context"

	"taxdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TaxReturnRepository interface {
	Create(ctx context.Context, ret *models.TaxReturn) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TaxReturn, error)
	Update(ctx context.Context, ret *models.TaxReturn) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.TaxReturn, error)
	List(ctx context.Context, limit, offset int) ([]*models.TaxReturn, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

type taxReturnRepo struct {
	db DB
}

func NewTaxReturnRepo(db DB) TaxReturnRepository {
	return &taxReturnRepo{db: db}
}

func (r *taxReturnRepo) Create(ctx context.Context, ret *models.TaxReturn) error {
	query := `
		INSERT INTO tax_returns (id, client_id, tax_year, status, filing_type, total_income, total_deductions, total_tax, notes, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), $10)
	`
	_, err := r.db.Exec(ctx, query, ret.ID, ret.ClientID, ret.TaxYear, ret.Status, ret.FilingType, ret.TotalIncome, ret.TotalDeductions, ret.TotalTax, ret.Notes, ret.CompletedAt)
	return err
}

func (r *taxReturnRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TaxReturn, error) {
	ret := &models.TaxReturn{}
	query := `
		SELECT id, client_id, tax_year, status, filing_type, total_income, total_deductions, total_tax, notes, created_at, completed_at
		FROM tax_returns
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&ret.ID, &ret.ClientID, &ret.TaxYear, &ret.Status, &ret.FilingType, &ret.TotalIncome, &ret.TotalDeductions, &ret.TotalTax, &ret.Notes, &ret.CreatedAt, &ret.CompletedAt)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *taxReturnRepo) Update(ctx context.Context, ret *models.TaxReturn) error {
	query := `
		UPDATE tax_returns
		SET status = $1, filing_type = $2, total_income = $3, total_deductions = $4, total_tax = $5, notes = $6, completed_at = $7
		WHERE id = $8
	`
	_, err := r.db.Exec(ctx, query, ret.Status, ret.FilingType, ret.TotalIncome, ret.TotalDeductions, ret.TotalTax, ret.Notes, ret.CompletedAt, ret.ID)
	return err
}

func (r *taxReturnRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.TaxReturn, error) {
	query := `
		SELECT id, client_id, tax_year, status, filing_type, total_income, total_deductions, total_tax, notes, created_at, completed_at
		FROM tax_returns
		WHERE client_id = $1
		ORDER BY tax_year DESC
	`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaxReturns(rows)
}

func (r *taxReturnRepo) List(ctx context.Context, limit, offset int) ([]*models.TaxReturn, error) {
	query := `
		SELECT id, client_id, tax_year, status, filing_type, total_income, total_deductions, total_tax, notes, created_at, completed_at
		FROM tax_returns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaxReturns(rows)
}

func (r *taxReturnRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tax_returns`).Scan(&count)
	return count, err
}

func (r *taxReturnRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tax_returns WHERE status = $1`, status).Scan(&count)
	return count, err
}

func scanTaxReturns(rows pgx.Rows) ([]*models.TaxReturn, error) {
	var returns []*models.TaxReturn
	for rows.Next() {
		ret := &models.TaxReturn{}
		if err := rows.Scan(&ret.ID, &ret.ClientID, &ret.TaxYear, &ret.Status, &ret.FilingType, &ret.TotalIncome, &ret.TotalDeductions, &ret.TotalTax, &ret.Notes, &ret.CreatedAt, &ret.CompletedAt); err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

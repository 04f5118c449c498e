package repositories

import (
	"context"
	"fmt"

	"taxdesk/internal/models"

	"github.com/google/uuid"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Employee, error)
	Count(ctx context.Context) (int, error)
	AddAssignedClient(ctx context.Context, id, clientID uuid.UUID) error
}

type employeeRepo struct {
	db DB
}

func NewEmployeeRepo(db DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	query := `
		INSERT INTO employees (id, email, first_name, last_name, role, assigned_clients, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, employee.ID, employee.Email, employee.FirstName, employee.LastName, employee.Role, employee.AssignedClients)
	return err
}

func (r *employeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee := &models.Employee{}
	// Records created before client assignment existed have NULL
	// assigned_clients; coalesce keeps the scan into a slice happy.
	query := `
		SELECT id, email, first_name, last_name, role, COALESCE(assigned_clients, '{}'), created_at, updated_at
		FROM employees
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&employee.ID, &employee.Email, &employee.FirstName, &employee.LastName, &employee.Role, &employee.AssignedClients, &employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (r *employeeRepo) Update(ctx context.Context, employee *models.Employee) error {
	// Email is immutable post-creation; it is deliberately absent here.
	query := `
		UPDATE employees
		SET first_name = $1, last_name = $2, role = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, employee.FirstName, employee.LastName, employee.Role, employee.ID)
	return err
}

func (r *employeeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM employees WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *employeeRepo) List(ctx context.Context, limit, offset int) ([]*models.Employee, error) {
	query := `
		SELECT id, email, first_name, last_name, role, COALESCE(assigned_clients, '{}'), created_at, updated_at
		FROM employees
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		employee := &models.Employee{}
		if err := rows.Scan(&employee.ID, &employee.Email, &employee.FirstName, &employee.LastName, &employee.Role, &employee.AssignedClients, &employee.CreatedAt, &employee.UpdatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (r *employeeRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM employees`
	err := r.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}

// AddAssignedClient appends clientID with set semantics: the guard makes a
// repeat assignment a no-op instead of a duplicate array entry.
func (r *employeeRepo) AddAssignedClient(ctx context.Context, id, clientID uuid.UUID) error {
	query := `
		UPDATE employees
		SET assigned_clients = array_append(COALESCE(assigned_clients, '{}'), $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(COALESCE(assigned_clients, '{}')))
	`
	_, err := r.db.Exec(ctx, query, id, clientID)
	return err
}

package services

import (
	"context"
	"fmt"
	"log"

	"taxdesk/internal/caching"
	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"

	"github.com/google/uuid"
)

// EmployeeCreate is the staff-creation payload.
type EmployeeCreate struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// EmployeeUpdate carries the mutable employee fields. Email is immutable
// post-creation: changing a provider-backed identity email is a separate
// operation this service does not offer.
type EmployeeUpdate struct {
	FirstName string
	LastName  string
	Role      string
}

// EmployeeService manages staff records and the employee→client assignment
// relation.
type EmployeeService interface {
	Create(ctx context.Context, form EmployeeCreate) (*models.Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	Update(ctx context.Context, id uuid.UUID, fields EmployeeUpdate) (*models.Employee, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Employee, error)

	// AssignClient adds clientID to the employee's assigned set and returns
	// the updated set. Assigning an already-assigned client is a no-op.
	// Callers must hold the admin or ceo role; the route middleware
	// enforces that, it is not re-checked here.
	AssignClient(ctx context.Context, employeeID, clientID uuid.UUID) ([]uuid.UUID, error)

	// Bootstrap creates the first employee without requiring an admin
	// caller. It refuses once any employee exists.
	Bootstrap(ctx context.Context, form EmployeeCreate) (*models.Employee, error)
}

type employeeService struct {
	employees repositories.EmployeeRepository
	users     repositories.UserRepository
	auth      AuthService
	cache     caching.CacheService
}

func NewEmployeeService(employees repositories.EmployeeRepository, users repositories.UserRepository, auth AuthService, cache caching.CacheService) EmployeeService {
	return &employeeService{
		employees: employees,
		users:     users,
		auth:      auth,
		cache:     cache,
	}
}

// Create provisions the identity-provider credential first, then the
// employee record. The very first employee record ever created is promoted
// to ceo regardless of the requested role, so the initial account has
// elevated privilege without a separate provisioning step. A credential
// whose metadata write then fails is NOT rolled back; the orphaned,
// sign-in-able account is a known limitation.
func (s *employeeService) Create(ctx context.Context, form EmployeeCreate) (*models.Employee, error) {
	if err := common.ValidateRequiredString(form.FirstName, "first name"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := common.ValidateRequiredString(form.LastName, "last name"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if !models.ValidEmployeeRole(form.Role) {
		return nil, fmt.Errorf("%w: role must be one of employee, admin, ceo", common.ErrValidation)
	}

	existing, err := s.employees.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}

	role := form.Role
	if existing == 0 {
		role = models.RoleCEO
	}

	principal, err := s.auth.SignUp(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		ID:              principal.ID,
		Email:           form.Email,
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		Role:            role,
		AssignedClients: []uuid.UUID{},
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		log.Printf("WARN: employee metadata write failed for credential %s; credential left in place", principal.ID)
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}

	return employee, nil
}

// Bootstrap is the unauthenticated first-run path. The count check here and
// the CEO promotion in Create are both needed: this one closes the door once
// any staff exists, Create makes the first record a ceo whichever path ran.
func (s *employeeService) Bootstrap(ctx context.Context, form EmployeeCreate) (*models.Employee, error) {
	existing, err := s.employees.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: portal already has staff", common.ErrAuth)
	}
	return s.Create(ctx, form)
}

func (s *employeeService) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return employee, nil
}

func (s *employeeService) Update(ctx context.Context, id uuid.UUID, fields EmployeeUpdate) (*models.Employee, error) {
	if !models.ValidEmployeeRole(fields.Role) {
		return nil, fmt.Errorf("%w: role must be one of employee, admin, ceo", common.ErrValidation)
	}

	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}

	employee.FirstName = fields.FirstName
	employee.LastName = fields.LastName
	employee.Role = fields.Role
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}

	s.invalidate(ctx, id)
	return employee, nil
}

// Delete removes the metadata record only. The identity-provider credential
// is not revoked; see the service-level notes on orphaned accounts.
func (s *employeeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.employees.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *employeeService) List(ctx context.Context, limit, offset int) ([]*models.Employee, error) {
	employees, err := s.employees.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return employees, nil
}

func (s *employeeService) AssignClient(ctx context.Context, employeeID, clientID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.users.GetByID(ctx, clientID); err != nil {
		return nil, fmt.Errorf("%w: client not found", common.ErrValidation)
	}

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}

	if employee.HasAssignedClient(clientID) {
		return employee.AssignedClients, nil
	}

	if err := s.employees.AddAssignedClient(ctx, employeeID, clientID); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}
	s.invalidate(ctx, employeeID)

	return append(employee.AssignedClients, clientID), nil
}

func (s *employeeService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.DeleteEmployee(ctx, id); err != nil {
		log.Printf("WARN: failed to invalidate employee cache for %s: %v", id, err)
	}
}

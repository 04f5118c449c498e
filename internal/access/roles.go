package access

import (
	"context"
	"errors"
	"log"
	"time"

	"taxdesk/internal/caching"
	"taxdesk/internal/repositories"
	"taxdesk/internal/session"

	"github.com/jackc/pgx/v5"
)

const roleCacheTTL = 5 * time.Minute

// employeeRoleSource resolves roles from the employees collection. Roles
// live only on employee records; a client principal has no record there and
// resolves to the empty role.
type employeeRoleSource struct {
	employees repositories.EmployeeRepository
	cache     caching.CacheService
}

func NewEmployeeRoleSource(employees repositories.EmployeeRepository, cache caching.CacheService) RoleSource {
	return &employeeRoleSource{employees: employees, cache: cache}
}

func (s *employeeRoleSource) RoleOf(ctx context.Context, principal *session.Principal) (string, error) {
	if principal == nil {
		return "", nil
	}

	if cached, err := s.cache.GetEmployee(ctx, principal.ID); cached != nil {
		return cached.Role, nil
	} else if err != nil {
		// Cache errors fall through to the database.
		log.Printf("WARN: employee role cache read failed for %s: %v", principal.ID, err)
	}

	employee, err := s.employees.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil // not an employee
		}
		return "", err
	}

	if cacheErr := s.cache.SetEmployee(ctx, employee, roleCacheTTL); cacheErr != nil {
		log.Printf("WARN: failed to cache employee %s: %v", employee.ID, cacheErr)
	}
	return employee.Role, nil
}

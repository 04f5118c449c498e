package handlers

import (
	"net/http"

	"taxdesk/internal/common"
	"taxdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// EmployeeHandlers handles staff management endpoints
type EmployeeHandlers struct {
	employeeService  services.EmployeeService
	directoryService services.DirectoryService
}

// NewEmployeeHandlers creates a new employee handlers instance
func NewEmployeeHandlers(employeeService services.EmployeeService, directoryService services.DirectoryService) *EmployeeHandlers {
	return &EmployeeHandlers{
		employeeService:  employeeService,
		directoryService: directoryService,
	}
}

// CreateEmployeeRequest represents the staff creation payload
type CreateEmployeeRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"required"`
}

// Create handles POST /employees. The very first employee is promoted
// to ceo regardless of the requested role.
func (h *EmployeeHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	employee, err := h.employeeService.Create(ctx, services.EmployeeCreate{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, employee)
}

// Bootstrap handles POST /auth/bootstrap: first-run staff provisioning.
// Open by necessity; the service refuses once any employee exists.
func (h *EmployeeHandlers) Bootstrap(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	employee, err := h.employeeService.Bootstrap(ctx, services.EmployeeCreate{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, employee)
}

// List handles GET /directory/employees: the directory with assigned-client
// names resolved.
func (h *EmployeeHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	entries, err := h.directoryService.EmployeeDirectory(ctx)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Get handles GET /directory/employees/:id
func (h *EmployeeHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	employeeID, err := common.ValidateUUID(c.Param("id"), "employee id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	employee, err := h.employeeService.GetByID(ctx, employeeID)
	if err != nil {
		return common.SendNotFoundError(c, "Employee")
	}
	return c.JSON(http.StatusOK, employee)
}

// UpdateEmployeeRequest represents the mutable employee fields. Email is
// deliberately absent.
type UpdateEmployeeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Update handles PUT /employees/:id
func (h *EmployeeHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	employeeID, err := common.ValidateUUID(c.Param("id"), "employee id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	employee, err := h.employeeService.Update(ctx, employeeID, services.EmployeeUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, employee)
}

// Delete handles DELETE /employees/:id. Only the staff record is
// removed; the sign-in credential stays.
func (h *EmployeeHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	employeeID, err := common.ValidateUUID(c.Param("id"), "employee id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.employeeService.Delete(ctx, employeeID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignClientRequest names the client to assign
type AssignClientRequest struct {
	ClientID string `json:"client_id" validate:"required"`
}

// AssignClient handles POST /employees/:id/assign. Assigning an
// already-assigned client succeeds without duplicating the entry.
func (h *EmployeeHandlers) AssignClient(c echo.Context) error {
	ctx := c.Request().Context()

	employeeID, err := common.ValidateUUID(c.Param("id"), "employee id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req AssignClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	clientID, err := common.ValidateUUID(req.ClientID, "client id")
	if err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}

	assigned, err := h.employeeService.AssignClient(ctx, employeeID, clientID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"employee_id":      employeeID,
		"assigned_clients": assigned,
	})
}

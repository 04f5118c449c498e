package handlers

import (
	"errors"
	"net/http"

	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"
	"taxdesk/internal/services"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// ProfileHandlers serves /v1/me: the caller's own account, whichever side of
// the staff/client divide it lives on.
type ProfileHandlers struct {
	profileService services.ProfileService
	authService    services.AuthService
	employeeRepo   repositories.EmployeeRepository
}

func NewProfileHandlers(profileService services.ProfileService, authService services.AuthService, employeeRepo repositories.EmployeeRepository) *ProfileHandlers {
	return &ProfileHandlers{
		profileService: profileService,
		authService:    authService,
		employeeRepo:   employeeRepo,
	}
}

// MeResponse is the whoami payload. Exactly one of Employee or Client is set.
type MeResponse struct {
	Kind     string              `json:"kind"` // "employee" or "client"
	Employee *models.Employee    `json:"employee,omitempty"`
	Client   *models.UserProfile `json:"client,omitempty"`
}

// Me returns the caller's own record. The employee table is checked first:
// role lives only there, and a missing row is what makes someone a client.
func (h *ProfileHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	principalID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	employee, err := h.employeeRepo.GetByID(ctx, principalID)
	if err == nil {
		return c.JSON(http.StatusOK, MeResponse{Kind: "employee", Employee: employee})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return common.SendServerError(c, "Failed to load account")
	}

	profile, err := h.profileService.GetByID(ctx, principalID)
	if err != nil {
		return common.SendNotFoundError(c, "Account")
	}
	return c.JSON(http.StatusOK, MeResponse{Kind: "client", Client: profile})
}

// UpdateMe updates the caller's client profile names
func (h *ProfileHandlers) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()

	principalID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	profile, err := h.profileService.Update(ctx, principalID, &req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// ChangeEmailRequest carries the new address
type ChangeEmailRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
}

// ChangeEmail updates the caller's sign-in email
func (h *ProfileHandlers) ChangeEmail(c echo.Context) error {
	ctx := c.Request().Context()

	principalID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ChangeEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.NewEmail == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "New email is required")
	}

	if err := h.authService.UpdateEmail(ctx, principalID, req.NewEmail); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Email updated successfully",
	})
}

// ChangePasswordRequest carries the current and new password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// ChangePassword updates the caller's password after verifying the current one
func (h *ProfileHandlers) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	principalID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Current and new password are required")
	}

	if err := h.authService.UpdatePassword(ctx, principalID, req.CurrentPassword, req.NewPassword); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

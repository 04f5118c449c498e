package handlers

import (
	"net/http"

	"taxdesk/internal/common"
	"taxdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// ClientHandlers serves the staff-side view of client accounts
type ClientHandlers struct {
	profileService   services.ProfileService
	directoryService services.DirectoryService
}

func NewClientHandlers(profileService services.ProfileService, directoryService services.DirectoryService) *ClientHandlers {
	return &ClientHandlers{
		profileService:   profileService,
		directoryService: directoryService,
	}
}

// List handles GET /clients: every client with a document count
func (h *ClientHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	entries, err := h.directoryService.ClientOverview(ctx)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Get handles GET /clients/:id
func (h *ClientHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, err := common.ValidateUUID(c.Param("id"), "client id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	profile, err := h.profileService.GetByID(ctx, clientID)
	if err != nil {
		return common.SendNotFoundError(c, "Client")
	}
	return c.JSON(http.StatusOK, profile)
}

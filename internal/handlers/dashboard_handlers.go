package handlers

import (
	"net/http"

	"taxdesk/internal/jobs/background"
	"taxdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// DashboardHandlers serves the admin dashboard aggregates
type DashboardHandlers struct {
	directoryService services.DirectoryService
	scheduler        *background.JobScheduler
}

func NewDashboardHandlers(directoryService services.DirectoryService, scheduler *background.JobScheduler) *DashboardHandlers {
	return &DashboardHandlers{
		directoryService: directoryService,
		scheduler:        scheduler,
	}
}

// Stats handles GET /dashboard
func (h *DashboardHandlers) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.directoryService.DashboardStats(ctx)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Jobs handles GET /dashboard/admin: scheduled background job status
func (h *DashboardHandlers) Jobs(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.GetJobStatus())
}

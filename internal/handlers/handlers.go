package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"taxdesk/internal/common"

	"github.com/labstack/echo/v4"
)

// serviceError maps the service-layer error taxonomy onto HTTP status codes.
// Sentinel wrapping happens in the services; handlers only translate.
func serviceError(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrAuth):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrMetadataRead):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrStorageWrite), errors.Is(err, common.ErrStorageRead),
		errors.Is(err, common.ErrDeletion), errors.Is(err, common.ErrMetadataWrite):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// pagination reads limit/offset query params with sane defaults.
func pagination(c echo.Context) (int, int) {
	limit := 50
	offset := 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

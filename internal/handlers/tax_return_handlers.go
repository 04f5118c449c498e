package handlers

import (
	"net/http"

	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// TaxReturnHandlers handles tax return endpoints for both sides: clients see
// their own returns read-only, staff manage them.
type TaxReturnHandlers struct {
	taxReturnService services.TaxReturnService
}

func NewTaxReturnHandlers(taxReturnService services.TaxReturnService) *TaxReturnHandlers {
	return &TaxReturnHandlers{taxReturnService: taxReturnService}
}

// ListMine handles GET /tax-returns for the signed-in client
func (h *TaxReturnHandlers) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	returns, err := h.taxReturnService.ListForClient(ctx, clientID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, returns)
}

// GetMine handles GET /tax-returns/:id with an ownership check
func (h *TaxReturnHandlers) GetMine(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	ret, err := h.loadReturn(c)
	if err != nil {
		return err
	}
	if ret.ClientID != clientID {
		return common.SendNotFoundError(c, "Tax return")
	}
	return c.JSON(http.StatusOK, ret)
}

// Create handles POST /tax-returns (staff)
func (h *TaxReturnHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req services.TaxReturnCreate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	ret, err := h.taxReturnService.Create(ctx, &req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, ret)
}

// List handles GET /tax-returns/all
func (h *TaxReturnHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset := pagination(c)
	returns, err := h.taxReturnService.List(ctx, limit, offset)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, returns)
}

// ListForClient handles GET /clients/:id/tax-returns
func (h *TaxReturnHandlers) ListForClient(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, err := common.ValidateUUID(c.Param("id"), "client id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	returns, err := h.taxReturnService.ListForClient(ctx, clientID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, returns)
}

// Update handles PUT /tax-returns/:id
func (h *TaxReturnHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	returnID, err := common.ValidateUUID(c.Param("id"), "tax return id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.TaxReturnUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	ret, err := h.taxReturnService.Update(ctx, returnID, &req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, ret)
}

func (h *TaxReturnHandlers) loadReturn(c echo.Context) (*models.TaxReturn, error) {
	ctx := c.Request().Context()

	returnID, err := common.ValidateUUID(c.Param("id"), "tax return id")
	if err != nil {
		return nil, common.SendValidationError(c, "id", err.Error())
	}

	ret, err := h.taxReturnService.GetByID(ctx, returnID)
	if err != nil {
		return nil, common.SendNotFoundError(c, "Tax return")
	}
	return ret, nil
}

package handlers

import (
	"net/http"
	"strconv"

	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// maxDocumentSize caps uploads at 25MB; scanned returns run large.
const maxDocumentSize = 25 * 1024 * 1024

// DocumentHandlers handles document upload, listing, download and deletion
type DocumentHandlers struct {
	documentService services.DocumentService
}

// NewDocumentHandlers creates a new document handlers instance
func NewDocumentHandlers(documentService services.DocumentService) *DocumentHandlers {
	return &DocumentHandlers{documentService: documentService}
}

var allowedDocumentContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/heic":      true,
}

// Upload handles POST /documents. The file travels as multipart form data
// alongside its filing details.
func (h *DocumentHandlers) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Document file is required")
	}
	if file.Size > maxDocumentSize {
		return echo.NewHTTPError(http.StatusBadRequest, "File size exceeds maximum limit of 25MB")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer src.Close()

	// Sniff the real content type rather than trusting the form header
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && n == 0 {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read file content")
	}
	contentType := http.DetectContentType(buffer[:n])
	if !allowedDocumentContentTypes[contentType] {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file type. Only PDF, JPEG, PNG, and HEIC files are allowed")
	}
	if _, err := src.Seek(0, 0); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to rewind uploaded file")
	}

	taxYear, err := strconv.Atoi(c.FormValue("tax_year"))
	if err != nil {
		return common.SendValidationError(c, "tax_year", "must be a number")
	}

	doc, err := h.documentService.Upload(ctx, clientID, services.DocumentUpload{
		Filename:     file.Filename,
		ContentType:  contentType,
		Reader:       src,
		Size:         file.Size,
		DocumentType: c.FormValue("document_type"),
		TaxYear:      taxYear,
		Notes:        c.FormValue("notes"),
	})
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, doc)
}

// ListMine handles GET /documents for the signed-in client
func (h *DocumentHandlers) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	docs, err := h.documentService.ListForClient(ctx, clientID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, docs)
}

// Get handles GET /documents/:id
func (h *DocumentHandlers) Get(c echo.Context) error {
	doc, err := h.ownedDocument(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// Download handles GET /documents/:id/download with a fresh presigned URL.
// The URL stored at upload time expires; this endpoint never serves a stale
// one.
func (h *DocumentHandlers) Download(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := h.ownedDocument(c)
	if err != nil {
		return err
	}

	url, err := h.documentService.DownloadURL(ctx, doc)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"download_url": url})
}

// Delete handles DELETE /documents/:id. The binary goes first; metadata is
// only removed once the object store confirms.
func (h *DocumentHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := h.ownedDocument(c)
	if err != nil {
		return err
	}

	if err := h.documentService.Delete(ctx, doc); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedDocument loads the :id document and enforces ownership. A document
// belonging to someone else reads as not found; existence is not leaked.
func (h *DocumentHandlers) ownedDocument(c echo.Context) (*models.Document, error) {
	ctx := c.Request().Context()

	clientID, ok := common.PrincipalIDFromContext(ctx)
	if !ok {
		return nil, common.SendUnauthorizedError(c)
	}

	docID, err := common.ValidateUUID(c.Param("id"), "document id")
	if err != nil {
		return nil, common.SendValidationError(c, "id", err.Error())
	}

	doc, err := h.documentService.GetByID(ctx, docID)
	if err != nil {
		return nil, common.SendNotFoundError(c, "Document")
	}
	if doc.ClientID != clientID {
		return nil, common.SendNotFoundError(c, "Document")
	}
	return doc, nil
}

// ListForClient handles GET /clients/:id/documents
func (h *DocumentHandlers) ListForClient(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, err := common.ValidateUUID(c.Param("id"), "client id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	docs, err := h.documentService.ListForClient(ctx, clientID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, docs)
}

// UpdateStatusRequest carries the review outcome
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PUT /documents/:id/status
func (h *DocumentHandlers) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	docID, err := common.ValidateUUID(c.Param("id"), "document id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.documentService.UpdateStatus(ctx, docID, req.Status); err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Status updated successfully",
	})
}

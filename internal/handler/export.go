package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/axiomflow/api/internal/model"
	"github.com/axiomflow/api/internal/service"
	"github.com/axiomflow/api/pkg/response"
)

type ExportHandler struct {
	exports   *service.ExportService
	validator *validator.Validate
}

func NewExportHandler(exports *service.ExportService, v *validator.Validate) *ExportHandler {
	return &ExportHandler{
		exports:   exports,
		validator: v,
	}
}

// Export handles POST /api/export
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	var req model.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.exports.Export(c.Context(), &req)
	if err != nil {
		switch err.Error() {
		case "document not found":
			return response.NotFound(c, "Document not found")
		case "unsupported format":
			return response.ValidationError(c, "Unsupported export format", nil)
		}
		if strings.HasPrefix(err.Error(), "PDF rendering failed") {
			return response.ProviderError(c, err.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

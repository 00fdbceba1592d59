package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/axiomflow/api/internal/service"
	"github.com/axiomflow/api/pkg/response"
)

type DownloadHandler struct {
	exports *service.ExportService
}

func NewDownloadHandler(exports *service.ExportService) *DownloadHandler {
	return &DownloadHandler{exports: exports}
}

// Get handles GET /api/downloads/:filename
func (h *DownloadHandler) Get(c *fiber.Ctx) error {
	filename := c.Params("filename")
	if filename == "" {
		return response.ValidationError(c, "Filename is required", nil)
	}

	localPath, redirectURL, err := h.exports.ResolveDownload(c.Context(), filename)
	if err != nil {
		if err.Error() == "invalid filename" {
			return response.ValidationError(c, "Invalid filename", nil)
		}
		return response.NotFound(c, "File not found")
	}

	if redirectURL != "" {
		return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendFile(localPath)
}

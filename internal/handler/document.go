package handler

import (
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/axiomflow/api/internal/model"
	"github.com/axiomflow/api/internal/service"
	"github.com/axiomflow/api/pkg/response"
)

const maxUploadSize = 50 * 1024 * 1024 // 50MB

type DocumentHandler struct {
	docs      *service.DocumentService
	jobs      *service.JobService
	validator *validator.Validate
}

func NewDocumentHandler(docs *service.DocumentService, jobs *service.JobService, v *validator.Validate) *DocumentHandler {
	return &DocumentHandler{
		docs:      docs,
		jobs:      jobs,
		validator: v,
	}
}

// Upload handles POST /api/documents
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	langIn := c.FormValue("lang_in")
	langOut := c.FormValue("lang_out")

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxUploadSize {
		return response.ValidationError(c, "File size exceeds 50MB limit", map[string]interface{}{
			"max_size":  maxUploadSize,
			"file_size": file.Size,
		})
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "application/pdf" && !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return response.ValidationError(c, "Only PDF files are supported", map[string]interface{}{
			"content_type": contentType,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file")
	}

	record, err := h.docs.Upload(c.Context(), file.Filename, content, langIn, langOut)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	parseJob, err := h.jobs.CreateParseJob(c.Context(), record.Document.ID, record.Document.SourcePDFPath)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, &model.UploadDocumentResponse{
		DocumentID: record.Document.ID,
		Title:      record.Document.Title,
		NumPages:   record.Document.NumPages,
		Status:     record.Document.Status,
		ParseJobID: parseJob.ID,
	})
}

// Get handles GET /api/documents/:id
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	documentID := c.Params("id")
	if documentID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	record, err := h.docs.GetRecord(c.Context(), documentID)
	if err != nil {
		if err.Error() == "document not found" {
			return response.NotFound(c, "Document not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, record)
}

// Source handles GET /api/documents/:id/source
func (h *DocumentHandler) Source(c *fiber.Ctx) error {
	documentID := c.Params("id")
	if documentID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	path, err := h.docs.SourcePDFPath(c.Context(), documentID)
	if err != nil {
		if err.Error() == "document not found" {
			return response.NotFound(c, "Document not found")
		}
		return response.NotFound(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.SendFile(path)
}

// Progress handles GET /api/documents/:id/progress
func (h *DocumentHandler) Progress(c *fiber.Ctx) error {
	documentID := c.Params("id")
	if documentID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	record, recordErr := h.docs.GetRecord(c.Context(), documentID)
	jobs, err := h.jobs.GetJobsForDocument(c.Context(), documentID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	if recordErr != nil && len(jobs) == 0 {
		return response.NotFound(c, "Document not found")
	}

	return response.OK(c, h.docs.BuildProgress(documentID, record, jobs))
}

// Delete handles DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	documentID := c.Params("id")
	if documentID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	if err := h.docs.Delete(c.Context(), documentID); err != nil {
		if err.Error() == "document not found" {
			return response.NotFound(c, "Document not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}

// EditBlock handles PATCH /api/documents/:id/blocks/:blockId
func (h *DocumentHandler) EditBlock(c *fiber.Ctx) error {
	documentID := c.Params("id")
	blockID := c.Params("blockId")
	if documentID == "" || blockID == "" {
		return response.ValidationError(c, "Document ID and block ID are required", nil)
	}

	var req model.BlockEditRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	err := h.docs.EditBlock(c.Context(), documentID, blockID, req.Translation, req.ApplyAllSameSource)
	if err != nil {
		switch err.Error() {
		case "document not found":
			return response.NotFound(c, "Document not found")
		case "block not found":
			return response.NotFound(c, "Block not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}

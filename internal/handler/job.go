package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/axiomflow/api/internal/model"
	"github.com/axiomflow/api/internal/service"
	"github.com/axiomflow/api/pkg/response"
)

type JobHandler struct {
	jobs      *service.JobService
	docs      *service.DocumentService
	validator *validator.Validate
}

func NewJobHandler(jobs *service.JobService, docs *service.DocumentService, v *validator.Validate) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		docs:      docs,
		validator: v,
	}
}

// Translate handles POST /api/jobs/translate
func (h *JobHandler) Translate(c *fiber.Ctx) error {
	var req model.TranslateJobCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if _, err := h.docs.GetRecord(c.Context(), req.DocumentID); err != nil {
		if err.Error() == "document not found" {
			return response.NotFound(c, "Document not found")
		}
		return response.ServiceError(c, err.Error())
	}

	result, err := h.jobs.CreateTranslateJob(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/jobs/:jobId
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.jobs.GetJob(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, job)
}

// Pause handles POST /api/jobs/:jobId/pause
func (h *JobHandler) Pause(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.jobs.Pause(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, job)
}

// Resume handles POST /api/jobs/:jobId/resume
func (h *JobHandler) Resume(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.jobs.Resume(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, job)
}

// Cancel handles POST /api/jobs/:jobId/cancel
func (h *JobHandler) Cancel(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.jobs.Cancel(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, job)
}

// Retry handles POST /api/jobs/:jobId/retry
func (h *JobHandler) Retry(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.jobs.Retry(c.Context(), jobID)
	if err != nil {
		switch err.Error() {
		case "job not found":
			return response.NotFound(c, "Job not found")
		case "no payload to retry":
			return response.ValidationError(c, "Job has no payload to retry", nil)
		}
		return response.ServiceError(c, err.Error())
	}
	return response.Accepted(c, job)
}

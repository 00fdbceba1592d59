package model

import "time"

// TranslateJobCreateRequest represents the request for POST /api/jobs/translate
type TranslateJobCreateRequest struct {
	DocumentID string `json:"document_id" validate:"required"`
	LangIn     string `json:"lang_in" validate:"omitempty,min=2"`
	LangOut    string `json:"lang_out" validate:"omitempty,min=2"`
	Provider   string `json:"provider" validate:"omitempty,oneof=google ollama"`

	UseContext         *bool `json:"use_context" validate:"omitempty"`
	ContextWindowSize  *int  `json:"context_window_size" validate:"omitempty,min=0,max=10"`
	UseTermConsistency *bool `json:"use_term_consistency" validate:"omitempty"`
	UseSmartBatching   *bool `json:"use_smart_batching" validate:"omitempty"`
}

// TranslateJobCreatedResponse is returned when a translate job is accepted
type TranslateJobCreatedResponse struct {
	JobID     string    `json:"job_id"`
	Stage     JobStage  `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockEditRequest represents PATCH /api/documents/:id/blocks/:blockId
type BlockEditRequest struct {
	Translation        string `json:"translation"`
	ApplyAllSameSource bool   `json:"apply_all_same_source"`
}

package model

import (
	"encoding/json"
	"time"
)

// JobStage is the processing phase of an asynchronous job
type JobStage string

const (
	JobStagePending     JobStage = "pending"
	JobStageParsing     JobStage = "parsing"
	JobStageTranslating JobStage = "translating"
	JobStageComposing   JobStage = "composing"
	JobStageExporting   JobStage = "exporting"
	JobStageSuccess     JobStage = "success"
	JobStageFailed      JobStage = "failed"
	JobStageCanceled    JobStage = "canceled"
)

// Terminal reports whether the stage is final. A poller stops here.
func (s JobStage) Terminal() bool {
	return s == JobStageSuccess || s == JobStageFailed || s == JobStageCanceled
}

// JobControl is the cooperative control flag workers check between blocks
type JobControl string

const (
	JobControlRunning  JobControl = "running"
	JobControlPaused   JobControl = "paused"
	JobControlCanceled JobControl = "canceled"
)

// Job types
const (
	JobTypeParse     = "parse"
	JobTypeTranslate = "translate"
)

// Job represents a background job in the system
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	DocumentID string          `json:"document_id"`
	Stage      JobStage        `json:"stage"`
	Progress   float64         `json:"progress"`
	Message    string          `json:"message,omitempty"`
	Done       *int            `json:"done,omitempty"`
	Total      *int            `json:"total,omitempty"`
	EtaS       *float64        `json:"eta_s,omitempty"`
	Control    JobControl      `json:"control,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TranslateJobPayload contains the data for a translate job
type TranslateJobPayload struct {
	DocumentID string `json:"document_id"`
	LangIn     string `json:"lang_in"`
	LangOut    string `json:"lang_out"`
	Provider   string `json:"provider"`

	// Optional strategy overrides; nil means backend defaults.
	UseContext         *bool `json:"use_context,omitempty"`
	ContextWindowSize  *int  `json:"context_window_size,omitempty"`
	UseTermConsistency *bool `json:"use_term_consistency,omitempty"`
	UseSmartBatching   *bool `json:"use_smart_batching,omitempty"`
}

// ParseJobPayload contains the data for a parse job
type ParseJobPayload struct {
	DocumentID string `json:"document_id"`
	SourcePath string `json:"source_path"`
}

package model

// UploadDocumentResponse represents the response for POST /api/documents
type UploadDocumentResponse struct {
	DocumentID string         `json:"document_id"`
	Title      string         `json:"title"`
	NumPages   int            `json:"num_pages"`
	Status     DocumentStatus `json:"status"`
	ParseJobID string         `json:"parse_job_id"`
}

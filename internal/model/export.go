package model

// ExportFormat is a supported export target
type ExportFormat string

const (
	ExportMarkdown ExportFormat = "markdown"
	ExportHTML     ExportFormat = "html"
	ExportPDF      ExportFormat = "pdf"
	ExportPDFMono  ExportFormat = "pdf-mono"
	ExportPDFDual  ExportFormat = "pdf-dual"
)

// ExportRequest represents the request for POST /api/export
type ExportRequest struct {
	DocumentID string       `json:"document_id" validate:"required"`
	Format     ExportFormat `json:"format" validate:"omitempty,oneof=markdown html pdf pdf-mono pdf-dual"`
	Bilingual  bool         `json:"bilingual"`

	// SubsetFonts defaults to true when omitted.
	SubsetFonts      *bool  `json:"subset_fonts" validate:"omitempty"`
	ConvertToPDFA    bool   `json:"convert_to_pdfa"`
	PDFAPart         *int   `json:"pdfa_part" validate:"omitempty,oneof=1 2 3"`
	PDFAConformance  string `json:"pdfa_conformance" validate:"omitempty,oneof=A B U a b u"`
}

// ExportResponse carries either inline content (markdown/html) or a
// download URL (pdf variants)
type ExportResponse struct {
	Format      string `json:"format"`
	Content     string `json:"content,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

package model

import "time"

// DocumentStatus tracks a document through its lifecycle
type DocumentStatus string

const (
	DocumentStatusPending     DocumentStatus = "pending"
	DocumentStatusParsed      DocumentStatus = "parsed"
	DocumentStatusTranslating DocumentStatus = "translating"
	DocumentStatusTranslated  DocumentStatus = "translated"
	DocumentStatusExporting   DocumentStatus = "exporting"
	DocumentStatusCompleted   DocumentStatus = "completed"
	DocumentStatusFailed      DocumentStatus = "failed"
)

// BlockType classifies a layout block on a page
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockCaption   BlockType = "caption"
	BlockFormula   BlockType = "formula"
	BlockFigure    BlockType = "figure"
	BlockTable     BlockType = "table"
)

var ValidBlockTypes = []BlockType{
	BlockParagraph, BlockHeading, BlockCaption,
	BlockFormula, BlockFigure, BlockTable,
}

// BBox is a block's bounding box in page coordinates
type BBox struct {
	Page int     `json:"page"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// Block is a unit of source text with its translation
type Block struct {
	ID             string     `json:"id"`
	Type           BlockType  `json:"type"`
	BBox           BBox       `json:"bbox"`
	ReadingOrder   int        `json:"reading_order"`
	Text           string     `json:"text"`
	Translation    string     `json:"translation,omitempty"`
	Edited         bool       `json:"edited,omitempty"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	IsHeaderFooter bool       `json:"is_header_footer,omitempty"`
	IsFootnote     bool       `json:"is_footnote,omitempty"`
}

// Page holds the blocks of a single page plus its media box dimensions,
// which the workbench needs to scale its canvas
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Blocks []Block `json:"blocks"`
}

// Document is the document metadata record
type Document struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id,omitempty"`
	Title         string         `json:"title,omitempty"`
	NumPages      int            `json:"num_pages"`
	LangIn        string         `json:"lang_in"`
	LangOut       string         `json:"lang_out"`
	Status        DocumentStatus `json:"status"`
	SourcePDFPath string         `json:"source_pdf_path,omitempty"`
	StorageKey    string         `json:"storage_key,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DocumentRecord is the full stored form: metadata plus parsed pages.
// This is what GET /api/documents/:id returns.
type DocumentRecord struct {
	Document Document `json:"document"`
	Pages    []Page   `json:"pages"`
}

// DocumentProgress is the combined view returned by
// GET /api/documents/:id/progress
type DocumentProgress struct {
	DocumentID    string  `json:"document_id"`
	Status        string  `json:"status"`
	NumPages      int     `json:"num_pages"`
	ParseProgress float64 `json:"parse_progress"`
	ParseJob      *Job    `json:"parse_job,omitempty"`
	TranslateJob  *Job    `json:"translate_job,omitempty"`
}

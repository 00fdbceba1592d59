package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/axiomflow/api/internal/client"
	"github.com/axiomflow/api/internal/model"
)

// ExportService builds export artifacts from a translated document
type ExportService struct {
	docs       *DocumentService
	storage    client.StorageClient
	renderer   client.PDFRenderer
	exportsDir string
}

func NewExportService(docs *DocumentService, storage client.StorageClient, renderer client.PDFRenderer, exportsDir string) *ExportService {
	return &ExportService{
		docs:       docs,
		storage:    storage,
		renderer:   renderer,
		exportsDir: exportsDir,
	}
}

// Export produces the requested artifact. Markdown and HTML come back
// inline; PDF variants are rendered, stored and returned as a download URL.
func (s *ExportService) Export(ctx context.Context, req *model.ExportRequest) (*model.ExportResponse, error) {
	record, err := s.docs.GetRecord(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = model.ExportMarkdown
	}

	blocks := orderedBlocks(record)

	switch format {
	case model.ExportMarkdown:
		return &model.ExportResponse{
			Format:  "markdown",
			Content: buildMarkdown(blocks, req.Bilingual),
		}, nil

	case model.ExportHTML:
		return &model.ExportResponse{
			Format:  "html",
			Content: buildHTML(blocks, req.Bilingual),
		}, nil

	case model.ExportPDF, model.ExportPDFMono:
		return s.exportPDF(ctx, record, req, "mono")

	case model.ExportPDFDual:
		return s.exportPDF(ctx, record, req, "dual")
	}

	return nil, fmt.Errorf("unsupported format")
}

func (s *ExportService) exportPDF(ctx context.Context, record *model.DocumentRecord, req *model.ExportRequest, kind string) (*model.ExportResponse, error) {
	filename := fmt.Sprintf("%s-%s-%d.pdf", shortID(record.Document.ID), kind, time.Now().Unix())

	// Mock path when no renderer is configured, so the rest of the flow is
	// usable in development.
	if s.renderer == nil {
		return &model.ExportResponse{
			Format:      "pdf",
			DownloadURL: "/api/downloads/" + filename,
			Filename:    filename,
		}, nil
	}

	docBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	subsetFonts := true
	if req.SubsetFonts != nil {
		subsetFonts = *req.SubsetFonts
	}

	renderReq := &client.RenderPDFRequest{
		Document:        docBytes,
		Kind:            kind,
		SubsetFonts:     subsetFonts,
		ConvertToPDFA:   req.ConvertToPDFA,
		PDFAPart:        req.PDFAPart,
		PDFAConformance: strings.ToUpper(req.PDFAConformance),
	}

	rendered, err := s.renderer.RenderPDF(ctx, renderReq)
	if err != nil {
		return nil, fmt.Errorf("PDF rendering failed: %w", err)
	}

	if err := s.saveExport(ctx, filename, rendered.PDFBytes); err != nil {
		return nil, err
	}

	return &model.ExportResponse{
		Format:      "pdf",
		DownloadURL: "/api/downloads/" + filename,
		Filename:    filename,
	}, nil
}

func (s *ExportService) saveExport(ctx context.Context, filename string, data []byte) error {
	if s.storage != nil {
		key := "exports/" + filename
		if _, err := s.storage.Upload(ctx, key, bytes.NewReader(data), "application/pdf"); err != nil {
			return fmt.Errorf("failed to store export: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(s.exportsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create exports dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.exportsDir, filename), data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ResolveDownload maps a download filename to either a local path or a
// storage redirect URL. Filenames with path separators are rejected.
func (s *ExportService) ResolveDownload(ctx context.Context, filename string) (localPath, redirectURL string, err error) {
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return "", "", fmt.Errorf("invalid filename")
	}

	if s.storage != nil {
		signed, err := s.storage.GetSignedURL(ctx, "exports/"+filename, 15*time.Minute)
		if err != nil {
			return "", s.storage.GetPublicURL("exports/" + filename), nil
		}
		return "", signed, nil
	}

	path := filepath.Join(s.exportsDir, filename)
	if _, statErr := os.Stat(path); statErr != nil {
		return "", "", fmt.Errorf("not found")
	}
	return path, "", nil
}

// orderedBlocks flattens the record's pages into reading order
func orderedBlocks(record *model.DocumentRecord) []model.Block {
	var blocks []model.Block
	for _, page := range record.Pages {
		blocks = append(blocks, page.Blocks...)
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].ReadingOrder < blocks[j].ReadingOrder
	})
	return blocks
}

func buildMarkdown(blocks []model.Block, bilingual bool) string {
	figNo := 0
	tblNo := 0
	var lines []string

	for _, b := range blocks {
		if b.IsHeaderFooter || b.IsFootnote {
			continue
		}
		src := strings.TrimSpace(b.Text)
		dst := strings.TrimSpace(b.Translation)

		switch b.Type {
		case model.BlockHeading:
			lines = append(lines, "## "+firstNonEmpty(dst, src))
		case model.BlockCaption:
			if bilingual && dst != "" {
				lines = append(lines, fmt.Sprintf("> %s\n>\n> %s\n", src, dst))
			} else {
				lines = append(lines, fmt.Sprintf("> %s\n", firstNonEmpty(dst, src)))
			}
		case model.BlockFigure:
			figNo++
			lines = append(lines, fmt.Sprintf("\n> [Figure %d]\n", figNo))
		case model.BlockTable:
			tblNo++
			lines = append(lines, fmt.Sprintf("\n> [Table %d]\n", tblNo))
		case model.BlockFormula:
			lines = append(lines, "\n"+firstNonEmpty(dst, src)+"\n")
		default:
			if bilingual && dst != "" {
				lines = append(lines, src+"\n\n"+dst+"\n")
			} else {
				lines = append(lines, firstNonEmpty(dst, src)+"\n")
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

func buildHTML(blocks []model.Block, bilingual bool) string {
	figNo := 0
	tblNo := 0
	parts := []string{`<meta charset="utf-8" />`, "<article>"}

	for _, b := range blocks {
		if b.IsHeaderFooter || b.IsFootnote {
			continue
		}
		src := html.EscapeString(strings.TrimSpace(b.Text))
		dst := html.EscapeString(strings.TrimSpace(b.Translation))
		val := firstNonEmpty(dst, src)

		switch b.Type {
		case model.BlockHeading:
			parts = append(parts, "<h2>"+val+"</h2>")
		case model.BlockCaption:
			if bilingual && dst != "" {
				parts = append(parts, fmt.Sprintf("<blockquote><p>%s</p><p>%s</p></blockquote>", src, dst))
			} else {
				parts = append(parts, fmt.Sprintf("<blockquote><p>%s</p></blockquote>", val))
			}
		case model.BlockFigure:
			figNo++
			parts = append(parts, fmt.Sprintf("<blockquote><p>[Figure %d]</p></blockquote>", figNo))
		case model.BlockTable:
			tblNo++
			parts = append(parts, fmt.Sprintf("<blockquote><p>[Table %d]</p></blockquote>", tblNo))
		case model.BlockFormula:
			parts = append(parts, "<pre>"+val+"</pre>")
		default:
			if bilingual && dst != "" {
				parts = append(parts, "<p>"+src+"</p><p>"+dst+"</p>")
			} else {
				parts = append(parts, "<p>"+val+"</p>")
			}
		}
	}

	parts = append(parts, "</article>")
	return strings.Join(parts, "\n")
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/redis/go-redis/v9"

	"github.com/axiomflow/api/internal/client"
	"github.com/axiomflow/api/internal/model"
)

const documentTTL = 7 * 24 * time.Hour

// DocumentService handles document storage and metadata
type DocumentService struct {
	redis      *redis.Client
	storage    client.StorageClient
	uploadsDir string
}

func NewDocumentService(redisClient *redis.Client, storage client.StorageClient, uploadsDir string) *DocumentService {
	return &DocumentService{
		redis:      redisClient,
		storage:    storage,
		uploadsDir: uploadsDir,
	}
}

// Upload stores an uploaded PDF, reads its page geometry and creates the
// document record. Parsing is queued separately by the caller.
func (s *DocumentService) Upload(ctx context.Context, filename string, content []byte, langIn, langOut string) (*model.DocumentRecord, error) {
	docID := uuid.New().String()

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}

	sourcePath := filepath.Join(s.uploadsDir, docID+".pdf")
	if err := os.WriteFile(sourcePath, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store source PDF: %w", err)
	}

	numPages, err := api.PageCountFile(sourcePath)
	if err != nil {
		os.Remove(sourcePath)
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	dims, err := api.PageDimsFile(sourcePath)
	if err != nil {
		os.Remove(sourcePath)
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	pages := make([]model.Page, 0, numPages)
	for i := 0; i < numPages; i++ {
		page := model.Page{Number: i + 1}
		if i < len(dims) {
			page.Width = dims[i].Width
			page.Height = dims[i].Height
		}
		pages = append(pages, page)
	}

	now := time.Now()
	record := &model.DocumentRecord{
		Document: model.Document{
			ID:            docID,
			Title:         strings.TrimSuffix(filepath.Base(filename), ".pdf"),
			NumPages:      numPages,
			LangIn:        langIn,
			LangOut:       langOut,
			Status:        model.DocumentStatusPending,
			SourcePDFPath: sourcePath,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Pages: pages,
	}

	if err := s.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	// Keep a copy in object storage when configured. Local disk stays the
	// source of truth for parsing.
	if s.storage != nil {
		key := fmt.Sprintf("uploads/%s.pdf", docID)
		if _, err := s.storage.Upload(ctx, key, bytes.NewReader(content), "application/pdf"); err == nil {
			record.Document.StorageKey = key
			if err := s.SaveRecord(ctx, record); err != nil {
				return nil, fmt.Errorf("failed to save document: %w", err)
			}
		}
	}

	return record, nil
}

// Delete removes the document record, its job index and the stored source PDF
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	record, err := s.GetRecord(ctx, documentID)
	if err != nil {
		return err
	}

	if src := record.Document.SourcePDFPath; src != "" {
		if abs, err := s.uploadPath(src); err == nil {
			os.Remove(abs)
		}
	}

	// Best effort: a failed remote cleanup is retried by bucket lifecycle rules
	if s.storage != nil && record.Document.StorageKey != "" {
		_ = s.storage.Delete(ctx, record.Document.StorageKey)
	}

	return s.redis.Del(ctx,
		fmt.Sprintf("doc:%s", documentID),
		fmt.Sprintf("docjobs:%s", documentID),
	).Err()
}

// GetRecord loads the full document record
func (s *DocumentService) GetRecord(ctx context.Context, documentID string) (*model.DocumentRecord, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("doc:%s", documentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("document not found")
		}
		return nil, err
	}

	var record model.DocumentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// SaveRecord persists the full document record
func (s *DocumentService) SaveRecord(ctx context.Context, record *model.DocumentRecord) error {
	record.Document.UpdatedAt = time.Now()
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fmt.Sprintf("doc:%s", record.Document.ID), data, documentTTL).Err()
}

// SetStatus updates just the document status
func (s *DocumentService) SetStatus(ctx context.Context, documentID string, status model.DocumentStatus) error {
	record, err := s.GetRecord(ctx, documentID)
	if err != nil {
		return err
	}
	record.Document.Status = status
	return s.SaveRecord(ctx, record)
}

// SourcePDFPath resolves the on-disk path of the original upload. The path
// must stay inside the uploads directory.
func (s *DocumentService) SourcePDFPath(ctx context.Context, documentID string) (string, error) {
	record, err := s.GetRecord(ctx, documentID)
	if err != nil {
		return "", err
	}
	src := record.Document.SourcePDFPath
	if src == "" {
		return "", fmt.Errorf("source PDF not found")
	}

	absSrc, err := s.uploadPath(src)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(absSrc); err != nil {
		return "", fmt.Errorf("source PDF missing on disk")
	}
	return absSrc, nil
}

// uploadPath resolves src and rejects anything outside the uploads directory
func (s *DocumentService) uploadPath(src string) (string, error) {
	absUploads, err := filepath.Abs(s.uploadsDir)
	if err != nil {
		return "", err
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absSrc, absUploads+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid source PDF path")
	}
	return absSrc, nil
}

// EditBlock updates a block's translation. With applyAll set, every block
// sharing the same source text receives the translation.
func (s *DocumentService) EditBlock(ctx context.Context, documentID, blockID, translation string, applyAll bool) error {
	record, err := s.GetRecord(ctx, documentID)
	if err != nil {
		return err
	}

	translation = strings.TrimSpace(translation)
	now := time.Now()

	var sourceText string
	found := false
	for pi := range record.Pages {
		for bi := range record.Pages[pi].Blocks {
			b := &record.Pages[pi].Blocks[bi]
			if b.ID == blockID {
				sourceText = strings.TrimSpace(b.Text)
				b.Translation = translation
				b.Edited = true
				b.EditedAt = &now
				found = true
			}
		}
	}
	if !found {
		return fmt.Errorf("block not found")
	}

	if applyAll && sourceText != "" {
		for pi := range record.Pages {
			for bi := range record.Pages[pi].Blocks {
				b := &record.Pages[pi].Blocks[bi]
				if strings.TrimSpace(b.Text) == sourceText && b.ID != blockID {
					b.Translation = translation
					b.Edited = true
					b.EditedAt = &now
				}
			}
		}
	}

	return s.SaveRecord(ctx, record)
}

// BuildProgress assembles the combined parse/translate progress view from
// the record (possibly missing) and the document's jobs.
func (s *DocumentService) BuildProgress(documentID string, record *model.DocumentRecord, jobs []*model.Job) *model.DocumentProgress {
	var parseJob, translateJob *model.Job
	for _, job := range jobs {
		switch job.Type {
		case model.JobTypeParse:
			if parseJob == nil {
				parseJob = job
			}
		case model.JobTypeTranslate:
			if translateJob == nil {
				translateJob = job
			}
		}
	}

	progress := &model.DocumentProgress{
		DocumentID:   documentID,
		ParseJob:     parseJob,
		TranslateJob: translateJob,
	}

	if record == nil {
		progress.Status = "uploading"
		if parseJob != nil {
			progress.ParseProgress = parseJob.Progress * 100
			if progress.ParseProgress < 100 {
				progress.Status = "parsing"
			} else {
				progress.Status = "parsed"
			}
		}
		return progress
	}

	progress.NumPages = record.Document.NumPages

	parsed := false
	for _, p := range record.Pages {
		if len(p.Blocks) > 0 {
			parsed = true
			break
		}
	}

	switch {
	case parsed:
		progress.ParseProgress = 100
		progress.Status = "parsed"
	case parseJob != nil:
		progress.ParseProgress = parseJob.Progress * 100
		progress.Status = "parsing"
	default:
		progress.ParseProgress = 50
		progress.Status = "parsing"
	}

	if translateJob != nil {
		switch translateJob.Stage {
		case model.JobStageTranslating, model.JobStageComposing:
			progress.Status = "translating"
		case model.JobStageSuccess:
			progress.Status = "translated"
		}
	}

	return progress
}

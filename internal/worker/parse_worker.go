package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"

	"github.com/axiomflow/api/internal/model"
	"github.com/axiomflow/api/internal/service"
	"github.com/axiomflow/api/internal/websocket"
)

// ParseWorker extracts text blocks from an uploaded PDF
type ParseWorker struct {
	docs *service.DocumentService
	jobs *service.JobService
	hub  *websocket.Hub
}

// NewParseWorker creates a new parse worker
func NewParseWorker(docs *service.DocumentService, jobs *service.JobService, hub *websocket.Hub) *ParseWorker {
	return &ParseWorker{
		docs: docs,
		jobs: jobs,
		hub:  hub,
	}
}

// ProcessTask handles PDF parsing
func (w *ParseWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"job_id"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting parse job: %s", jobID)

	var payload model.ParseJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal parse payload: %w", err)
	}

	record, err := w.docs.GetRecord(ctx, payload.DocumentID)
	if err != nil {
		w.failJob(ctx, jobID, "Document not found")
		return fmt.Errorf("document %s not found: %w", payload.DocumentID, err)
	}

	f, reader, err := pdf.Open(payload.SourcePath)
	if err != nil {
		w.failJob(ctx, jobID, "Failed to open PDF")
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	start := time.Now()
	order := 0

	for pageNum := 1; pageNum <= total; pageNum++ {
		select {
		case <-ctx.Done():
			log.Printf("Parse job %s cancelled", jobID)
			return ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("Failed to extract text from page %d: %v", pageNum, err)
			text = ""
		}

		blocks := w.splitBlocks(text, pageNum, &order, record)

		pageIdx := pageNum - 1
		if pageIdx < len(record.Pages) {
			record.Pages[pageIdx].Blocks = blocks
		}

		done := pageNum
		progress := float64(done) / float64(total)
		eta := etaSeconds(start, done, total)
		w.reportProgress(ctx, jobID, model.JobStageParsing, progress, &done, &total, eta,
			fmt.Sprintf("Parsed page %d/%d", done, total))
	}

	record.Document.Status = model.DocumentStatusParsed
	if err := w.docs.SaveRecord(ctx, record); err != nil {
		w.failJob(ctx, jobID, "Failed to save parsed document")
		return fmt.Errorf("failed to save parsed document: %w", err)
	}

	if err := w.jobs.CompleteJob(ctx, jobID, "parsed"); err != nil {
		log.Printf("Failed to complete job %s: %v", jobID, err)
	}
	w.hub.BroadcastComplete(jobID, map[string]interface{}{
		"document_id": payload.DocumentID,
		"num_pages":   total,
	})

	log.Printf("Parse job %s completed (%d pages)", jobID, total)
	return nil
}

// splitBlocks cuts a page's plain text into paragraph blocks. Without layout
// analysis each block spans the full page; geometry is refined client-side.
func (w *ParseWorker) splitBlocks(text string, pageNum int, order *int, record *model.DocumentRecord) []model.Block {
	var width, height float64
	if pageNum-1 < len(record.Pages) {
		width = record.Pages[pageNum-1].Width
		height = record.Pages[pageNum-1].Height
	}

	var blocks []model.Block
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		blockType := model.BlockParagraph
		if looksLikeHeading(para) {
			blockType = model.BlockHeading
		}

		blocks = append(blocks, model.Block{
			ID:           uuid.New().String(),
			Type:         blockType,
			BBox:         model.BBox{Page: pageNum, X0: 0, Y0: 0, X1: width, Y1: height},
			ReadingOrder: *order,
			Text:         para,
		})
		*order++
	}
	return blocks
}

// looksLikeHeading flags short single-line text without terminal punctuation
func looksLikeHeading(text string) bool {
	if strings.Contains(text, "\n") {
		return false
	}
	if len(text) > 80 {
		return false
	}
	return !strings.ContainsAny(text[len(text)-1:], ".,;:")
}

func (w *ParseWorker) reportProgress(ctx context.Context, jobID string, stage model.JobStage, progress float64, done, total *int, etaS *float64, message string) {
	if err := w.jobs.UpdateProgress(ctx, jobID, stage, progress, done, total, etaS, message); err != nil {
		log.Printf("Failed to update job %s: %v", jobID, err)
		return
	}
	w.hub.BroadcastProgress(jobID, stage, progress, done, total, etaS, message)
}

func (w *ParseWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.jobs.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Failed to mark job %s failed: %v", jobID, err)
	}
	w.hub.BroadcastError(jobID, "PARSE_FAILED", errMsg)
}

// etaSeconds estimates remaining time from the average per-unit duration
func etaSeconds(start time.Time, done, total int) *float64 {
	if done == 0 || done >= total {
		return nil
	}
	perUnit := time.Since(start).Seconds() / float64(done)
	eta := perUnit * float64(total-done)
	return &eta
}

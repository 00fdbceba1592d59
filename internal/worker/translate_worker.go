package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/axiomflow/api/internal/client"
	"github.com/axiomflow/api/internal/model"
	"github.com/axiomflow/api/internal/service"
	"github.com/axiomflow/api/internal/websocket"
)

const (
	pausePollInterval = 500 * time.Millisecond
	recordSaveEvery   = 10
)

// TranslateWorker translates a parsed document block by block
type TranslateWorker struct {
	docs      *service.DocumentService
	jobs      *service.JobService
	providers *client.ProviderRegistry
	hub       *websocket.Hub
}

// NewTranslateWorker creates a new translate worker
func NewTranslateWorker(docs *service.DocumentService, jobs *service.JobService, providers *client.ProviderRegistry, hub *websocket.Hub) *TranslateWorker {
	return &TranslateWorker{
		docs:      docs,
		jobs:      jobs,
		providers: providers,
		hub:       hub,
	}
}

// ProcessTask handles document translation
func (w *TranslateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"job_id"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting translate job: %s", jobID)

	var payload model.TranslateJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal translate payload: %w", err)
	}

	translator, err := w.providers.Get(payload.Provider)
	if err != nil {
		w.failJob(ctx, jobID, err.Error())
		return err
	}

	record, err := w.docs.GetRecord(ctx, payload.DocumentID)
	if err != nil {
		w.failJob(ctx, jobID, "Document not found")
		return fmt.Errorf("document %s not found: %w", payload.DocumentID, err)
	}

	record.Document.Status = model.DocumentStatusTranslating
	if err := w.docs.SaveRecord(ctx, record); err != nil {
		log.Printf("Failed to update document status: %v", err)
	}

	targets := collectTargets(record)
	total := len(targets)
	if total == 0 {
		w.finish(ctx, jobID, record, payload.DocumentID, 0)
		return nil
	}

	meta := client.TranslateMeta{LangIn: payload.LangIn, LangOut: payload.LangOut}
	termConsistency := payload.UseTermConsistency == nil || *payload.UseTermConsistency
	memo := make(map[string]string)

	start := time.Now()
	done := 0
	sinceSave := 0

	for _, target := range targets {
		if err := w.waitWhilePaused(ctx, jobID); err != nil {
			if err == errJobCanceled {
				log.Printf("Translate job %s canceled", jobID)
				w.docs.SaveRecord(ctx, record)
				// A progress report may have raced the cancel; re-mark
				// the stage so the job ends terminal.
				if _, err := w.jobs.Cancel(ctx, jobID); err != nil {
					log.Printf("Failed to re-mark job %s canceled: %v", jobID, err)
				}
				return nil
			}
			return err
		}

		b := &record.Pages[target.pageIdx].Blocks[target.blockIdx]
		src := strings.TrimSpace(b.Text)

		if cached, ok := memo[src]; ok && termConsistency {
			b.Translation = cached
		} else {
			translated, err := translator.Translate(ctx, src, meta)
			if err != nil {
				w.docs.SaveRecord(ctx, record)
				w.failJob(ctx, jobID, fmt.Sprintf("Translation failed: %v", err))
				return fmt.Errorf("translation failed on block %s: %w", b.ID, err)
			}
			b.Translation = translated
			if termConsistency {
				memo[src] = translated
			}
		}

		done++
		sinceSave++
		if sinceSave >= recordSaveEvery {
			if err := w.docs.SaveRecord(ctx, record); err != nil {
				log.Printf("Failed to save partial translation: %v", err)
			}
			sinceSave = 0
		}

		progress := float64(done) / float64(total)
		doneCopy := done
		totalCopy := total
		eta := etaSeconds(start, done, total)
		w.reportProgress(ctx, jobID, model.JobStageTranslating, progress, &doneCopy, &totalCopy, eta,
			fmt.Sprintf("Translated %d/%d blocks", done, total))
	}

	w.reportProgress(ctx, jobID, model.JobStageComposing, 1.0, &total, &total, nil, "Composing document")
	w.finish(ctx, jobID, record, payload.DocumentID, total)
	return nil
}

func (w *TranslateWorker) finish(ctx context.Context, jobID string, record *model.DocumentRecord, documentID string, total int) {
	record.Document.Status = model.DocumentStatusTranslated
	if err := w.docs.SaveRecord(ctx, record); err != nil {
		w.failJob(ctx, jobID, "Failed to save translated document")
		return
	}

	if err := w.jobs.CompleteJob(ctx, jobID, "translated"); err != nil {
		log.Printf("Failed to complete job %s: %v", jobID, err)
	}
	w.hub.BroadcastComplete(jobID, map[string]interface{}{
		"document_id": documentID,
		"blocks":      total,
	})
	log.Printf("Translate job %s completed (%d blocks)", jobID, total)
}

var errJobCanceled = fmt.Errorf("job canceled")

// waitWhilePaused blocks while the job's control flag is paused. It returns
// errJobCanceled once the flag flips to canceled.
func (w *TranslateWorker) waitWhilePaused(ctx context.Context, jobID string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		control, err := w.jobs.Control(ctx, jobID)
		if err != nil {
			return err
		}

		switch control {
		case model.JobControlCanceled:
			return errJobCanceled
		case model.JobControlPaused:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pausePollInterval):
			}
		default:
			return nil
		}
	}
}

type blockRef struct {
	pageIdx  int
	blockIdx int
}

// collectTargets picks the blocks worth translating, in reading order.
// Figures, tables, formulas and manually edited blocks are left alone.
func collectTargets(record *model.DocumentRecord) []blockRef {
	var targets []blockRef
	for pi := range record.Pages {
		for bi := range record.Pages[pi].Blocks {
			b := &record.Pages[pi].Blocks[bi]
			if b.Edited || strings.TrimSpace(b.Text) == "" {
				continue
			}
			switch b.Type {
			case model.BlockParagraph, model.BlockHeading, model.BlockCaption:
				targets = append(targets, blockRef{pageIdx: pi, blockIdx: bi})
			}
		}
	}
	return targets
}

func (w *TranslateWorker) reportProgress(ctx context.Context, jobID string, stage model.JobStage, progress float64, done, total *int, etaS *float64, message string) {
	if err := w.jobs.UpdateProgress(ctx, jobID, stage, progress, done, total, etaS, message); err != nil {
		log.Printf("Failed to update job %s: %v", jobID, err)
		return
	}
	w.hub.BroadcastProgress(jobID, stage, progress, done, total, etaS, message)
}

func (w *TranslateWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.jobs.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Failed to mark job %s failed: %v", jobID, err)
	}
	w.hub.BroadcastError(jobID, "TRANSLATE_FAILED", errMsg)
}

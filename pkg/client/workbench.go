package client

import (
	"context"
	"fmt"

	"github.com/axiomflow/api/internal/model"
)

// ExportDualPDF fires the workbench's standard export: a bilingual dual-layout
// PDF with font subsetting on and no PDF/A conversion.
func (c *Client) ExportDualPDF(ctx context.Context, documentID string) (*model.ExportResponse, error) {
	subsetFonts := true
	return c.Export(ctx, &model.ExportRequest{
		DocumentID:    documentID,
		Format:        model.ExportPDFDual,
		Bilingual:     true,
		SubsetFonts:   &subsetFonts,
		ConvertToPDFA: false,
	})
}

// TranslateAndExport runs the whole workbench flow: submit a translate job,
// poll it to a terminal stage, then trigger the standard PDF export. The
// export fires only when the job ends in success; a failed or canceled job
// returns an error instead of exporting a half-translated document.
func (c *Client) TranslateAndExport(ctx context.Context, req *model.TranslateJobCreateRequest, opts *PollOptions) (*model.ExportResponse, error) {
	created, err := c.StartTranslation(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start translation: %w", err)
	}

	job, err := c.PollJob(ctx, created.JobID, opts)
	if err != nil {
		return nil, err
	}

	switch job.Stage {
	case model.JobStageSuccess:
		return c.ExportDualPDF(ctx, req.DocumentID)
	case model.JobStageCanceled:
		return nil, fmt.Errorf("translation canceled")
	default:
		if job.Message != "" {
			return nil, fmt.Errorf("translation failed: %s", job.Message)
		}
		return nil, fmt.Errorf("translation failed")
	}
}

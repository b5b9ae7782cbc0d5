package export

import (
	"context"
	"time"

	"github.com/joescharf/asana-dump/internal/models"
)

// Recorder persists export history. store.Store satisfies it.
type Recorder interface {
	CreateExportRun(ctx context.Context, run *models.ExportRun) error
	UpdateExportRun(ctx context.Context, run *models.ExportRun) error
}

// RunRecorded runs an export and records it through rec. History
// errors are logged and never change the export result. A nil rec
// behaves like Run and returns a run that was not persisted.
func (e *Exporter) RunRecorded(ctx context.Context, path string, rec Recorder) (*models.ExportRun, Result) {
	run := &models.ExportRun{
		OutputPath: path,
		Outcome:    models.RunOutcomeFailure,
		StartedAt:  time.Now().UTC(),
	}
	persisted := false
	if rec != nil {
		if err := rec.CreateExportRun(ctx, run); err != nil {
			e.logger.Warn("record export run", "error", err)
		} else {
			persisted = true
		}
	}

	res := e.Run(ctx, path)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Outcome = res.Outcome
	run.Rows = res.Rows
	if res.User != nil {
		run.UserName = res.User.Name
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}

	if persisted {
		// The export's own context may already be cancelled.
		if err := rec.UpdateExportRun(context.WithoutCancel(ctx), run); err != nil {
			e.logger.Warn("update export run", "id", run.ID, "error", err)
		}
	}
	return run, res
}

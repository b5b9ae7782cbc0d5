package store

import (
	"context"

	"github.com/joescharf/asana-dump/internal/models"
)

// Store defines the persistence interface for export history.
type Store interface {
	CreateExportRun(ctx context.Context, run *models.ExportRun) error
	UpdateExportRun(ctx context.Context, run *models.ExportRun) error
	GetExportRun(ctx context.Context, id string) (*models.ExportRun, error)
	ListExportRuns(ctx context.Context, limit int) ([]*models.ExportRun, error)
	// PruneExportRuns deletes all but the keep most recent runs.
	PruneExportRuns(ctx context.Context, keep int) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

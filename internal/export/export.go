// Package export walks the Asana workspace/team/project hierarchy and
// writes one CSV row per project.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joescharf/asana-dump/internal/models"
)

// API is the subset of the Asana client the exporter drives.
type API interface {
	Me(ctx context.Context) (*models.User, error)
	Workspaces(ctx context.Context) ([]models.Workspace, error)
	Teams(ctx context.Context, userGID, workspaceGID string) ([]models.Team, error)
	Projects(ctx context.Context, teamGID string) ([]models.Project, error)
	Project(ctx context.Context, gid string) (*models.Project, error)
}

// Config holds everything an Exporter needs. Logger may be nil.
type Config struct {
	API    API
	Logger *slog.Logger

	// Raw writes cells without quote escaping.
	Raw bool
	// Remarks appends an empty Remarks cell to every row.
	Remarks bool
}

// Result is the outcome of one export. Err is set for partial and
// failed runs; Rows counts the project rows written to the file.
type Result struct {
	Outcome models.RunOutcome
	User    *models.User
	Rows    int
	Err     error
}

// OK reports whether the export completed.
func (r Result) OK() bool {
	return r.Outcome == models.RunOutcomeSuccess
}

// Exporter runs the traversal. It holds no per-run state and may be
// reused.
type Exporter struct {
	api     API
	logger  *slog.Logger
	raw     bool
	remarks bool
}

// New creates an Exporter from cfg.
func New(cfg Config) *Exporter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{
		api:     cfg.API,
		logger:  logger,
		raw:     cfg.Raw,
		remarks: cfg.Remarks,
	}
}

// Run exports to the file at path. The identity lookup happens before
// the file is touched, so a bad token leaves any existing file intact.
// After that the file is truncated and rows are written as they are
// produced; a later failure leaves the rows written so far in place.
func (e *Exporter) Run(ctx context.Context, path string) Result {
	me, err := e.api.Me(ctx)
	if err != nil {
		e.logger.Error("identity lookup failed", "error", err)
		return Result{Outcome: models.RunOutcomeFailure, Err: fmt.Errorf("fetch current user: %w", err)}
	}
	e.logger.Info("Running as", "user", me.Name)

	f, err := os.Create(path)
	if err != nil {
		e.logger.Error("open output failed", "path", path, "error", err)
		return Result{Outcome: models.RunOutcomeFailure, User: me, Err: fmt.Errorf("create output file: %w", err)}
	}

	rows, err := e.write(ctx, f, me)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close output file: %w", cerr)
	}
	if err != nil {
		e.logger.Error("export aborted", "path", path, "rows", rows, "error", err)
		return Result{Outcome: models.RunOutcomePartial, User: me, Rows: rows, Err: err}
	}

	e.logger.Debug("export complete", "path", path, "rows", rows)
	return Result{Outcome: models.RunOutcomeSuccess, User: me, Rows: rows}
}

// write emits the header and then one row per project, in API order at
// every level. It returns the number of rows written before any error.
func (e *Exporter) write(ctx context.Context, w io.Writer, me *models.User) (int, error) {
	rw := NewRowWriter(w)
	rw.Raw = e.raw
	rw.Remarks = e.remarks

	if err := rw.WriteHeader(); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	workspaces, err := e.api.Workspaces(ctx)
	if err != nil {
		return 0, err
	}

	rows := 0
	for _, ws := range workspaces {
		e.logger.Info("Exploring workspace", "workspace", ws.Name)

		teams, err := e.api.Teams(ctx, me.GID, ws.GID)
		if err != nil {
			return rows, err
		}
		for _, team := range teams {
			e.logger.Info("Checking team", "team", team.Name)

			projects, err := e.api.Projects(ctx, team.GID)
			if err != nil {
				return rows, err
			}
			for _, summary := range projects {
				e.logger.Info("Project", "gid", summary.GID, "name", summary.Name)

				detail, err := e.api.Project(ctx, summary.GID)
				if err != nil {
					return rows, err
				}
				detail.GID = summary.GID
				detail.Name = summary.Name

				if err := rw.WriteRow(models.NewExportRow(ws, team, detail)); err != nil {
					return rows, fmt.Errorf("write row for project %s: %w", summary.GID, err)
				}
				rows++
			}
		}
	}
	return rows, nil
}

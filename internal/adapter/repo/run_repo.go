package repo

import (
	"context"
	"errors"
	"fmt"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
	"assetgen/internal/sqlinline"
)

// RunRepositoryPG implements domain.RunRepository on the batch ledger tables.
type RunRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewRunRepository creates a ledger repository backed by PostgreSQL.
func NewRunRepository(sql infra.SQLExecutor) *RunRepositoryPG {
	return &RunRepositoryPG{sql: sql}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (r *RunRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QCreateLedgerSchema); err != nil {
		return fmt.Errorf("repo: ensure schema: %w", err)
	}
	return nil
}

// SaveReport upserts the run row and one row per outcome. Saving the same run
// twice overwrites the earlier rows.
func (r *RunRepositoryPG) SaveReport(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return errors.New("repo: report is nil")
	}
	c := report.Counts
	_, err := r.sql.Exec(ctx, sqlinline.QInsertBatchRun,
		report.RunID,
		report.StartedAt,
		report.FinishedAt,
		report.OutputRoot,
		c.Total,
		c.Succeeded,
		c.Failed,
		c.TimedOut,
		c.Cancelled,
		c.SubmissionErrors,
		c.DownloadErrors,
	)
	if err != nil {
		return fmt.Errorf("repo: save run %s: %w", report.RunID, err)
	}
	for i, o := range report.Outcomes {
		_, err := r.sql.Exec(ctx, sqlinline.QInsertBatchOutcome,
			report.RunID,
			i,
			o.AssetID,
			string(o.State),
			o.RemoteJobID,
			o.ArtifactURL,
			o.Path,
			o.Attempts,
			o.Error,
		)
		if err != nil {
			return fmt.Errorf("repo: save outcome %s: %w", o.AssetID, err)
		}
	}
	return nil
}

var _ domain.RunRepository = (*RunRepositoryPG)(nil)

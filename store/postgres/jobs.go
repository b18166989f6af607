package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// JobRepository implements store.JobRepository for PostgreSQL.
type JobRepository struct {
	backend *Backend
}

var _ store.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) (store.JobRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &JobRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the pool.
func (r *JobRepository) Close() error {
	return nil
}

// PutJob records an outstanding job.
func (r *JobRepository) PutJob(ctx context.Context, job *core.Job) error {
	if err := core.ValidateJob(job); err != nil {
		return err
	}

	_, err := r.backend.pool.Exec(ctx, `
		INSERT INTO jobs (id, tenant_id, item_ids, fingerprint, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id    = EXCLUDED.tenant_id,
			item_ids     = EXCLUDED.item_ids,
			fingerprint  = EXCLUDED.fingerprint,
			submitted_at = EXCLUDED.submitted_at`,
		string(job.Id), string(job.TenantId), idsParam(job.ItemIds), job.Fingerprint, job.SubmittedAt)
	return err
}

// GetJob retrieves a job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id core.JobID) (*core.Job, error) {
	row := r.backend.pool.QueryRow(ctx,
		"SELECT id, tenant_id, item_ids, fingerprint, submitted_at FROM jobs WHERE id = $1",
		string(id))
	return scanJob(row)
}

// DeleteJob removes a resolved job; deleting an absent job is not an error.
func (r *JobRepository) DeleteJob(ctx context.Context, id core.JobID) error {
	_, err := r.backend.pool.Exec(ctx, "DELETE FROM jobs WHERE id = $1", string(id))
	return err
}

// ListOutstandingJobs retrieves up to limit outstanding jobs, oldest first.
func (r *JobRepository) ListOutstandingJobs(ctx context.Context, limit int) ([]*core.Job, error) {
	query := "SELECT id, tenant_id, item_ids, fingerprint, submitted_at FROM jobs ORDER BY submitted_at"
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.backend.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, job)
	}
	return results, rows.Err()
}

func scanJob(row pgx.Row) (*core.Job, error) {
	var job core.Job
	var itemIDs []string
	err := row.Scan(&job.Id, &job.TenantId, &itemIDs, &job.Fingerprint, &job.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	job.ItemIds = make([]core.ItemID, len(itemIDs))
	for i, id := range itemIDs {
		job.ItemIds[i] = core.ItemID(id)
	}
	return &job, nil
}

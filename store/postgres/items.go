package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// ItemRepository implements store.ItemRepository for PostgreSQL.
type ItemRepository struct {
	backend *Backend
}

var _ store.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) (store.ItemRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &ItemRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the pool.
func (r *ItemRepository) Close() error {
	return nil
}

const itemColumns = "id, tenant_id, image_ref, tags, status, job_ref, inserted_at, updated_at"

func scanItem(row pgx.Row) (*core.Item, error) {
	var item core.Item
	var status int16
	err := row.Scan(&item.Id, &item.TenantId, &item.ImageRef, &item.Tags,
		&status, &item.JobRef, &item.InsertedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.Status = core.TagStatus(status)
	return &item, nil
}

// GetItem retrieves a single item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ItemID) (*core.Item, error) {
	row := r.backend.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = $1", string(id))
	return scanItem(row)
}

// PutItem inserts or replaces an item record.
func (r *ItemRepository) PutItem(ctx context.Context, item *core.Item) error {
	if err := core.ValidateItem(item); err != nil {
		return err
	}

	now := time.Now().UTC()
	insertedAt := item.InsertedAt
	if insertedAt.IsZero() {
		insertedAt = now
	}
	_, err := r.backend.pool.Exec(ctx, `
		INSERT INTO items (id, tenant_id, image_ref, tags, status, job_ref, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			image_ref = EXCLUDED.image_ref,
			tags      = EXCLUDED.tags,
			status    = EXCLUDED.status,
			job_ref   = EXCLUDED.job_ref,
			updated_at = EXCLUDED.updated_at`,
		string(item.Id), string(item.TenantId), item.ImageRef, tagsParam(item.Tags),
		int16(item.Status), string(item.JobRef), insertedAt, now)
	return err
}

// WriteTagResult records the outcome of tagging a single item. The current
// status is read under a row lock so the transition check and the write are
// atomic against concurrent resolvers.
func (r *ItemRepository) WriteTagResult(ctx context.Context, id core.ItemID, tags []string, status core.TagStatus) error {
	if err := core.ValidateTagStatus(status); err != nil {
		return err
	}

	tx, err := r.backend.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current int16
	err = tx.QueryRow(ctx, "SELECT status FROM items WHERE id = $1 FOR UPDATE", string(id)).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	if !core.TagStatus(current).CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s for item %s",
			core.ErrIllegalTransition, core.TagStatus(current), status, id)
	}

	jobRefClause := ""
	if status.Terminal() {
		jobRefClause = ", job_ref = ''"
	}
	_, err = tx.Exec(ctx,
		"UPDATE items SET tags = $1, status = $2, updated_at = $3"+jobRefClause+" WHERE id = $4",
		tagsParam(tags), int16(status), time.Now().UTC(), string(id))
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AssignJob stamps a job reference and pending status onto the listed items.
// The WHERE clause enforces the skip rules: items already on a job keep it,
// items already pending stay untouched, missing items are simply not matched.
func (r *ItemRepository) AssignJob(ctx context.Context, jobID core.JobID, ids []core.ItemID) ([]core.ItemID, error) {
	rows, err := r.backend.pool.Query(ctx, `
		UPDATE items SET job_ref = $1, status = $2, updated_at = $3
		WHERE id = ANY($4) AND job_ref = '' AND status <> $2
		RETURNING id`,
		string(jobID), int16(core.TagStatusPending), time.Now().UTC(), idsParam(ids))
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// ListItemsByStatus retrieves up to limit items with the given status for a
// tenant, in insertion order.
func (r *ItemRepository) ListItemsByStatus(ctx context.Context, tenant core.TenantID, status core.TagStatus, limit int) ([]*core.Item, error) {
	query := "SELECT " + itemColumns + ` FROM items
		WHERE tenant_id = $1 AND status = $2 ORDER BY inserted_at`
	args := []any{string(tenant), int16(status)}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.backend.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// ListPendingWithJob retrieves the IDs of still-pending items in a job.
func (r *ItemRepository) ListPendingWithJob(ctx context.Context, jobID core.JobID) ([]core.ItemID, error) {
	rows, err := r.backend.pool.Query(ctx,
		"SELECT id FROM items WHERE job_ref = $1 AND status = $2",
		string(jobID), int16(core.TagStatusPending))
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// ResetForRetag forces the listed items back to untagged with no job
// reference.
func (r *ItemRepository) ResetForRetag(ctx context.Context, ids []core.ItemID) ([]core.ItemID, error) {
	rows, err := r.backend.pool.Query(ctx, `
		UPDATE items SET status = $1, job_ref = '', updated_at = $2
		WHERE id = ANY($3)
		RETURNING id`,
		int16(core.TagStatusUntagged), time.Now().UTC(), idsParam(ids))
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// ListTenants retrieves the distinct tenants that have item records.
func (r *ItemRepository) ListTenants(ctx context.Context) ([]core.TenantID, error) {
	rows, err := r.backend.pool.Query(ctx, "SELECT DISTINCT tenant_id FROM items")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []core.TenantID
	for rows.Next() {
		var tenant string
		if err := rows.Scan(&tenant); err != nil {
			return nil, err
		}
		tenants = append(tenants, core.TenantID(tenant))
	}
	return tenants, rows.Err()
}

func collectIDs(rows pgx.Rows) ([]core.ItemID, error) {
	defer rows.Close()
	var ids []core.ItemID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, core.ItemID(id))
	}
	return ids, rows.Err()
}

// tagsParam normalizes a nil tag set to an empty array for the NOT NULL
// column.
func tagsParam(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func idsParam(ids []core.ItemID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

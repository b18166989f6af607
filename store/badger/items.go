package badger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// ItemRepository implements store.ItemRepository for BadgerDB.
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

// Close is a no-op; the backend owns the database handle.
func (r *ItemRepository) Close() error {
	return nil
}

// GetItem retrieves a single item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ItemID) (*core.Item, error) {
	var result *core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readItem(tx, makeItemKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return store.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// PutItem inserts or replaces an item record.
func (r *ItemRepository) PutItem(ctx context.Context, item *core.Item) error {
	if err := core.ValidateItem(item); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemKey(item.Id)
		old, err := r.readItem(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old != nil {
			item.InsertedAt = old.InsertedAt
		} else if item.InsertedAt.IsZero() {
			item.InsertedAt = now
		}
		item.UpdatedAt = now

		if err := tx.Set(key, store.MarshalItem(item)); err != nil {
			return err
		}
		if err := r.updateIndexes(tx, old, item); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// WriteTagResult records the outcome of tagging a single item.
// Terminal statuses clear the job reference; illegal transitions are
// rejected so a late or duplicate write cannot move an item backwards.
func (r *ItemRepository) WriteTagResult(ctx context.Context, id core.ItemID, tags []string, status core.TagStatus) error {
	if err := core.ValidateTagStatus(status); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemKey(id)
		old, err := r.readItem(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return store.ErrNotFound
		}

		if !old.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s for item %s",
				core.ErrIllegalTransition, old.Status, status, id)
		}

		updated := *old
		updated.Tags = tags
		updated.Status = status
		if status.Terminal() {
			updated.JobRef = ""
		}
		updated.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, store.MarshalItem(&updated)); err != nil {
			return err
		}
		if err := r.updateIndexes(tx, old, &updated); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AssignJob stamps a job reference and pending status onto the listed items.
// Items already carrying a job reference keep it; missing items are skipped.
func (r *ItemRepository) AssignJob(ctx context.Context, jobID core.JobID, ids []core.ItemID) ([]core.ItemID, error) {
	var assigned []core.ItemID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeItemKey(id)
			old, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				continue
			}
			if old.JobRef != "" || !old.Status.CanTransitionTo(core.TagStatusPending) {
				continue
			}

			updated := *old
			updated.JobRef = jobID
			updated.Status = core.TagStatusPending
			updated.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, store.MarshalItem(&updated)); err != nil {
				return err
			}
			if err := r.updateIndexes(tx, old, &updated); err != nil {
				return err
			}
			assigned = append(assigned, id)
		}
		return tx.Commit()
	}, true)
	return assigned, err
}

// ListItemsByStatus retrieves up to limit items with the given status for a
// tenant, in insertion order.
func (r *ItemRepository) ListItemsByStatus(ctx context.Context, tenant core.TenantID, status core.TagStatus, limit int) ([]*core.Item, error) {
	var results []*core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialItemStatusKey(tenant, status)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			var id core.ItemID
			if err := iter.Item().Value(func(val []byte) error {
				id = core.ItemID(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := r.readItem(tx, makeItemKey(id))
			if err != nil {
				return err
			}
			// Index entries can lag record rewrites within concurrent
			// transactions; trust the record.
			if item != nil && item.Status == status {
				results = append(results, item)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListPendingWithJob retrieves the IDs of still-pending items in a job.
func (r *ItemRepository) ListPendingWithJob(ctx context.Context, jobID core.JobID) ([]core.ItemID, error) {
	var results []core.ItemID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialItemJobKey(jobID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			id := core.ItemID(bytes.TrimPrefix(key, prefix))

			item, err := r.readItem(tx, makeItemKey(id))
			if err != nil {
				return err
			}
			if item != nil && item.Status == core.TagStatusPending && item.JobRef == jobID {
				results = append(results, id)
			}
		}
		return nil
	}, false)
	return results, err
}

// ResetForRetag forces the listed items back to untagged with no job
// reference. Missing items are skipped.
func (r *ItemRepository) ResetForRetag(ctx context.Context, ids []core.ItemID) ([]core.ItemID, error) {
	var reset []core.ItemID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeItemKey(id)
			old, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				continue
			}
			if old.Status == core.TagStatusUntagged {
				reset = append(reset, id)
				continue
			}

			updated := *old
			updated.Status = core.TagStatusUntagged
			updated.JobRef = ""
			updated.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, store.MarshalItem(&updated)); err != nil {
				return err
			}
			if err := r.updateIndexes(tx, old, &updated); err != nil {
				return err
			}
			reset = append(reset, id)
		}
		return tx.Commit()
	}, true)
	return reset, err
}

// ListTenants retrieves the distinct tenants that have item records, by
// walking the status index and seeking past each tenant's bucket once it has
// been seen.
func (r *ItemRepository) ListTenants(ctx context.Context) ([]core.TenantID, error) {
	var tenants []core.TenantID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(itemStatusPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); {
			rest := iter.Item().Key()[len(prefix):]
			sep := bytes.IndexByte(rest, ':')
			if sep < 0 {
				iter.Next()
				continue
			}
			tenant := core.TenantID(rest[:sep])
			tenants = append(tenants, tenant)

			next := append(append([]byte{}, prefix...), rest[:sep]...)
			next = append(next, ':'+1)
			iter.Seek(next)
		}
		return nil
	}, false)
	return tenants, err
}

// readItem reads and unmarshals an item, returning nil when the key is absent.
func (r *ItemRepository) readItem(tx *badger.Txn, key []byte) (*core.Item, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Item
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = store.UnmarshalItem(val)
		return unmarshalErr
	})
	return record, err
}

// updateIndexes maintains the status and job membership indexes across a
// record transition. old may be nil for fresh inserts.
func (r *ItemRepository) updateIndexes(tx *badger.Txn, old, updated *core.Item) error {
	if old != nil {
		if old.Status != updated.Status || !old.InsertedAt.Equal(updated.InsertedAt) {
			oldKey := makeItemStatusKey(old.TenantId, old.Status, old.InsertedAt, old.Id)
			if err := tx.Delete(oldKey); err != nil {
				return err
			}
		}
		if old.JobRef != "" && old.JobRef != updated.JobRef {
			if err := tx.Delete(makeItemJobKey(old.JobRef, old.Id)); err != nil {
				return err
			}
		}
	}

	statusKey := makeItemStatusKey(updated.TenantId, updated.Status, updated.InsertedAt, updated.Id)
	if err := tx.Set(statusKey, []byte(updated.Id)); err != nil {
		return err
	}

	if updated.JobRef != "" && (old == nil || old.JobRef != updated.JobRef) {
		if err := tx.Set(makeItemJobKey(updated.JobRef, updated.Id), []byte(updated.Id)); err != nil {
			return err
		}
	}
	return nil
}

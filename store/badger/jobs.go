package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// JobRepository implements store.JobRepository for BadgerDB.
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

// Close is a no-op; the backend owns the database handle.
func (r *JobRepository) Close() error {
	return nil
}

// PutJob records an outstanding job.
func (r *JobRepository) PutJob(ctx context.Context, job *core.Job) error {
	if err := core.ValidateJob(job); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(job.Id), store.MarshalJob(job)); err != nil {
			return err
		}
		timeKey := makeJobTimeKey(job.SubmittedAt, job.Id)
		if err := tx.Set(timeKey, []byte(job.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves a job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id core.JobID) (*core.Job, error) {
	var result *core.Job
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readJob(tx, makeJobKey(id))
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

// DeleteJob removes a resolved job from the ledger.
func (r *JobRepository) DeleteJob(ctx context.Context, id core.JobID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(id)
		job, err := r.readJob(tx, key)
		if err != nil {
			return err
		}
		if job == nil {
			return nil
		}

		if err := tx.Delete(makeJobTimeKey(job.SubmittedAt, job.Id)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListOutstandingJobs retrieves up to limit outstanding jobs, oldest first.
func (r *JobRepository) ListOutstandingJobs(ctx context.Context, limit int) ([]*core.Job, error) {
	var results []*core.Job
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(jobTimePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			var id core.JobID
			if err := iter.Item().Value(func(val []byte) error {
				id = core.JobID(val)
				return nil
			}); err != nil {
				return err
			}

			job, err := r.readJob(tx, makeJobKey(id))
			if err != nil {
				return err
			}
			if job != nil {
				results = append(results, job)
			}
		}
		return nil
	}, false)
	return results, err
}

// readJob reads and unmarshals a job, returning nil when the key is absent.
func (r *JobRepository) readJob(tx *badger.Txn, key []byte) (*core.Job, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *core.Job
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = store.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}

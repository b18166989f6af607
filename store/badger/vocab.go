package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// VocabularyRepository implements store.VocabularyRepository for BadgerDB.
type VocabularyRepository struct {
	backend *Backend
}

var _ store.VocabularyRepository = (*VocabularyRepository)(nil)

// NewVocabularyRepository creates a new VocabularyRepository.
func NewVocabularyRepository(backend *Backend) (store.VocabularyRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &VocabularyRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *VocabularyRepository) Close() error {
	return nil
}

// GetVocabulary retrieves the enabled tag set for a tenant.
// An existing record with zero labels is returned as-is; only a missing
// record yields ErrNotFound.
func (r *VocabularyRepository) GetVocabulary(ctx context.Context, tenant core.TenantID) (*core.Vocabulary, error) {
	var result *core.Vocabulary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVocabKey(tenant))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return store.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = store.UnmarshalVocabulary(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// PutVocabulary inserts or replaces a tenant's vocabulary.
func (r *VocabularyRepository) PutVocabulary(ctx context.Context, vocab *core.Vocabulary) error {
	if vocab == nil || vocab.TenantId == "" {
		return fmt.Errorf("%w: vocabulary tenant required", core.ErrEmptyTenantID)
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		vocab.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeVocabKey(vocab.TenantId), store.MarshalVocabulary(vocab)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

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

// VocabularyRepository implements store.VocabularyRepository for PostgreSQL.
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

// Close is a no-op; the backend owns the pool.
func (r *VocabularyRepository) Close() error {
	return nil
}

// GetVocabulary retrieves the enabled tag set for a tenant. A row with an
// empty labels array is a valid result; only a missing row is ErrNotFound.
func (r *VocabularyRepository) GetVocabulary(ctx context.Context, tenant core.TenantID) (*core.Vocabulary, error) {
	vocab := &core.Vocabulary{TenantId: tenant}
	err := r.backend.pool.QueryRow(ctx,
		"SELECT labels, updated_at FROM vocabularies WHERE tenant_id = $1",
		string(tenant)).Scan(&vocab.Labels, &vocab.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return vocab, nil
}

// PutVocabulary inserts or replaces a tenant's vocabulary.
func (r *VocabularyRepository) PutVocabulary(ctx context.Context, vocab *core.Vocabulary) error {
	if vocab == nil || vocab.TenantId == "" {
		return core.ErrEmptyTenantID
	}

	_, err := r.backend.pool.Exec(ctx, `
		INSERT INTO vocabularies (tenant_id, labels, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO UPDATE SET
			labels     = EXCLUDED.labels,
			updated_at = EXCLUDED.updated_at`,
		string(vocab.TenantId), tagsParam(vocab.Labels), time.Now().UTC())
	return err
}

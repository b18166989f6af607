// Copyright 2026 StoryStack
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the connection pool.
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// Backend wraps a pgx connection pool shared by the repositories.
type Backend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenBackend connects to PostgreSQL and ensures the schema exists.
func OpenBackend(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "postgres")

	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "storystack-autotagger"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	b := &Backend{pool: pool, logger: logger}
	if err := b.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to database")
	return b, nil
}

// Ping verifies the connection is alive.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	image_ref   TEXT NOT NULL,
	tags        TEXT[] NOT NULL DEFAULT '{}',
	status      SMALLINT NOT NULL,
	job_ref     TEXT NOT NULL DEFAULT '',
	inserted_at TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS items_tenant_status_idx ON items (tenant_id, status, inserted_at);
CREATE INDEX IF NOT EXISTS items_job_idx ON items (job_ref) WHERE job_ref <> '';

CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	item_ids     TEXT[] NOT NULL,
	fingerprint  TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_submitted_idx ON jobs (submitted_at);

CREATE TABLE IF NOT EXISTS vocabularies (
	tenant_id  TEXT PRIMARY KEY,
	labels     TEXT[] NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL
);
`

func (b *Backend) migrate(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, schema)
	return err
}

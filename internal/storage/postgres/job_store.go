// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// JobStoreConfig controls the Postgres connection pool used for job rows.
type JobStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// JobStore persists job postings in Postgres.
type JobStore struct {
	pool  queryPool
	table string
}

// NewJobStore creates a Postgres-backed JobStore using the provided config.
func NewJobStore(ctx context.Context, cfg JobStoreConfig) (*JobStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "jobs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &JobStore{pool: pool, table: table}, nil
}

// NewJobStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewJobStoreWithPool(pool queryPool, table string) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "jobs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &JobStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateJob inserts a posting row and returns it with the
// database-assigned timestamps.
func (s *JobStore) CreateJob(ctx context.Context, job jobs.JobPosting) (jobs.JobPosting, error) {
	if job.ID == "" {
		return jobs.JobPosting{}, fmt.Errorf("job id is required")
	}
	if job.Status == "" {
		job.Status = jobs.StatusPending
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	owner_id,
	organization,
	position,
	source_url,
	deadline_text,
	advertisement_link,
	archived_artifact_url,
	status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at`, s.table)

	err := s.pool.QueryRow(ctx, query,
		job.ID,
		job.OwnerID,
		job.Organization,
		job.Position,
		job.SourceURL,
		job.DeadlineText,
		job.AdvertisementLink,
		job.ArchivedArtifactURL,
		string(job.Status),
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return jobs.JobPosting{}, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// GetJob fetches a posting row by id.
func (s *JobStore) GetJob(ctx context.Context, id string) (jobs.JobPosting, error) {
	query := fmt.Sprintf(`
SELECT
	id,
	owner_id,
	organization,
	position,
	source_url,
	deadline_text,
	advertisement_link,
	archived_artifact_url,
	enrichment,
	status,
	created_at,
	updated_at
FROM %s
WHERE id = $1`, s.table)

	return s.scanJob(s.pool.QueryRow(ctx, query, id))
}

// UpdateEnrichment replaces the enrichment column wholesale and
// refreshes updated_at, returning the updated row.
func (s *JobStore) UpdateEnrichment(ctx context.Context, id string, enr jobs.Enrichment) (jobs.JobPosting, error) {
	payload, err := json.Marshal(enr)
	if err != nil {
		return jobs.JobPosting{}, fmt.Errorf("marshal enrichment: %w", err)
	}
	query := fmt.Sprintf(`
UPDATE %s
SET enrichment = $2, updated_at = NOW()
WHERE id = $1
RETURNING
	id,
	owner_id,
	organization,
	position,
	source_url,
	deadline_text,
	advertisement_link,
	archived_artifact_url,
	enrichment,
	status,
	created_at,
	updated_at`, s.table)

	return s.scanJob(s.pool.QueryRow(ctx, query, id, payload))
}

func (s *JobStore) scanJob(row pgx.Row) (jobs.JobPosting, error) {
	var (
		job     jobs.JobPosting
		status  string
		enrJSON []byte
	)
	err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Organization,
		&job.Position,
		&job.SourceURL,
		&job.DeadlineText,
		&job.AdvertisementLink,
		&job.ArchivedArtifactURL,
		&enrJSON,
		&status,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return jobs.JobPosting{}, jobs.ErrJobNotFound
	}
	if err != nil {
		return jobs.JobPosting{}, fmt.Errorf("scan job row: %w", err)
	}
	job.Status = jobs.Status(status)
	if len(enrJSON) > 0 {
		var enr jobs.Enrichment
		if err := json.Unmarshal(enrJSON, &enr); err != nil {
			return jobs.JobPosting{}, fmt.Errorf("unmarshal enrichment column: %w", err)
		}
		job.Enrichment = &enr
	}
	return job, nil
}

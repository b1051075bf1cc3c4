package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
)

// JobStore provides an in-memory implementation for development/testing.
type JobStore struct {
	mu   sync.RWMutex
	data map[string]jobs.JobPosting
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{data: make(map[string]jobs.JobPosting)}
}

// CreateJob stores a new posting, assigning timestamps and the default
// Pending status.
func (s *JobStore) CreateJob(_ context.Context, job jobs.JobPosting) (jobs.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[job.ID]; exists {
		return jobs.JobPosting{}, errors.New("job already exists")
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = jobs.StatusPending
	}
	s.data[job.ID] = job
	return copyJob(job), nil
}

// GetJob fetches a posting by ID.
func (s *JobStore) GetJob(_ context.Context, id string) (jobs.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.data[id]
	if !ok {
		return jobs.JobPosting{}, jobs.ErrJobNotFound
	}
	return copyJob(job), nil
}

// UpdateEnrichment replaces the posting's enrichment wholesale.
func (s *JobStore) UpdateEnrichment(_ context.Context, id string, enr jobs.Enrichment) (jobs.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.data[id]
	if !ok {
		return jobs.JobPosting{}, jobs.ErrJobNotFound
	}
	job.Enrichment = &enr
	job.UpdatedAt = time.Now().UTC()
	s.data[id] = job
	return copyJob(job), nil
}

func copyJob(job jobs.JobPosting) jobs.JobPosting {
	out := job
	if job.Enrichment != nil {
		enr := *job.Enrichment
		out.Enrichment = &enr
	}
	return out
}

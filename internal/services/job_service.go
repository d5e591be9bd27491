package services

import (
	"context"
	"log"
	"sync"

	"alfredoptarigan/careerforge/internal/models"
)

const (
	DefaultJobListLimit = 20
	MaxJobListLimit     = 50

	maxCachedPostings = 500
)

type JobService interface {
	// Resolve always returns a posting, falling back to a random catalog entry.
	Resolve(ctx context.Context, jobID, profile string) models.JobPosting
	List(ctx context.Context, params JobSearchParams) ([]models.JobPosting, error)
}

type jobService struct {
	catalog       *JobCatalog
	adzuna        AdzunaClient
	index         JobIndex
	geminiService GeminiService

	mu    sync.RWMutex
	cache map[string]models.JobPosting
}

// NewJobService wires the catalog with the optional Adzuna client and job index; nil disables either.
func NewJobService(catalog *JobCatalog, adzuna AdzunaClient, index JobIndex, geminiService GeminiService) JobService {
	if catalog == nil {
		catalog = NewJobCatalog(nil, nil)
	}
	return &jobService{
		catalog:       catalog,
		adzuna:        adzuna,
		index:         index,
		geminiService: geminiService,
		cache:         make(map[string]models.JobPosting),
	}
}

func (s *jobService) Resolve(ctx context.Context, jobID, profile string) models.JobPosting {
	if jobID != "" {
		if job, ok := s.lookup(jobID); ok {
			return job
		}
		log.Printf("⚠️  Unknown job id %q, using a random posting\n", jobID)
		return s.catalog.Random()
	}

	if job, ok := s.nearest(ctx, profile); ok {
		return job
	}
	return s.catalog.Random()
}

func (s *jobService) List(ctx context.Context, params JobSearchParams) ([]models.JobPosting, error) {
	params.Limit = ClampJobLimit(params.Limit)

	if s.adzuna != nil {
		jobs, err := s.adzuna.Search(ctx, params)
		switch {
		case err == nil && len(jobs) > 0:
			s.remember(jobs)
			return jobs, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			log.Printf("⚠️  Adzuna search failed, using mock postings: %v\n", err)
		}
	}

	jobs := s.catalog.List()
	if len(jobs) > params.Limit {
		jobs = jobs[:params.Limit]
	}
	return jobs, nil
}

// ClampJobLimit applies the default and upper bound of a listing request.
func ClampJobLimit(limit int) int {
	if limit <= 0 {
		return DefaultJobListLimit
	}
	if limit > MaxJobListLimit {
		return MaxJobListLimit
	}
	return limit
}

func (s *jobService) lookup(jobID string) (models.JobPosting, bool) {
	if job, ok := s.catalog.FindByID(jobID); ok {
		return job, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.cache[jobID]
	return job, ok
}

func (s *jobService) remember(jobs []models.JobPosting) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cache)+len(jobs) > maxCachedPostings {
		s.cache = make(map[string]models.JobPosting)
	}
	for _, job := range jobs {
		s.cache[job.ID] = job
	}
}

func (s *jobService) nearest(ctx context.Context, profile string) (models.JobPosting, bool) {
	if s.index == nil || s.geminiService == nil || profile == "" {
		return models.JobPosting{}, false
	}

	embedding, err := s.geminiService.GenerateEmbedding(ctx, profile)
	if err != nil {
		log.Printf("⚠️  Failed to embed profile for job matching: %v\n", err)
		return models.JobPosting{}, false
	}

	matches, err := s.index.Nearest(ctx, embedding, 3)
	if err != nil {
		log.Printf("⚠️  Job index search failed: %v\n", err)
		return models.JobPosting{}, false
	}

	for _, match := range matches {
		if job, ok := s.lookup(match.JobID); ok {
			log.Printf("🎯 Matched profile to job %s (score %.3f)\n", job.ID, match.Score)
			return job, true
		}
	}
	return models.JobPosting{}, false
}

package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/civicgraph/model"
)

var ErrJobNotFound = errors.New("job not found")

// JobStore keeps background jobs readable while they run.
// Implementations synchronize internally.
type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	// Update applies fn to the stored job and returns the updated copy.
	Update(ctx context.Context, id uuid.UUID, fn func(job *model.Job)) (*model.Job, error)
	CountActive(ctx context.Context) (int, error)
	// LatestCreatedAt returns the creation time of the newest job, ok is false without jobs.
	LatestCreatedAt(ctx context.Context) (time.Time, bool, error)
}

// MemoryJobStore is a JobStore backed by a map.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*model.Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: map[uuid.UUID]*model.Job{}}
}

func (s *MemoryJobStore) Create(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = copyJob(job)
	return nil
}

func (s *MemoryJobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return copyJob(job), nil
}

func (s *MemoryJobStore) Update(ctx context.Context, id uuid.UUID, fn func(job *model.Job)) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	fn(job)
	return copyJob(job), nil
}

func (s *MemoryJobStore) CountActive(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, job := range s.jobs {
		if job.Status.Active() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryJobStore) LatestCreatedAt(ctx context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for _, job := range s.jobs {
		if job.CreatedAt.After(latest) {
			latest = job.CreatedAt
		}
	}
	return latest, len(s.jobs) > 0, nil
}

// copyJob returns a copy that shares no mutable state with job.
func copyJob(job *model.Job) *model.Job {
	c := *job
	if job.Progress.CurrentMeetingID != nil {
		id := *job.Progress.CurrentMeetingID
		c.Progress.CurrentMeetingID = &id
	}
	if job.Result != nil {
		result := *job.Result
		result.MeetingIDs = append([]int64(nil), job.Result.MeetingIDs...)
		if job.Result.Errors != nil {
			result.Errors = make(map[int64]string, len(job.Result.Errors))
			for k, v := range job.Result.Errors {
				result.Errors[k] = v
			}
		}
		c.Result = &result
	}
	return &c
}

package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/siherrmann/civicgraph/model"
)

// fakeSource serves meeting ids per window and payloads per meeting id.
type fakeSource struct {
	mu       sync.Mutex
	windows  map[[2]string][]int64
	failing  map[int64]bool
	listed   [][2]string
	fetched  []int64
	listErr  error
	fallback []int64
}

func newFakeSource() *fakeSource {
	return &fakeSource{windows: map[[2]string][]int64{}, failing: map[int64]bool{}}
}

func (s *fakeSource) ListMeetingIDs(ctx context.Context, fromDate string, toDate string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listed = append(s.listed, [2]string{fromDate, toDate})
	if s.listErr != nil {
		return nil, s.listErr
	}
	if ids, ok := s.windows[[2]string{fromDate, toDate}]; ok {
		return ids, nil
	}
	return s.fallback, nil
}

func (s *fakeSource) FetchMeeting(ctx context.Context, meetingID int64) (*model.MeetingPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetched = append(s.fetched, meetingID)
	if s.failing[meetingID] {
		return nil, fmt.Errorf("portal unavailable for meeting %d", meetingID)
	}
	return &model.MeetingPayload{Meeting: model.Meeting{MeetingID: meetingID, Name: "City Council"}}, nil
}

// fakeCache is an in-memory discovery cache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[model.DiscoveryKey][]int64
	fetched map[model.DiscoveryKey]time.Time
	now     func() time.Time
}

func newFakeCache(now func() time.Time) *fakeCache {
	return &fakeCache{entries: map[model.DiscoveryKey][]int64{}, fetched: map[model.DiscoveryKey]time.Time{}, now: now}
}

func (c *fakeCache) SelectDiscovery(ctx context.Context, key model.DiscoveryKey) ([]int64, time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, ok := c.entries[key]
	return ids, c.fetched[key], ok, nil
}

func (c *fakeCache) UpsertDiscovery(ctx context.Context, key model.DiscoveryKey, meetingIDs []int64) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = meetingIDs
	c.fetched[key] = c.now()
	return c.fetched[key], nil
}

// fakeIngester records ingested meeting ids.
type fakeIngester struct {
	mu       sync.Mutex
	ingested []int64
}

func (i *fakeIngester) IngestMeeting(ctx context.Context, payload *model.MeetingPayload) (*model.IngestResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.ingested = append(i.ingested, payload.Meeting.MeetingID)
	return &model.IngestResult{MeetingID: payload.Meeting.MeetingID}, nil
}

// fakeRanges is a RangeRunner that optionally blocks until released.
type fakeRanges struct {
	release chan struct{}
	result  *model.RangeResult
	err     error
}

func (f *fakeRanges) Prepare(request model.RangeRequest) (model.RangeRequest, error) {
	_, _, err := ValidateRange(request.FromDate, request.ToDate, 180)
	return request, err
}

func (f *fakeRanges) IngestRange(ctx context.Context, request model.RangeRequest, progress ProgressFunc) (*model.RangeResult, error) {
	progress(model.JobProgress{Stage: model.StageIngesting, Discovered: 2})
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	progress(model.JobProgress{Stage: model.StageDone, Discovered: 2, Processed: 2, Succeeded: 2})
	return f.result, f.err
}

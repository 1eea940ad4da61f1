package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/siherrmann/civicgraph/database"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidRange  = errors.New("invalid date range")
	ErrRangeTooLarge = errors.New("date range too large")
)

// Source supplies meeting ids and meeting payloads. portal.Client implements it.
type Source interface {
	ListMeetingIDs(ctx context.Context, fromDate string, toDate string) ([]int64, error)
	FetchMeeting(ctx context.Context, meetingID int64) (*model.MeetingPayload, error)
}

// MeetingIngester stores one meeting payload. *Ingester implements it.
type MeetingIngester interface {
	IngestMeeting(ctx context.Context, payload *model.MeetingPayload) (*model.IngestResult, error)
}

// ProgressFunc receives a progress snapshot after every change.
type ProgressFunc func(progress model.JobProgress)

// RangeIngester discovers the meetings of a date range and ingests them.
type RangeIngester struct {
	source   Source
	cache    database.DiscoveryDBHandlerFunctions
	ingester MeetingIngester
	config   model.IngestConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewRangeIngester creates a range ingester. cache may be nil.
func NewRangeIngester(source Source, cache database.DiscoveryDBHandlerFunctions, ingester MeetingIngester, config model.IngestConfig, logger *slog.Logger) *RangeIngester {
	if logger == nil {
		logger = slog.Default()
	}

	return &RangeIngester{
		source:   source,
		cache:    cache,
		ingester: ingester,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateRange parses both dates and checks that to is not before from
// and that the range spans at most maxDays days.
func ValidateRange(fromDate string, toDate string, maxDays int) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, fromDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from date %q is not YYYY-MM-DD", ErrInvalidRange, fromDate)
	}
	to, err := time.Parse(dateLayout, toDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to date %q is not YYYY-MM-DD", ErrInvalidRange, toDate)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to date %s is before from date %s", ErrInvalidRange, toDate, fromDate)
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if maxDays > 0 && days > maxDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d days, at most %d allowed", ErrRangeTooLarge, days, maxDays)
	}

	return from, to, nil
}

// CrawlWindows splits [from, to] into consecutive windows of chunkDays days.
// The last window ends at to.
func CrawlWindows(from time.Time, to time.Time, chunkDays int) [][2]string {
	if chunkDays <= 0 {
		chunkDays = 1
	}

	windows := [][2]string{}
	for start := from; !start.After(to); start = start.AddDate(0, 0, chunkDays) {
		end := start.AddDate(0, 0, chunkDays-1)
		if end.After(to) {
			end = to
		}
		windows = append(windows, [2]string{start.Format(dateLayout), end.Format(dateLayout)})
	}
	return windows
}

// Prepare validates request and fills in configured defaults.
func (r *RangeIngester) Prepare(request model.RangeRequest) (model.RangeRequest, error) {
	_, _, err := ValidateRange(request.FromDate, request.ToDate, r.config.MaxRangeDays)
	if err != nil {
		return request, err
	}

	if request.Limit <= 0 {
		request.Limit = r.config.DefaultLimit
	}
	if request.ChunkDays <= 0 {
		request.ChunkDays = r.config.ChunkDays
	}
	if request.CacheTTL <= 0 {
		request.CacheTTL = r.config.DiscoveryCacheTTL
	}
	return request, nil
}

// Discover returns the meeting ids of the range in portal order, deduplicated.
// A cached list is used while it is younger than the request's TTL.
func (r *RangeIngester) Discover(ctx context.Context, request model.RangeRequest) ([]int64, bool, error) {
	from, to, err := ValidateRange(request.FromDate, request.ToDate, r.config.MaxRangeDays)
	if err != nil {
		return nil, false, err
	}

	key := model.DiscoveryKey{FromDate: request.FromDate, ToDate: request.ToDate, Crawl: request.Crawl, ChunkDays: request.ChunkDays}
	if !request.Crawl {
		key.ChunkDays = 0
	}

	if r.cache != nil {
		ids, fetchedAt, found, err := r.cache.SelectDiscovery(ctx, key)
		if err != nil {
			return nil, false, helper.NewError("select discovery", err)
		}
		if found && r.now().Sub(fetchedAt) <= request.CacheTTL {
			return ids, true, nil
		}
	}

	windows := [][2]string{{request.FromDate, request.ToDate}}
	if request.Crawl {
		windows = CrawlWindows(from, to, request.ChunkDays)
	}

	seen := map[int64]bool{}
	ids := []int64{}
	for _, window := range windows {
		windowIDs, err := r.source.ListMeetingIDs(ctx, window[0], window[1])
		if err != nil {
			return nil, false, helper.NewError(fmt.Sprintf("list meetings %s..%s", window[0], window[1]), err)
		}
		for _, id := range windowIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	if r.cache != nil {
		_, err = r.cache.UpsertDiscovery(ctx, key, ids)
		if err != nil {
			return nil, false, helper.NewError("upsert discovery", err)
		}
	}

	return ids, false, nil
}

// IngestMeetingID fetches one meeting from the source and ingests it.
func (r *RangeIngester) IngestMeetingID(ctx context.Context, meetingID int64) (*model.IngestResult, error) {
	payload, err := r.source.FetchMeeting(ctx, meetingID)
	if err != nil {
		return nil, helper.NewError("fetch meeting", err)
	}
	return r.ingester.IngestMeeting(ctx, payload)
}

// IngestRange discovers the range and ingests up to request.Limit meetings
// on bounded workers. A failing meeting is recorded and does not stop the
// others. progress may be nil.
func (r *RangeIngester) IngestRange(ctx context.Context, request model.RangeRequest, progress ProgressFunc) (*model.RangeResult, error) {
	request, err := r.Prepare(request)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(model.JobProgress) {}
	}

	var mu sync.Mutex
	state := model.JobProgress{Stage: model.StageDiscovering}
	progress(state)

	ids, fromCache, err := r.Discover(ctx, request)
	if err != nil {
		return nil, err
	}
	if len(ids) > request.Limit {
		ids = ids[:request.Limit]
	}

	result := &model.RangeResult{Discovered: len(ids), FromCache: fromCache, MeetingIDs: ids, Errors: map[int64]string{}}
	state.Stage = model.StageIngesting
	state.Discovered = len(ids)
	progress(state)

	workers := r.config.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			current := id
			state.CurrentMeetingID = &current
			progress(state)
			mu.Unlock()

			_, err := r.IngestMeetingID(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			state.Processed++
			if err != nil {
				state.Failed++
				result.Errors[id] = err.Error()
				r.logger.Warn("Meeting ingestion failed", slog.Int64("meeting_id", id), slog.String("error", err.Error()))
			} else {
				state.Succeeded++
			}
			progress(state)
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, helper.NewError("ingest range", err)
	}

	state.Stage = model.StageDone
	state.CurrentMeetingID = nil
	progress(state)

	result.Processed = state.Processed
	result.Succeeded = state.Succeeded
	result.Failed = state.Failed
	if len(result.Errors) == 0 {
		result.Errors = nil
	}

	r.logger.Info(
		"Ingested range",
		slog.String("from", request.FromDate),
		slog.String("to", request.ToDate),
		slog.Int("discovered", result.Discovered),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Bool("from_cache", fromCache),
	)

	return result, nil
}

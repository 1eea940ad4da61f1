package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		expected error
	}{
		{"Single day", "2026-01-01", "2026-01-01", nil},
		{"Maximum span", "2026-01-01", "2026-06-29", nil},
		{"One day too many", "2026-01-01", "2026-06-30", ErrRangeTooLarge},
		{"Reversed", "2026-02-01", "2026-01-01", ErrInvalidRange},
		{"Bad from date", "01/01/2026", "2026-01-31", ErrInvalidRange},
		{"Bad to date", "2026-01-01", "2026-13-01", ErrInvalidRange},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := ValidateRange(test.from, test.to, 180)
			if test.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.expected)
		})
	}
}

func TestCrawlWindows(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Chunks end at the range end", func(t *testing.T) {
		windows := CrawlWindows(from, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 31)
		assert.Equal(t, [][2]string{{"2026-01-01", "2026-01-31"}, {"2026-02-01", "2026-02-28"}}, windows)
	})

	t.Run("Single day", func(t *testing.T) {
		assert.Equal(t, [][2]string{{"2026-01-01", "2026-01-01"}}, CrawlWindows(from, from, 31))
	})

	t.Run("Non-positive chunk size", func(t *testing.T) {
		assert.Len(t, CrawlWindows(from, from.AddDate(0, 0, 2), 0), 3)
	})
}

func newTestRangeIngester() (*RangeIngester, *fakeSource, *fakeCache, *fakeIngester, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	source := newFakeSource()
	cache := newFakeCache(clock)
	ingester := &fakeIngester{}

	config := model.DefaultIngestConfig()
	config.Workers = 2
	r := NewRangeIngester(source, cache, ingester, config, nil)
	r.now = clock
	return r, source, cache, ingester, &now
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	t.Run("Crawl dedupes across windows", func(t *testing.T) {
		r, source, _, _, _ := newTestRangeIngester()
		source.windows[[2]string{"2026-01-01", "2026-01-31"}] = []int64{1408, 1409}
		source.windows[[2]string{"2026-02-01", "2026-02-28"}] = []int64{1409, 1410}

		request, err := r.Prepare(model.RangeRequest{FromDate: "2026-01-01", ToDate: "2026-02-28", Crawl: true})
		require.NoError(t, err)

		ids, fromCache, err := r.Discover(ctx, request)
		require.NoError(t, err, "Expected Discover to not return an error")
		assert.Equal(t, []int64{1408, 1409, 1410}, ids)
		assert.False(t, fromCache)
		assert.Len(t, source.listed, 2)
	})

	t.Run("Cache honors the ttl", func(t *testing.T) {
		r, source, _, _, now := newTestRangeIngester()
		source.fallback = []int64{1408}

		request, err := r.Prepare(model.RangeRequest{FromDate: "2026-01-01", ToDate: "2026-01-10", Crawl: true, CacheTTL: time.Hour})
		require.NoError(t, err)

		_, fromCache, err := r.Discover(ctx, request)
		require.NoError(t, err)
		assert.False(t, fromCache)

		*now = now.Add(time.Hour)
		ids, fromCache, err := r.Discover(ctx, request)
		require.NoError(t, err)
		assert.True(t, fromCache, "Expected an entry exactly ttl old to be fresh")
		assert.Equal(t, []int64{1408}, ids)
		assert.Len(t, source.listed, 1)

		*now = now.Add(time.Second)
		_, fromCache, err = r.Discover(ctx, request)
		require.NoError(t, err)
		assert.False(t, fromCache)
		assert.Len(t, source.listed, 2)
	})

	t.Run("Without crawl the range is one window", func(t *testing.T) {
		r, source, cache, _, _ := newTestRangeIngester()
		request, err := r.Prepare(model.RangeRequest{FromDate: "2026-01-01", ToDate: "2026-03-31"})
		require.NoError(t, err)

		_, _, err = r.Discover(ctx, request)
		require.NoError(t, err)
		assert.Equal(t, [][2]string{{"2026-01-01", "2026-03-31"}}, source.listed)

		_, ok := cache.entries[model.DiscoveryKey{FromDate: "2026-01-01", ToDate: "2026-03-31"}]
		assert.True(t, ok, "Expected the cache key to ignore chunk days without crawl")
	})

	t.Run("Source error", func(t *testing.T) {
		r, source, _, _, _ := newTestRangeIngester()
		source.listErr = errors.New("portal down")

		_, _, err := r.Discover(ctx, model.RangeRequest{FromDate: "2026-01-01", ToDate: "2026-01-02"})
		assert.Error(t, err)
	})
}

func TestIngestRange(t *testing.T) {
	ctx := context.Background()

	t.Run("Counts successes and failures", func(t *testing.T) {
		r, source, _, ingester, _ := newTestRangeIngester()
		source.fallback = []int64{1408, 1409, 1410, 1411}
		source.failing[1409] = true

		var mu sync.Mutex
		var snapshots []model.JobProgress
		result, err := r.IngestRange(ctx, model.RangeRequest{FromDate: "2026-01-01", ToDate: "2026-01-31", Limit: 3}, func(progress model.JobProgress) {
			mu.Lock()
			defer mu.Unlock()
			snapshots = append(snapshots, progress)
		})
		require.NoError(t, err, "Expected IngestRange to not return an error")

		assert.Equal(t, 3, result.Discovered, "Expected the limit to cap the discovered ids")
		assert.Equal(t, []int64{1408, 1409, 1410}, result.MeetingIDs)
		assert.Equal(t, 3, result.Processed)
		assert.Equal(t, 2, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
		assert.Contains(t, result.Errors[1409], "portal unavailable")
		assert.ElementsMatch(t, []int64{1408, 1410}, ingester.ingested)

		require.NotEmpty(t, snapshots)
		assert.Equal(t, model.StageDiscovering, snapshots[0].Stage)
		last := snapshots[len(snapshots)-1]
		assert.Equal(t, model.StageDone, last.Stage)
		assert.Nil(t, last.CurrentMeetingID)
		assert.Equal(t, 3, last.Processed)
	})

	t.Run("Default limit", func(t *testing.T) {
		r, source, _, _, _ := newTestRangeIngester()
		for id := int64(1); id <= 60; id++ {
			source.fallback = append(source.fallback, id)
		}

		result, err := r.IngestRange(ctx, model.RangeRequest{FromDate: "2026-01-01", ToDate: "2026-01-31"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 50, result.Processed)
		assert.Nil(t, result.Errors)
	})

	t.Run("Invalid range", func(t *testing.T) {
		r, _, _, _, _ := newTestRangeIngester()
		_, err := r.IngestRange(ctx, model.RangeRequest{FromDate: "2026-01-01", ToDate: "2027-01-01"}, nil)
		assert.ErrorIs(t, err, ErrRangeTooLarge)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		r, source, _, _, _ := newTestRangeIngester()
		source.fallback = []int64{1408}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.IngestRange(cancelled, model.RangeRequest{FromDate: "2026-01-01", ToDate: "2026-01-31"}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

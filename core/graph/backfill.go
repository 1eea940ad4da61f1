package graph

import (
	"context"
	"log/slog"
	"sync"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	"golang.org/x/sync/errgroup"
)

// MeetingLister lists the meeting ids a backfill iterates over.
type MeetingLister interface {
	SelectMeetingIDs(ctx context.Context, limit int, meetingID *int64) ([]int64, error)
}

// RebuildFunc rebuilds one meeting, usually in its own transaction, and
// returns the rebuild counts plus the number of pruned edges.
type RebuildFunc func(ctx context.Context, meetingID int64, prune bool) (model.GraphCounts, int, error)

// BackfillOptions narrows and tunes a backfill run.
type BackfillOptions struct {
	Limit     int
	MeetingID *int64
	Workers   int
	Prune     bool
}

// Backfiller drives per-meeting rebuilds over many meetings.
type Backfiller struct {
	meetings MeetingLister
	rebuild  RebuildFunc
	logger   *slog.Logger
}

// NewBackfiller creates a backfill driver.
func NewBackfiller(meetings MeetingLister, rebuild RebuildFunc, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{meetings: meetings, rebuild: rebuild, logger: logger}
}

// Backfill rebuilds the graph of every selected meeting with a bounded number
// of workers. A failing meeting is counted and logged, the others continue.
func (b *Backfiller) Backfill(ctx context.Context, options BackfillOptions) (model.BackfillCounts, error) {
	counts := model.BackfillCounts{}

	ids, err := b.meetings.SelectMeetingIDs(ctx, options.Limit, options.MeetingID)
	if err != nil {
		return counts, helper.NewError("select meeting ids", err)
	}

	workers := options.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, id := range ids {
		meetingID := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			graphCounts, pruned, err := b.rebuild(gctx, meetingID, options.Prune)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				counts.FailedMeetings++
				b.logger.Warn("Graph rebuild failed", slog.Int64("meeting_id", meetingID), slog.Any("error", err))
				return nil
			}
			counts.Add(graphCounts)
			counts.ConnectionsPruned += pruned
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return counts, helper.NewError("backfill", err)
	}

	b.logger.Info(
		"Backfilled graph",
		slog.Int("processed_meetings", counts.ProcessedMeetings),
		slog.Int("connections_written", counts.ConnectionsWritten),
		slog.Int("connections_pruned", counts.ConnectionsPruned),
		slog.Int("failed_meetings", counts.FailedMeetings),
	)

	return counts, nil
}

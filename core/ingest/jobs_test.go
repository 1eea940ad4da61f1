package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJobStore runs the JobStore contract against store.
func testJobStore(t *testing.T, ctx context.Context, store JobStore) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Empty store", func(t *testing.T) {
		_, ok, err := store.LatestCreatedAt(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrJobNotFound)

		_, err = store.Update(ctx, uuid.New(), func(job *model.Job) {})
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	first := &model.Job{ID: uuid.New(), Status: model.JobStatusQueued, Request: januaryRequest, Progress: model.JobProgress{Stage: model.StageQueued}, CreatedAt: created}
	second := &model.Job{ID: uuid.New(), Status: model.JobStatusQueued, Request: januaryRequest, CreatedAt: created.Add(time.Minute)}

	t.Run("Create and get", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, first), "Expected Create to not return an error")
		require.NoError(t, store.Create(ctx, second))

		job, err := store.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, job.ID)
		assert.Equal(t, januaryRequest, job.Request)
		assert.Equal(t, model.StageQueued, job.Progress.Stage)

		count, err := store.CountActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		latest, ok, err := store.LatestCreatedAt(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, latest.Equal(created.Add(time.Minute)))
	})

	t.Run("Update", func(t *testing.T) {
		current := int64(1408)
		updated, err := store.Update(ctx, first.ID, func(job *model.Job) {
			job.Status = model.JobStatusRunning
			job.Progress = model.JobProgress{Stage: model.StageIngesting, Discovered: 3, CurrentMeetingID: &current}
		})
		require.NoError(t, err, "Expected Update to not return an error")
		assert.Equal(t, model.JobStatusRunning, updated.Status)

		job, err := store.Get(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, job.Progress.CurrentMeetingID)
		assert.Equal(t, int64(1408), *job.Progress.CurrentMeetingID)

		_, err = store.Update(ctx, second.ID, func(job *model.Job) {
			job.Status = model.JobStatusCompleted
			job.Result = &model.RangeResult{Processed: 1, MeetingIDs: []int64{1408}}
		})
		require.NoError(t, err)

		count, err := store.CountActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "Expected finished jobs to leave the active count")
	})

	t.Run("Returned jobs are copies", func(t *testing.T) {
		job, err := store.Get(ctx, second.ID)
		require.NoError(t, err)
		job.Result.MeetingIDs[0] = 1

		again, err := store.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1408}, again.Result.MeetingIDs)
	})
}

func TestRedisJobStore(t *testing.T) {
	ctx := context.Background()

	teardown, addr, err := helper.MustStartRedisContainer()
	if teardown != nil {
		t.Cleanup(func() { _ = teardown(context.Background()) })
	}
	require.NoError(t, err, "Expected redis container to start")

	store, err := NewRedisJobStore(ctx, addr, "civicgraph:test:"+uuid.NewString(), time.Hour)
	require.NoError(t, err, "Expected NewRedisJobStore to not return an error")
	t.Cleanup(func() { _ = store.Close() })

	testJobStore(t, ctx, store)

	t.Run("Missing address", func(t *testing.T) {
		_, err := NewRedisJobStore(ctx, "", "", 0)
		assert.Error(t, err)
	})
}

package ingest

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("Records ingest results", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		metrics, err := NewMetrics(registry)
		require.NoError(t, err, "Expected NewMetrics to not return an error")

		metrics.RecordIngest(&model.IngestResult{Mentions: 7, AliasMentions: 2, Graph: model.GraphCounts{Connections: 9}, Duration: 150 * time.Millisecond})
		metrics.RecordIngest(&model.IngestResult{Mentions: 1, Graph: model.GraphCounts{Connections: 1}})

		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.meetingsIngested))
		assert.Equal(t, float64(6), testutil.ToFloat64(metrics.mentionsWritten.WithLabelValues("direct")))
		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.mentionsWritten.WithLabelValues("alias")))
		assert.Equal(t, float64(10), testutil.ToFloat64(metrics.connectionsUpserted))
		assert.Equal(t, 5, testutil.CollectAndCount(metrics), "Expected one series per metric and label value")
	})

	t.Run("Double registration fails", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		_, err := NewMetrics(registry)
		require.NoError(t, err)
		_, err = NewMetrics(registry)
		assert.Error(t, err)
	})

	t.Run("Nil metrics are a no-op", func(t *testing.T) {
		var metrics *Metrics
		assert.NotPanics(t, func() { metrics.RecordIngest(&model.IngestResult{}) })
	})
}

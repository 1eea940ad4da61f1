package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/civicgraph/model"
)

// Metrics counts ingested meetings, written mentions and upserted connections.
// A nil *Metrics records nothing.
type Metrics struct {
	meetingsIngested    prometheus.Counter
	mentionsWritten     *prometheus.CounterVec
	connectionsUpserted prometheus.Counter
	ingestDuration      prometheus.Histogram
}

// NewMetrics creates the ingestion metrics and registers them on registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		meetingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civicgraph_meetings_ingested_total",
			Help: "Total number of meetings ingested",
		}),
		mentionsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civicgraph_mentions_written_total",
			Help: "Total number of mentions written",
		}, []string{"confidence_kind"}), // direct, alias
		connectionsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civicgraph_connections_upserted_total",
			Help: "Total number of connections upserted by graph rebuilds",
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "civicgraph_ingest_duration_seconds",
			Help:    "Time taken to ingest one meeting",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	err := registerer.Register(m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.meetingsIngested.Describe(ch)
	m.mentionsWritten.Describe(ch)
	m.connectionsUpserted.Describe(ch)
	m.ingestDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.meetingsIngested.Collect(ch)
	m.mentionsWritten.Collect(ch)
	m.connectionsUpserted.Collect(ch)
	m.ingestDuration.Collect(ch)
}

// RecordIngest records one committed meeting ingestion.
func (m *Metrics) RecordIngest(result *model.IngestResult) {
	if m == nil || result == nil {
		return
	}
	m.meetingsIngested.Inc()
	m.mentionsWritten.WithLabelValues("direct").Add(float64(result.Mentions - result.AliasMentions))
	m.mentionsWritten.WithLabelValues("alias").Add(float64(result.AliasMentions))
	m.connectionsUpserted.Add(float64(result.Graph.Connections))
	m.ingestDuration.Observe(result.Duration.Seconds())
}

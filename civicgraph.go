package civicgraph

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/civicgraph/core/extract"
	"github.com/siherrmann/civicgraph/core/graph"
	"github.com/siherrmann/civicgraph/core/ingest"
	"github.com/siherrmann/civicgraph/core/retrieval"
	"github.com/siherrmann/civicgraph/core/topics"
	"github.com/siherrmann/civicgraph/database"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	"github.com/siherrmann/civicgraph/portal"
	loadSql "github.com/siherrmann/civicgraph/sql"
)

// Options configures a CivicGraph beyond the database connection.
type Options struct {
	Ingest  model.IngestConfig
	Suggest model.SuggestConfig
	// Registerer receives the ingestion metrics, nil disables them.
	Registerer prometheus.Registerer
	// JobStore defaults to redis when Ingest.RedisAddr is set, else to memory.
	JobStore ingest.JobStore
	// Source defaults to the portal client.
	Source ingest.Source
	Logger *slog.Logger
	// ForceSQL reloads the SQL functions even if they already exist.
	ForceSQL bool
}

// DefaultOptions returns options from the CIVIC_* environment.
func DefaultOptions() Options {
	return Options{
		Ingest:  model.LoadIngestConfig(),
		Suggest: model.DefaultSuggestConfig(),
	}
}

// CivicGraph wires the database handlers, the ingestion pipeline, the job
// runner and the query engine.
type CivicGraph struct {
	DB          *helper.Database
	Meetings    *database.MeetingsDBHandler
	Entities    *database.EntitiesDBHandler
	Mentions    *database.MentionsDBHandler
	Connections *database.ConnectionsDBHandler
	Discovery   *database.DiscoveryDBHandler
	Explore     *database.ExploreDBHandler

	Portal     *portal.Client
	Ingester   *ingest.Ingester
	Ranges     *ingest.RangeIngester
	Runner     *ingest.Runner
	Backfiller *graph.Backfiller
	Engine     *retrieval.Engine
	Extractors *extract.Set
	Classifier *topics.Classifier

	config model.IngestConfig
	redis  *ingest.RedisJobStore
	log    *slog.Logger
}

// NewCivicGraph connects to the database, loads the SQL functions and
// creates all handlers and services.
func NewCivicGraph(config *helper.DatabaseConfiguration, options Options) (*CivicGraph, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}))
	}

	db, err := helper.NewDatabase("civicgraph", config, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}
	err = loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database", err)
	}

	c := &CivicGraph{DB: db, config: options.Ingest, log: logger}

	c.Meetings, err = database.NewMeetingsDBHandler(db, options.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create meetings handler", err)
	}
	c.Entities, err = database.NewEntitiesDBHandler(db, options.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}
	c.Mentions, err = database.NewMentionsDBHandler(db, options.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create mentions handler", err)
	}
	c.Connections, err = database.NewConnectionsDBHandler(db, options.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create connections handler", err)
	}
	c.Discovery, err = database.NewDiscoveryDBHandler(db, options.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create discovery handler", err)
	}
	c.Explore, err = database.NewExploreDBHandler(db, options.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create explore handler", err)
	}

	var metrics *ingest.Metrics
	if options.Registerer != nil {
		metrics, err = ingest.NewMetrics(options.Registerer)
		if err != nil {
			return nil, helper.NewError("register metrics", err)
		}
	}

	c.Extractors = extract.DefaultSet()
	c.Classifier = topics.DefaultClassifier()
	c.Portal = portal.NewClient(options.Ingest, logger)

	source := options.Source
	if source == nil {
		source = c.Portal
	}

	c.Ingester = ingest.NewIngester(db, c.Meetings, c.Entities, c.Mentions, c.Connections, c.Extractors, c.Classifier, metrics, logger)
	c.Ranges = ingest.NewRangeIngester(source, c.Discovery, c.Ingester, options.Ingest, logger)
	c.Backfiller = graph.NewBackfiller(c.Meetings, c.Ingester.RebuildGraph, logger)

	store := options.JobStore
	if store == nil && len(options.Ingest.RedisAddr) > 0 {
		c.redis, err = ingest.NewRedisJobStore(context.Background(), options.Ingest.RedisAddr, "", 24*time.Hour)
		if err != nil {
			return nil, helper.NewError("create redis job store", err)
		}
		store = c.redis
	}
	if store == nil {
		store = ingest.NewMemoryJobStore()
	}
	c.Runner = ingest.NewRunner(store, c.Ranges, options.Ingest, logger)

	c.Engine = retrieval.NewEngine(
		c.Entities,
		c.Mentions,
		c.Connections,
		c.Explore,
		graph.NewConnections(c.Connections, c.Classifier),
		c.Classifier,
		options.Suggest,
		options.Ingest,
	)

	return c, nil
}

// Close waits for running jobs and closes all connections.
func (c *CivicGraph) Close() error {
	if c.Runner != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Runner.Shutdown(ctx); err != nil {
			c.log.Warn("Job runner shutdown", slog.String("error", err.Error()))
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warn("Redis close", slog.String("error", err.Error()))
		}
	}
	return c.DB.Close()
}

// IngestMeeting fetches a meeting from the source and ingests it.
func (c *CivicGraph) IngestMeeting(ctx context.Context, meetingID int64) (*model.IngestResult, error) {
	return c.Ranges.IngestMeetingID(ctx, meetingID)
}

// IngestPayload ingests an already fetched meeting.
func (c *CivicGraph) IngestPayload(ctx context.Context, payload *model.MeetingPayload) (*model.IngestResult, error) {
	return c.Ingester.IngestMeeting(ctx, payload)
}

// IngestRange ingests a date range in the foreground.
func (c *CivicGraph) IngestRange(ctx context.Context, request model.RangeRequest, progress ingest.ProgressFunc) (*model.RangeResult, error) {
	return c.Ranges.IngestRange(ctx, request, progress)
}

// SubmitRange starts a background range job.
func (c *CivicGraph) SubmitRange(ctx context.Context, request model.RangeRequest) (*model.Job, error) {
	return c.Runner.Submit(ctx, request)
}

// Job returns the state of a background job.
func (c *CivicGraph) Job(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	return c.Runner.Get(ctx, id)
}

// RebuildGraph rebuilds the graph of one meeting.
func (c *CivicGraph) RebuildGraph(ctx context.Context, meetingID int64, prune bool) (model.GraphCounts, int, error) {
	return c.Ingester.RebuildGraph(ctx, meetingID, prune)
}

// Backfill rebuilds the graphs of stored meetings.
func (c *CivicGraph) Backfill(ctx context.Context, options graph.BackfillOptions) (model.BackfillCounts, error) {
	if options.Workers <= 0 {
		options.Workers = c.config.Workers
	}
	return c.Backfiller.Backfill(ctx, options)
}

// Extract runs the fact extractors over raw text.
func (c *CivicGraph) Extract(raw string) []model.Candidate {
	return c.Extractors.Extract(raw)
}

// Classify returns the topics of a title and body.
func (c *CivicGraph) Classify(title string, body string) []model.Topic {
	return c.Classifier.Classify(title, body)
}

package retrieval

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/civicgraph/core/graph"
	"github.com/siherrmann/civicgraph/database"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	loadSql "github.com/siherrmann/civicgraph/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

type testHandlers struct {
	meetings    *database.MeetingsDBHandler
	entities    *database.EntitiesDBHandler
	mentions    *database.MentionsDBHandler
	connections *database.ConnectionsDBHandler
	explore     *database.ExploreDBHandler
}

func initEngine(t *testing.T) (*Engine, *testHandlers) {
	db := initDB(t)

	meetings, err := database.NewMeetingsDBHandler(db, false)
	require.NoError(t, err)
	entities, err := database.NewEntitiesDBHandler(db, false)
	require.NoError(t, err)
	mentions, err := database.NewMentionsDBHandler(db, false)
	require.NoError(t, err)
	connections, err := database.NewConnectionsDBHandler(db, false)
	require.NoError(t, err)
	explore, err := database.NewExploreDBHandler(db, false)
	require.NoError(t, err)

	engine := NewEngine(
		entities,
		mentions,
		connections,
		explore,
		graph.NewConnections(connections, nil),
		nil,
		model.DefaultSuggestConfig(),
		model.DefaultIngestConfig(),
	)

	return engine, &testHandlers{
		meetings:    meetings,
		entities:    entities,
		mentions:    mentions,
		connections: connections,
		explore:     explore,
	}
}

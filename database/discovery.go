package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	loadSql "github.com/siherrmann/civicgraph/sql"
)

// DiscoveryDBHandlerFunctions defines the interface for the discovery cache.
type DiscoveryDBHandlerFunctions interface {
	SelectDiscovery(ctx context.Context, key model.DiscoveryKey) ([]int64, time.Time, bool, error)
	UpsertDiscovery(ctx context.Context, key model.DiscoveryKey, meetingIDs []int64) (time.Time, error)
}

// DiscoveryDBHandler caches meeting id lists per discovery range.
type DiscoveryDBHandler struct {
	db *helper.Database
}

var _ DiscoveryDBHandlerFunctions = (*DiscoveryDBHandler)(nil)

// NewDiscoveryDBHandler creates a new discovery cache handler.
func NewDiscoveryDBHandler(db *helper.Database, force bool) (*DiscoveryDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	discoveryDbHandler := &DiscoveryDBHandler{
		db: db,
	}

	err := loadSql.LoadDiscoverySql(discoveryDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load discovery sql", err)
	}

	err = discoveryDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DiscoveryDBHandler")

	return discoveryDbHandler, nil
}

// CreateTable creates the 'discovery_cache' table in the database.
func (h *DiscoveryDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_discovery();`)
	if err != nil {
		log.Panicf("error initializing discovery_cache table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table discovery_cache")

	return nil
}

// SelectDiscovery returns the cached meeting ids and fetch time for key.
// found is false when nothing is cached.
func (h *DiscoveryDBHandler) SelectDiscovery(ctx context.Context, key model.DiscoveryKey) ([]int64, time.Time, bool, error) {
	var ids []int64
	var fetchedAt time.Time

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_discovery_cache($1, $2, $3, $4)`,
		key.FromDate,
		key.ToDate,
		key.Crawl,
		key.ChunkDays,
	)
	err := row.Scan(pq.Array(&ids), &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, helper.NewError("scan", err)
	}

	return ids, fetchedAt, true, nil
}

// UpsertDiscovery stores the meeting ids for key and returns the new fetch time.
func (h *DiscoveryDBHandler) UpsertDiscovery(ctx context.Context, key model.DiscoveryKey, meetingIDs []int64) (time.Time, error) {
	var fetchedAt time.Time

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT upsert_discovery_cache($1, $2, $3, $4, $5)`,
		key.FromDate,
		key.ToDate,
		key.Crawl,
		key.ChunkDays,
		pq.Array(meetingIDs),
	)
	err := row.Scan(&fetchedAt)
	if err != nil {
		return time.Time{}, helper.NewError("scan", err)
	}

	return fetchedAt, nil
}

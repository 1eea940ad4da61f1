package database

import (
	"context"
	"fmt"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	loadSql "github.com/siherrmann/civicgraph/sql"
)

// ExploreDBHandlerFunctions defines the read-only aggregates of the query layer.
type ExploreDBHandlerFunctions interface {
	SelectRelatedEntities(ctx context.Context, entityID int64, entityType model.EntityType, limit int) ([]*model.RelatedEntity, error)
	SelectTimeline(ctx context.Context, fromDate string, toDate string, limit int) ([]*model.TimelineEntry, error)
	SelectLocations(ctx context.Context, limit int) ([]*model.LocationEntry, error)
	SelectCoverage(ctx context.Context) (*model.Coverage, error)
	SelectPopularEntities(ctx context.Context, entityType model.EntityType, limit int) ([]*model.PopularEntity, error)
	SelectTopicCounts(ctx context.Context) (map[model.Topic]int, error)
	SearchDocuments(ctx context.Context, term string, limit int) ([]*model.DocumentHit, error)
	SearchAgendaItems(ctx context.Context, term string, topic model.Topic, limit int) ([]*model.AgendaItem, error)
}

// ExploreDBHandler runs aggregate queries over the other handlers' tables.
// It owns no tables.
type ExploreDBHandler struct {
	db *helper.Database
}

var _ ExploreDBHandlerFunctions = (*ExploreDBHandler)(nil)

// NewExploreDBHandler creates a new explore handler. All other handlers must
// have created their tables before its functions are called.
func NewExploreDBHandler(db *helper.Database, force bool) (*ExploreDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.LoadExploreSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load explore sql", err)
	}

	db.Logger.Info("Initialized ExploreDBHandler")

	return &ExploreDBHandler{db: db}, nil
}

// SelectRelatedEntities lists entities sharing meetings with entityID.
func (h *ExploreDBHandler) SelectRelatedEntities(ctx context.Context, entityID int64, entityType model.EntityType, limit int) ([]*model.RelatedEntity, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_related_entities($1, $2, $3)`,
		entityID,
		nullString(string(entityType)),
		nullLimit(limit),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var related []*model.RelatedEntity
	for rows.Next() {
		r := &model.RelatedEntity{}
		r.Entity, err = scanEntity(rows, &r.SharedMeetings, &r.MentionCount)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		related = append(related, r)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return related, nil
}

// SelectTimeline lists date entities between fromDate and toDate (YYYY-MM-DD, both optional).
func (h *ExploreDBHandler) SelectTimeline(ctx context.Context, fromDate string, toDate string, limit int) ([]*model.TimelineEntry, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_timeline($1, $2, $3)`,
		nullString(fromDate),
		nullString(toDate),
		nullLimit(limit),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var timeline []*model.TimelineEntry
	for rows.Next() {
		entry := &model.TimelineEntry{}
		entry.Entity, err = scanEntity(rows, &entry.ISODate, &entry.MeetingCount, &entry.MentionCount)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		timeline = append(timeline, entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return timeline, nil
}

// SelectLocations lists address entities with their stored place details.
// Hints are raw, defaults are applied by the caller.
func (h *ExploreDBHandler) SelectLocations(ctx context.Context, limit int) ([]*model.LocationEntry, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_locations($1)`, nullLimit(limit))
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var locations []*model.LocationEntry
	for rows.Next() {
		l := &model.LocationEntry{}
		l.Entity, err = scanEntity(rows, &l.CityHint, &l.StateHint, &l.ZipHint, &l.MeetingCount, &l.MentionCount)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		locations = append(locations, l)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return locations, nil
}

// SelectCoverage counts rows per table, entities per type, mentions per
// source type and document texts per status.
func (h *ExploreDBHandler) SelectCoverage(ctx context.Context) (*model.Coverage, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_coverage()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	coverage := &model.Coverage{
		Tables:               map[string]int64{},
		EntitiesByType:       map[model.EntityType]int64{},
		MentionsBySource:     map[model.SourceType]int64{},
		DocumentTextStatuses: map[model.DocumentTextStatus]int64{},
	}
	for rows.Next() {
		var category, key string
		var count int64
		err := rows.Scan(&category, &key, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		switch category {
		case "table":
			coverage.Tables[key] = count
		case "entity_type":
			coverage.EntitiesByType[model.EntityType(key)] = count
		case "source_type":
			coverage.MentionsBySource[model.SourceType(key)] = count
		case "text_status":
			coverage.DocumentTextStatuses[model.DocumentTextStatus(key)] = count
		}
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return coverage, nil
}

// SelectPopularEntities lists the most mentioned entities, meetings and documents excluded.
func (h *ExploreDBHandler) SelectPopularEntities(ctx context.Context, entityType model.EntityType, limit int) ([]*model.PopularEntity, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_popular_entities($1, $2)`,
		nullString(string(entityType)),
		nullLimit(limit),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var popular []*model.PopularEntity
	for rows.Next() {
		p := &model.PopularEntity{}
		p.Entity, err = scanEntity(rows, &p.MentionCount, &p.MeetingCount)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		popular = append(popular, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return popular, nil
}

// SelectTopicCounts counts agenda items per topic.
func (h *ExploreDBHandler) SelectTopicCounts(ctx context.Context) (map[model.Topic]int, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_topic_counts()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	counts := map[model.Topic]int{}
	for rows.Next() {
		var topic string
		var count int
		err := rows.Scan(&topic, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		counts[model.Topic(topic)] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

// SearchDocuments finds documents by title or extracted text.
func (h *ExploreDBHandler) SearchDocuments(ctx context.Context, term string, limit int) ([]*model.DocumentHit, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM search_documents($1, $2)`, term, nullLimit(limit))
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var hits []*model.DocumentHit
	for rows.Next() {
		hit := &model.DocumentHit{}
		hit.Document, err = scanDocument(rows, &hit.Snippet)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}

// SearchAgendaItems finds agenda items by title, optionally restricted to a topic.
func (h *ExploreDBHandler) SearchAgendaItems(ctx context.Context, term string, topic model.Topic, limit int) ([]*model.AgendaItem, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM search_agenda_items($1, $2, $3)`,
		nullString(term),
		nullString(string(topic)),
		nullLimit(limit),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var items []*model.AgendaItem
	for rows.Next() {
		item, err := scanAgendaItem(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		items = append(items, item)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return items, nil
}

package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/siherrmann/civicgraph/core/graph"
	"github.com/siherrmann/civicgraph/core/topics"
	"github.com/siherrmann/civicgraph/database"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

var zipInText = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

// Engine serves the read side of the entity graph.
type Engine struct {
	entities    *database.EntitiesDBHandler
	mentions    *database.MentionsDBHandler
	connections *database.ConnectionsDBHandler
	explore     *database.ExploreDBHandler
	suggester   *Suggester
	graph       *graph.Connections
	classifier  *topics.Classifier
	config      model.IngestConfig
}

// NewEngine creates a new retrieval engine. A nil classifier uses the default table.
func NewEngine(
	entities *database.EntitiesDBHandler,
	mentions *database.MentionsDBHandler,
	connections *database.ConnectionsDBHandler,
	explore *database.ExploreDBHandler,
	connectionQueries *graph.Connections,
	classifier *topics.Classifier,
	suggestConfig model.SuggestConfig,
	config model.IngestConfig,
) *Engine {
	if classifier == nil {
		classifier = topics.DefaultClassifier()
	}
	return &Engine{
		entities:    entities,
		mentions:    mentions,
		connections: connections,
		explore:     explore,
		suggester:   NewSuggester(entities, suggestConfig),
		graph:       connectionQueries,
		classifier:  classifier,
		config:      config,
	}
}

// Suggest ranks recent entities against query.
func (e *Engine) Suggest(ctx context.Context, query string, entityType model.EntityType, limit int) ([]*model.SuggestResult, error) {
	return e.suggester.Suggest(ctx, query, entityType, limit)
}

// Search finds entities by substring with their bindings.
func (e *Engine) Search(ctx context.Context, term string, entityType model.EntityType, limit int) ([]*model.SearchResult, error) {
	term = strings.TrimSpace(term)
	if len(term) == 0 {
		return []*model.SearchResult{}, nil
	}
	return e.entities.SearchEntities(ctx, term, entityType, e.limit(limit))
}

// MeetingEntities groups the mentions of a meeting by entity, in order of first mention.
func (e *Engine) MeetingEntities(ctx context.Context, meetingID int64) ([]*model.MeetingEntity, error) {
	mentions, err := e.mentions.SelectMentionsByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	byEntity := map[int64]*model.MeetingEntity{}
	result := []*model.MeetingEntity{}
	for _, mention := range mentions {
		entry, ok := byEntity[mention.EntityID]
		if !ok {
			entry = &model.MeetingEntity{Entity: mention.Entity}
			byEntity[mention.EntityID] = entry
			result = append(result, entry)
		}
		entry.Mentions = append(entry.Mentions, mention)
	}
	return result, nil
}

// EntityDetail collects everything stored about one entity.
func (e *Engine) EntityDetail(ctx context.Context, entityID int64, mentionLimit int) (*model.EntityDetail, error) {
	entity, err := e.entities.SelectEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	detail := &model.EntityDetail{Entity: entity}

	detail.Aliases, err = e.entities.SelectEntityAliases(ctx, entityID)
	if err != nil {
		return nil, helper.NewError("select aliases", err)
	}
	detail.Bindings, err = e.entities.SelectBindings(ctx, entityID)
	if err != nil {
		return nil, helper.NewError("select bindings", err)
	}
	detail.Mentions, err = e.mentions.SelectMentionsByEntity(ctx, entityID, e.limit(mentionLimit))
	if err != nil {
		return nil, helper.NewError("select mentions", err)
	}
	detail.Details, err = e.entities.SelectEntityDetails(ctx, entityID)
	if err != nil {
		return nil, helper.NewError("select details", err)
	}
	detail.MentionCount, err = e.mentions.CountMentionsByEntity(ctx, entityID)
	if err != nil {
		return nil, helper.NewError("count mentions", err)
	}

	return detail, nil
}

// Related lists entities co-occurring with entityID, by shared meeting count.
func (e *Engine) Related(ctx context.Context, entityID int64, entityType model.EntityType, limit int) ([]*model.RelatedEntity, error) {
	return e.explore.SelectRelatedEntities(ctx, entityID, entityType, e.limit(limit))
}

// Connections groups the edges of an entity.
func (e *Engine) Connections(ctx context.Context, entityID int64, filter model.ConnectionFilter) ([]*model.ConnectionGroup, error) {
	if filter.Limit <= 0 {
		filter.Limit = e.config.DefaultLimit
	}
	return e.graph.Grouped(ctx, entityID, filter)
}

// ConnectionEvidence lists the edges between two entities with their evidence text.
func (e *Engine) ConnectionEvidence(ctx context.Context, entityID int64, otherID int64, filter model.ConnectionFilter) ([]*model.ConnectionEvidence, error) {
	if filter.Limit <= 0 {
		filter.Limit = e.config.DefaultLimit
	}
	return e.graph.Evidence(ctx, entityID, otherID, filter)
}

// Traverse walks the graph breadth-first from entityID.
func (e *Engine) Traverse(ctx context.Context, entityID int64, maxHops int, limit int) ([]*model.TraversalNode, error) {
	return graph.BFS(ctx, e.connections, entityID, maxHops, e.limit(limit))
}

// Timeline lists date entities between two ISO dates (both optional).
func (e *Engine) Timeline(ctx context.Context, fromDate string, toDate string, limit int) ([]*model.TimelineEntry, error) {
	return e.explore.SelectTimeline(ctx, fromDate, toDate, e.limit(limit))
}

// Locations lists address entities with a geocoding query and place hints.
// Missing city and state fall back to the configured defaults.
func (e *Engine) Locations(ctx context.Context, limit int) ([]*model.LocationEntry, error) {
	locations, err := e.explore.SelectLocations(ctx, e.limit(limit))
	if err != nil {
		return nil, err
	}

	for _, location := range locations {
		if len(location.CityHint) == 0 {
			location.CityHint = e.config.DefaultCity
		}
		if len(location.StateHint) == 0 {
			location.StateHint = e.config.DefaultState
		}
		if len(location.ZipHint) == 0 {
			location.ZipHint = zipHint(location.Entity.DisplayValue)
		}
		location.MapQuery = mapQuery(location)
	}
	return locations, nil
}

// zipHint finds a zip code after the street part, never the house number.
func zipHint(display string) string {
	i := strings.Index(display, ",")
	if i < 0 {
		return ""
	}
	return zipInText.FindString(display[i:])
}

func mapQuery(location *model.LocationEntry) string {
	street := strings.TrimSpace(strings.SplitN(location.Entity.DisplayValue, ",", 2)[0])
	parts := []string{street}
	if len(location.CityHint) > 0 {
		parts = append(parts, location.CityHint)
	}
	region := strings.TrimSpace(fmt.Sprintf("%s %s", location.StateHint, location.ZipHint))
	if len(region) > 0 {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

// Coverage counts stored rows.
func (e *Engine) Coverage(ctx context.Context) (*model.Coverage, error) {
	return e.explore.SelectCoverage(ctx)
}

// Popular lists the most mentioned entities and the agenda topic counts.
func (e *Engine) Popular(ctx context.Context, entityType model.EntityType, limit int) (*model.Popular, error) {
	entities, err := e.explore.SelectPopularEntities(ctx, entityType, e.limit(limit))
	if err != nil {
		return nil, err
	}
	topics, err := e.explore.SelectTopicCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Popular{Entities: entities, Topics: topics}, nil
}

// TopTopics returns the topics of Popular ordered by count.
func TopTopics(counts map[model.Topic]int) []model.Topic {
	topics := make([]model.Topic, 0, len(counts))
	for topic := range counts {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	return topics
}

// ContentSearch finds documents by title or text and agenda items by title.
// A topic keeps agenda items tagged with it and documents whose title and
// snippet classify into it.
func (e *Engine) ContentSearch(ctx context.Context, term string, topic model.Topic, limit int) (*model.ContentSearchResult, error) {
	term = strings.TrimSpace(term)
	result := &model.ContentSearchResult{Documents: []*model.DocumentHit{}, AgendaItems: []*model.AgendaItem{}}
	if len(term) == 0 && len(topic) == 0 {
		return result, nil
	}

	var err error
	if len(term) > 0 {
		result.Documents, err = e.explore.SearchDocuments(ctx, term, e.limit(limit))
		if err != nil {
			return nil, err
		}
		if len(topic) > 0 {
			kept := []*model.DocumentHit{}
			for _, hit := range result.Documents {
				if e.classifier.Has(hit.Document.Title+" "+hit.Snippet, topic) {
					kept = append(kept, hit)
				}
			}
			result.Documents = kept
		}
	}
	result.AgendaItems, err = e.explore.SearchAgendaItems(ctx, term, topic, e.limit(limit))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) limit(limit int) int {
	if limit <= 0 {
		return e.config.DefaultLimit
	}
	return limit
}

package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/core/topics"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// Connections answers grouped and per-edge connection queries, optionally
// restricted to edges whose evidence text carries a topic.
type Connections struct {
	store      ConnectionStore
	classifier *topics.Classifier
}

// NewConnections creates a connection query service. A nil classifier uses the default rules.
func NewConnections(store ConnectionStore, classifier *topics.Classifier) *Connections {
	if classifier == nil {
		classifier = topics.DefaultClassifier()
	}
	return &Connections{store: store, classifier: classifier}
}

// evidenceTopics classifies evidence text once per evidence tuple within one query.
type evidenceTopics struct {
	store      ConnectionStore
	classifier *topics.Classifier
	texts      map[model.EvidenceKey]string
	topics     map[model.EvidenceKey][]model.Topic
}

func (c *Connections) newEvidenceTopics() *evidenceTopics {
	return &evidenceTopics{
		store:      c.store,
		classifier: c.classifier,
		texts:      map[model.EvidenceKey]string{},
		topics:     map[model.EvidenceKey][]model.Topic{},
	}
}

func (e *evidenceTopics) text(ctx context.Context, key model.EvidenceKey) (string, error) {
	if t, ok := e.texts[key]; ok {
		return t, nil
	}
	t, err := e.store.SelectEvidenceText(ctx, key)
	if err != nil {
		return "", helper.NewError("select evidence text", err)
	}
	e.texts[key] = t
	return t, nil
}

func (e *evidenceTopics) classify(ctx context.Context, key model.EvidenceKey) ([]model.Topic, error) {
	if found, ok := e.topics[key]; ok {
		return found, nil
	}
	t, err := e.text(ctx, key)
	if err != nil {
		return nil, err
	}
	found := e.classifier.Classify(t, "")
	e.topics[key] = found
	return found, nil
}

func (e *evidenceTopics) has(ctx context.Context, key model.EvidenceKey, topic model.Topic) (bool, error) {
	found, err := e.classify(ctx, key)
	if err != nil {
		return false, err
	}
	for _, t := range found {
		if t == topic {
			return true, nil
		}
	}
	return false, nil
}

func (c *Connections) edges(ctx context.Context, entityID int64, filter model.ConnectionFilter, cache *evidenceTopics) ([]*model.ConnectionEdge, error) {
	edges, err := c.store.SelectConnectionsForEntity(ctx, entityID, filter)
	if err != nil {
		return nil, helper.NewError("select connections", err)
	}
	if len(filter.Topic) == 0 {
		return edges, nil
	}

	kept := edges[:0]
	for _, edge := range edges {
		ok, err := cache.has(ctx, edge.Connection.Evidence(), filter.Topic)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, edge)
		}
	}
	return kept, nil
}

type groupKey struct {
	other     int64
	relation  model.RelationType
	direction model.Direction
}

// Grouped aggregates the edges of an entity by other entity, relation and direction.
// Groups are ordered by edge count, then evidence count, then display value.
func (c *Connections) Grouped(ctx context.Context, entityID int64, filter model.ConnectionFilter) ([]*model.ConnectionGroup, error) {
	edges, err := c.edges(ctx, entityID, filter, c.newEvidenceTopics())
	if err != nil {
		return nil, err
	}

	groups := map[groupKey]*model.ConnectionGroup{}
	meetings := map[groupKey]map[int64]bool{}
	var ordered []*model.ConnectionGroup
	for _, edge := range edges {
		key := groupKey{other: edge.Other.ID, relation: edge.Connection.RelationType, direction: edge.Direction}
		group, ok := groups[key]
		if !ok {
			group = &model.ConnectionGroup{
				Other:        edge.Other,
				RelationType: edge.Connection.RelationType,
				Direction:    edge.Direction,
			}
			groups[key] = group
			meetings[key] = map[int64]bool{}
			ordered = append(ordered, group)
		}

		group.EdgeCount++
		group.EvidenceCount += edge.Connection.EvidenceCount
		if edge.Connection.MeetingID != nil {
			meetings[key][*edge.Connection.MeetingID] = true
		}
		if edge.Connection.Strength > group.MaxStrength {
			group.MaxStrength = edge.Connection.Strength
		}
		if edge.Connection.LastSeenAt.After(group.LastSeenAt) {
			group.LastSeenAt = edge.Connection.LastSeenAt
		}
	}

	for key, group := range groups {
		group.MeetingCount = len(meetings[key])
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.EdgeCount != b.EdgeCount {
			return a.EdgeCount > b.EdgeCount
		}
		if a.EvidenceCount != b.EvidenceCount {
			return a.EvidenceCount > b.EvidenceCount
		}
		return strings.ToLower(a.Other.DisplayValue) < strings.ToLower(b.Other.DisplayValue)
	})

	if filter.Limit > 0 && len(ordered) > filter.Limit {
		ordered = ordered[:filter.Limit]
	}
	return ordered, nil
}

// Evidence lists the edges between an entity and otherID (any other entity
// when otherID is 0) with their resolved evidence text and its topics,
// most recently seen first.
func (c *Connections) Evidence(ctx context.Context, entityID int64, otherID int64, filter model.ConnectionFilter) ([]*model.ConnectionEvidence, error) {
	cache := c.newEvidenceTopics()
	edges, err := c.edges(ctx, entityID, filter, cache)
	if err != nil {
		return nil, err
	}

	var evidence []*model.ConnectionEvidence
	for _, edge := range edges {
		if otherID > 0 && edge.Other.ID != otherID {
			continue
		}

		key := edge.Connection.Evidence()
		contextText, err := cache.text(ctx, key)
		if err != nil {
			return nil, err
		}
		found, err := cache.classify(ctx, key)
		if err != nil {
			return nil, err
		}

		evidence = append(evidence, &model.ConnectionEvidence{
			Connection:  edge.Connection,
			Other:       edge.Other,
			Direction:   edge.Direction,
			ContextText: text.Truncate(contextText, model.MaxContextLength),
			Topics:      found,
		})
	}

	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].Connection.LastSeenAt.After(evidence[j].Connection.LastSeenAt)
	})

	if filter.Limit > 0 && len(evidence) > filter.Limit {
		evidence = evidence[:filter.Limit]
	}
	return evidence, nil
}

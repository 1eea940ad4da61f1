package graph

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// MockGraphDB is an in-memory implementation of every graph store.
type MockGraphDB struct {
	meetings    map[int64]*model.Meeting
	documents   map[int64][]*model.Document
	mentions    map[int64][]*model.Mention
	entities    map[string]*model.Entity
	bindings    map[string]*model.EntityBinding
	connections []*model.Connection
	evidence    map[model.EvidenceKey]string
	neighbors   map[int64][]int64

	nextID        int64
	evidenceReads int
	now           time.Time
}

func NewMockGraphDB() *MockGraphDB {
	return &MockGraphDB{
		meetings:  map[int64]*model.Meeting{},
		documents: map[int64][]*model.Document{},
		mentions:  map[int64][]*model.Mention{},
		entities:  map[string]*model.Entity{},
		bindings:  map[string]*model.EntityBinding{},
		evidence:  map[model.EvidenceKey]string{},
		neighbors: map[int64][]int64{},
		now:       time.Date(2026, 2, 18, 18, 0, 0, 0, time.UTC),
	}
}

func (m *MockGraphDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MockGraphDB) SelectMeeting(ctx context.Context, meetingID int64) (*model.Meeting, error) {
	meeting, ok := m.meetings[meetingID]
	if !ok {
		return nil, helper.NewError("scan", sql.ErrNoRows)
	}
	return meeting, nil
}

func (m *MockGraphDB) SelectDocumentsByMeeting(ctx context.Context, meetingID int64) ([]*model.Document, error) {
	return m.documents[meetingID], nil
}

func (m *MockGraphDB) SelectMentionsByMeeting(ctx context.Context, meetingID int64) ([]*model.Mention, error) {
	return m.mentions[meetingID], nil
}

func (m *MockGraphDB) UpsertEntity(ctx context.Context, entityType model.EntityType, display string, normalized string) (*model.Entity, error) {
	key := string(entityType) + ":" + normalized
	entity, ok := m.entities[key]
	if !ok {
		entity = &model.Entity{ID: m.id(), Type: entityType, DisplayValue: display, NormalizedValue: normalized}
		m.entities[key] = entity
	}
	return entity, nil
}

func (m *MockGraphDB) UpsertBinding(ctx context.Context, entityID int64, sourceTable string, sourceID int64) (*model.EntityBinding, error) {
	key := fmt.Sprintf("%s:%d", sourceTable, sourceID)
	binding, ok := m.bindings[key]
	if !ok {
		binding = &model.EntityBinding{ID: m.id(), EntityID: entityID, SourceTable: sourceTable, SourceID: sourceID}
		m.bindings[key] = binding
	}
	return binding, nil
}

func (m *MockGraphDB) UpsertConnection(ctx context.Context, connection *model.Connection) error {
	m.now = m.now.Add(time.Second)
	for _, existing := range m.connections {
		if existing.FromEntityID == connection.FromEntityID && existing.ToEntityID == connection.ToEntityID &&
			existing.RelationType == connection.RelationType && existing.Evidence() == connection.Evidence() {
			existing.Strength = connection.Strength
			existing.LastSeenAt = m.now
			*connection = *existing
			return nil
		}
	}
	connection.ID = m.id()
	connection.EvidenceCount = 1
	connection.FirstSeenAt = m.now
	connection.LastSeenAt = m.now
	copied := *connection
	m.connections = append(m.connections, &copied)
	return nil
}

func (m *MockGraphDB) PruneStaleConnections(ctx context.Context, meetingID int64) (int, error) {
	return 0, nil
}

func (m *MockGraphDB) SelectConnectionsForEntity(ctx context.Context, entityID int64, filter model.ConnectionFilter) ([]*model.ConnectionEdge, error) {
	var edges []*model.ConnectionEdge
	for _, connection := range m.connections {
		var otherID int64
		var direction model.Direction
		switch entityID {
		case connection.FromEntityID:
			otherID, direction = connection.ToEntityID, model.DirectionOutgoing
		case connection.ToEntityID:
			otherID, direction = connection.FromEntityID, model.DirectionIncoming
		default:
			continue
		}
		if len(filter.Direction) > 0 && filter.Direction != direction {
			continue
		}
		if len(filter.RelationType) > 0 && filter.RelationType != connection.RelationType {
			continue
		}
		other := m.entity(otherID)
		if len(filter.EntityType) > 0 && filter.EntityType != other.Type {
			continue
		}
		edges = append(edges, &model.ConnectionEdge{Connection: connection, Other: other, Direction: direction})
	}
	return edges, nil
}

func (m *MockGraphDB) SelectEvidenceText(ctx context.Context, evidence model.EvidenceKey) (string, error) {
	m.evidenceReads++
	return m.evidence[evidence], nil
}

func (m *MockGraphDB) SelectNeighborIDs(ctx context.Context, entityID int64) ([]int64, error) {
	return m.neighbors[entityID], nil
}

func (m *MockGraphDB) entity(id int64) *model.Entity {
	for _, entity := range m.entities {
		if entity.ID == id {
			return entity
		}
	}
	return &model.Entity{ID: id}
}

func (m *MockGraphDB) addEntity(entityType model.EntityType, display string) *model.Entity {
	entity, _ := m.UpsertEntity(context.Background(), entityType, display, display)
	return entity
}

func (m *MockGraphDB) addMention(meetingID int64, entity *model.Entity, sourceType model.SourceType, sourceID int64, documentID *int64, confidence float64) {
	m.mentions[meetingID] = append(m.mentions[meetingID], &model.Mention{
		ID:          m.id(),
		EntityID:    entity.ID,
		MeetingID:   meetingID,
		DocumentID:  documentID,
		SourceType:  sourceType,
		SourceID:    sourceID,
		MentionText: entity.DisplayValue,
		Confidence:  confidence,
		Entity:      entity,
	})
}

func (m *MockGraphDB) relations(from int64) []model.RelationType {
	var relations []model.RelationType
	for _, connection := range m.connections {
		if connection.FromEntityID == from {
			relations = append(relations, connection.RelationType)
		}
	}
	sort.Slice(relations, func(i, j int) bool { return relations[i] < relations[j] })
	return relations
}

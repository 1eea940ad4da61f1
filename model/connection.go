package model

import (
	"fmt"
	"time"
)

// RelationType is the type of a directed edge between two entities.
type RelationType string

const (
	RelationContainsDocument RelationType = "contains_document"
	RelationMentions         RelationType = "mentions"
	RelationOccursOn         RelationType = "occurs_on"
	RelationOccursAt         RelationType = "occurs_at"
)

func (r RelationType) Valid() bool {
	switch r {
	case RelationContainsDocument, RelationMentions, RelationOccursOn, RelationOccursAt:
		return true
	}
	return false
}

// Direction of an edge relative to the queried entity.
type Direction string

const (
	DirectionAny      Direction = ""
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// ParseDirection accepts "", "any", "outgoing", "incoming", "out" and "in".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "any", "both":
		return DirectionAny, nil
	case "outgoing", "out":
		return DirectionOutgoing, nil
	case "incoming", "in":
		return DirectionIncoming, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Connection is a directed, evidenced edge. One row exists per
// (from, to, relation, evidence source type, evidence source id).
type Connection struct {
	ID                 int64        `json:"id"`
	FromEntityID       int64        `json:"from_entity_id"`
	ToEntityID         int64        `json:"to_entity_id"`
	RelationType       RelationType `json:"relation_type"`
	MeetingID          *int64       `json:"meeting_id,omitempty"`
	DocumentID         *int64       `json:"document_id,omitempty"`
	EvidenceSourceType SourceType   `json:"evidence_source_type"`
	EvidenceSourceID   int64        `json:"evidence_source_id"`
	Strength           float64      `json:"strength"`
	EvidenceCount      int          `json:"evidence_count"`
	FirstSeenAt        time.Time    `json:"first_seen_at"`
	LastSeenAt         time.Time    `json:"last_seen_at"`
}

// Evidence returns the evidence tuple of the edge.
func (c *Connection) Evidence() EvidenceKey {
	return EvidenceKey{SourceType: c.EvidenceSourceType, SourceID: c.EvidenceSourceID}
}

// ConnectionEdge is a connection seen from one endpoint.
type ConnectionEdge struct {
	Connection *Connection `json:"connection"`
	Other      *Entity     `json:"other"`
	Direction  Direction   `json:"direction"`
}

// ConnectionFilter narrows a connection query. Zero values mean no filter.
type ConnectionFilter struct {
	Topic        Topic        `json:"topic,omitempty"`
	EntityType   EntityType   `json:"entity_type,omitempty"`
	RelationType RelationType `json:"relation_type,omitempty"`
	Direction    Direction    `json:"direction,omitempty"`
	Limit        int          `json:"limit,omitempty"`
}

// ConnectionGroup aggregates all edges between the queried entity and one other
// entity that share relation type and direction.
type ConnectionGroup struct {
	Other         *Entity      `json:"other"`
	RelationType  RelationType `json:"relation_type"`
	Direction     Direction    `json:"direction"`
	EdgeCount     int          `json:"edge_count"`
	EvidenceCount int          `json:"evidence_count"`
	MeetingCount  int          `json:"meeting_count"`
	MaxStrength   float64      `json:"max_strength"`
	LastSeenAt    time.Time    `json:"last_seen_at"`
}

// ConnectionEvidence is one edge of a connection group with its resolved text.
type ConnectionEvidence struct {
	Connection  *Connection `json:"connection"`
	Other       *Entity     `json:"other"`
	Direction   Direction   `json:"direction"`
	ContextText string      `json:"context_text"`
	Topics      []Topic     `json:"topics"`
}

// TraversalNode is an entity reached during a breadth-first traversal.
type TraversalNode struct {
	EntityID int64   `json:"entity_id"`
	Depth    int     `json:"depth"`
	Path     []int64 `json:"path"`
}

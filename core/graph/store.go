package graph

import (
	"context"

	"github.com/siherrmann/civicgraph/model"
)

// MeetingStore reads the meeting rows a rebuild starts from.
type MeetingStore interface {
	SelectMeeting(ctx context.Context, meetingID int64) (*model.Meeting, error)
	SelectDocumentsByMeeting(ctx context.Context, meetingID int64) ([]*model.Document, error)
}

// EntityStore creates the synthetic meeting and document nodes.
type EntityStore interface {
	UpsertEntity(ctx context.Context, entityType model.EntityType, display string, normalized string) (*model.Entity, error)
	UpsertBinding(ctx context.Context, entityID int64, sourceTable string, sourceID int64) (*model.EntityBinding, error)
}

// MentionStore lists the mentions recorded for a meeting, entities attached.
type MentionStore interface {
	SelectMentionsByMeeting(ctx context.Context, meetingID int64) ([]*model.Mention, error)
}

// ConnectionStore writes and reads evidenced edges.
type ConnectionStore interface {
	UpsertConnection(ctx context.Context, connection *model.Connection) error
	PruneStaleConnections(ctx context.Context, meetingID int64) (int, error)
	SelectConnectionsForEntity(ctx context.Context, entityID int64, filter model.ConnectionFilter) ([]*model.ConnectionEdge, error)
	SelectEvidenceText(ctx context.Context, evidence model.EvidenceKey) (string, error)
	SelectNeighborIDs(ctx context.Context, entityID int64) ([]int64, error)
}

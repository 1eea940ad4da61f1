package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// Builder turns the mention ledger of a meeting into graph nodes and edges.
// Bind its stores to the transaction the mentions were written in.
type Builder struct {
	meetings    MeetingStore
	entities    EntityStore
	mentions    MentionStore
	connections ConnectionStore
	logger      *slog.Logger
}

// NewBuilder creates a graph builder.
func NewBuilder(meetings MeetingStore, entities EntityStore, mentions MentionStore, connections ConnectionStore, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		meetings:    meetings,
		entities:    entities,
		mentions:    mentions,
		connections: connections,
		logger:      logger,
	}
}

// MeetingNodeKey is the normalized value of a meeting's graph node.
func MeetingNodeKey(meetingID int64) string {
	return fmt.Sprintf("meeting:%d", meetingID)
}

// DocumentNodeKey is the normalized value of a document's graph node.
func DocumentNodeKey(meetingID int64, documentID int64) string {
	return fmt.Sprintf("document:%d:%d", meetingID, documentID)
}

// RelationFor picks the relation of a meeting edge to a mentioned entity.
func RelationFor(sourceType model.SourceType, target model.EntityType) model.RelationType {
	if sourceType == model.SourceTypeMeetingMetadata {
		if target == model.EntityTypeDate {
			return model.RelationOccursOn
		}
		if target.IsLocation() {
			return model.RelationOccursAt
		}
	}
	return model.RelationMentions
}

// RebuildGraphForMeeting upserts the meeting node, one node per document,
// contains_document edges and one edge per mention. Edges are keyed by their
// evidence so repeated rebuilds only refresh them. Stale edges are left alone.
// A meeting that does not exist yields zero counts.
func (b *Builder) RebuildGraphForMeeting(ctx context.Context, meetingID int64) (model.GraphCounts, error) {
	counts := model.GraphCounts{}

	meeting, err := b.meetings.SelectMeeting(ctx, meetingID)
	if errors.Is(err, sql.ErrNoRows) {
		b.logger.Debug("Meeting not found, nothing to rebuild", slog.Int64("meeting_id", meetingID))
		return counts, nil
	} else if err != nil {
		return counts, helper.NewError("select meeting", err)
	}

	meetingNode, err := b.node(ctx, model.EntityTypeMeeting, meetingLabel(meeting), MeetingNodeKey(meetingID), model.BindingTableMeetings, meetingID)
	if err != nil {
		return counts, err
	}
	counts.MeetingEntities = 1

	documents, err := b.meetings.SelectDocumentsByMeeting(ctx, meetingID)
	if err != nil {
		return counts, helper.NewError("select documents", err)
	}

	documentNodes := map[int64]int64{}
	for _, document := range documents {
		documentNode, err := b.node(ctx, model.EntityTypeDocument, documentLabel(document), DocumentNodeKey(meetingID, document.DocumentID), model.BindingTableDocuments, document.ID)
		if err != nil {
			return counts, err
		}
		documentNodes[document.DocumentID] = documentNode.ID
		counts.DocumentEntities++

		err = b.edge(ctx, &model.Connection{
			FromEntityID:       meetingNode.ID,
			ToEntityID:         documentNode.ID,
			RelationType:       model.RelationContainsDocument,
			MeetingID:          &meetingID,
			DocumentID:         &document.DocumentID,
			EvidenceSourceType: model.SourceTypeDocuments,
			EvidenceSourceID:   document.ID,
			Strength:           model.ConfidenceDirect,
		})
		if err != nil {
			return counts, err
		}
		counts.Connections++
	}

	mentions, err := b.mentions.SelectMentionsByMeeting(ctx, meetingID)
	if err != nil {
		return counts, helper.NewError("select mentions", err)
	}

	for _, mention := range mentions {
		if mention.Entity == nil {
			continue
		}

		err = b.edge(ctx, &model.Connection{
			FromEntityID:       meetingNode.ID,
			ToEntityID:         mention.EntityID,
			RelationType:       RelationFor(mention.SourceType, mention.Entity.Type),
			MeetingID:          &meetingID,
			DocumentID:         mention.DocumentID,
			EvidenceSourceType: mention.SourceType,
			EvidenceSourceID:   mention.SourceID,
			Strength:           mention.Confidence,
		})
		if err != nil {
			return counts, err
		}
		counts.Connections++

		if mention.DocumentID == nil {
			continue
		}
		documentNode, ok := documentNodes[*mention.DocumentID]
		if !ok {
			continue
		}

		err = b.edge(ctx, &model.Connection{
			FromEntityID:       documentNode,
			ToEntityID:         mention.EntityID,
			RelationType:       model.RelationMentions,
			MeetingID:          &meetingID,
			DocumentID:         mention.DocumentID,
			EvidenceSourceType: mention.SourceType,
			EvidenceSourceID:   mention.SourceID,
			Strength:           mention.Confidence,
		})
		if err != nil {
			return counts, err
		}
		counts.Connections++
	}

	b.logger.Debug(
		"Rebuilt meeting graph",
		slog.Int64("meeting_id", meetingID),
		slog.Int("document_entities", counts.DocumentEntities),
		slog.Int("connections", counts.Connections),
	)

	return counts, nil
}

// PruneStaleConnections deletes the meeting's edges whose evidence no longer exists.
func (b *Builder) PruneStaleConnections(ctx context.Context, meetingID int64) (int, error) {
	deleted, err := b.connections.PruneStaleConnections(ctx, meetingID)
	if err != nil {
		return 0, helper.NewError("prune connections", err)
	}
	if deleted > 0 {
		b.logger.Info("Pruned stale connections", slog.Int64("meeting_id", meetingID), slog.Int("deleted", deleted))
	}
	return deleted, nil
}

func (b *Builder) node(ctx context.Context, entityType model.EntityType, display string, normalized string, table string, sourceID int64) (*model.Entity, error) {
	entity, err := b.entities.UpsertEntity(ctx, entityType, display, normalized)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("upsert %s node", entityType), err)
	}

	binding, err := b.entities.UpsertBinding(ctx, entity.ID, table, sourceID)
	if err != nil {
		return nil, helper.NewError("upsert binding", err)
	}
	if binding.EntityID != entity.ID {
		b.logger.Warn(
			"Source row is bound to another entity",
			slog.String("source_table", table),
			slog.Int64("source_id", sourceID),
			slog.Int64("bound_entity_id", binding.EntityID),
			slog.Int64("entity_id", entity.ID),
		)
	}

	return entity, nil
}

func (b *Builder) edge(ctx context.Context, connection *model.Connection) error {
	err := b.connections.UpsertConnection(ctx, connection)
	if err != nil {
		return helper.NewError("upsert connection", err)
	}
	return nil
}

func meetingLabel(meeting *model.Meeting) string {
	label := meeting.Name
	if len(label) == 0 {
		label = fmt.Sprintf("Meeting %d", meeting.MeetingID)
	}
	if meeting.MeetingDate != nil {
		label = fmt.Sprintf("%s (%s)", label, meeting.MeetingDate.Format("2006-01-02"))
	}
	return label
}

func documentLabel(document *model.Document) string {
	if len(document.Title) > 0 {
		return document.Title
	}
	return fmt.Sprintf("Document %d", document.DocumentID)
}

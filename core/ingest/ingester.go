package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/siherrmann/civicgraph/core/extract"
	"github.com/siherrmann/civicgraph/core/graph"
	"github.com/siherrmann/civicgraph/core/ledger"
	"github.com/siherrmann/civicgraph/core/topics"
	"github.com/siherrmann/civicgraph/database"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// Ingester writes one meeting payload per transaction: collaborator rows,
// mentions for every source, entity details and the meeting graph.
type Ingester struct {
	db          *helper.Database
	meetings    *database.MeetingsDBHandler
	entities    *database.EntitiesDBHandler
	mentions    *database.MentionsDBHandler
	connections *database.ConnectionsDBHandler
	extractors  *extract.Set
	classifier  *topics.Classifier
	metrics     *Metrics
	logger      *slog.Logger
}

// NewIngester creates an ingester. Nil extractors, classifier or logger fall
// back to the defaults, nil metrics record nothing.
func NewIngester(
	db *helper.Database,
	meetings *database.MeetingsDBHandler,
	entities *database.EntitiesDBHandler,
	mentions *database.MentionsDBHandler,
	connections *database.ConnectionsDBHandler,
	extractors *extract.Set,
	classifier *topics.Classifier,
	metrics *Metrics,
	logger *slog.Logger,
) *Ingester {
	if extractors == nil {
		extractors = extract.DefaultSet()
	}
	if classifier == nil {
		classifier = topics.DefaultClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Ingester{
		db:          db,
		meetings:    meetings,
		entities:    entities,
		mentions:    mentions,
		connections: connections,
		extractors:  extractors,
		classifier:  classifier,
		metrics:     metrics,
		logger:      logger,
	}
}

// txHandlers are the handlers bound to one ingestion transaction.
type txHandlers struct {
	meetings    *database.MeetingsDBHandler
	entities    *database.EntitiesDBHandler
	mentions    *database.MentionsDBHandler
	connections *database.ConnectionsDBHandler
}

func (i *Ingester) bind(tx *sql.Tx) *txHandlers {
	return &txHandlers{
		meetings:    i.meetings.WithTx(tx),
		entities:    i.entities.WithTx(tx),
		mentions:    i.mentions.WithTx(tx),
		connections: i.connections.WithTx(tx),
	}
}

// IngestMeeting stores payload and rebuilds its meeting graph atomically.
// Concurrent calls for the same meeting are serialized by an advisory lock.
func (i *Ingester) IngestMeeting(ctx context.Context, payload *model.MeetingPayload) (*model.IngestResult, error) {
	if payload == nil || payload.Meeting.MeetingID <= 0 {
		return nil, helper.NewError("validate payload", fmt.Errorf("payload needs a positive meeting id"))
	}

	start := time.Now()
	meetingID := payload.Meeting.MeetingID
	result := &model.IngestResult{MeetingID: meetingID}

	err := i.db.RunInTx(ctx, func(tx *sql.Tx) error {
		h := i.bind(tx)

		err := h.meetings.LockMeeting(ctx, meetingID)
		if err != nil {
			return helper.NewError("lock meeting", err)
		}

		err = i.storeRows(ctx, h, payload, result)
		if err != nil {
			return err
		}

		touched, err := i.replaceMentions(ctx, h, payload, result)
		if err != nil {
			return err
		}

		err = ledger.BackfillDetails(ctx, h.entities, touched)
		if err != nil {
			return helper.NewError("backfill details", err)
		}

		builder := graph.NewBuilder(h.meetings, h.entities, h.mentions, h.connections, i.logger)
		result.Graph, err = builder.RebuildGraphForMeeting(ctx, meetingID)
		if err != nil {
			return helper.NewError("rebuild graph", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	i.metrics.RecordIngest(result)

	i.logger.Info(
		"Ingested meeting",
		slog.Int64("meeting_id", meetingID),
		slog.Int("agenda_items", result.AgendaItems),
		slog.Int("documents", result.Documents),
		slog.Int("mentions", result.Mentions),
		slog.Int("connections", result.Graph.Connections),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// storeRows upserts the meeting, its agenda items with topics, its documents
// with extracted text and the minutes summary.
func (i *Ingester) storeRows(ctx context.Context, h *txHandlers, payload *model.MeetingPayload, result *model.IngestResult) error {
	meetingID := payload.Meeting.MeetingID

	err := h.meetings.UpsertMeeting(ctx, &payload.Meeting)
	if err != nil {
		return helper.NewError("upsert meeting", err)
	}

	itemIDs := map[string]int64{}
	for idx := range payload.AgendaItems {
		item := &payload.AgendaItems[idx]
		item.MeetingID = meetingID
		item.Topics = i.classifier.Classify(item.Title, "")

		err = h.meetings.UpsertAgendaItem(ctx, item)
		if err != nil {
			return helper.NewError("upsert agenda item", err)
		}
		itemIDs[item.ItemKey] = item.ID

		if slices.Contains(item.Topics, model.TopicZoning) {
			signal := topics.ExtractZoningSignals(item.Title, "")
			if !signal.Empty() {
				if result.ZoningSignals == nil {
					result.ZoningSignals = map[string]model.ZoningSignal{}
				}
				result.ZoningSignals[item.ItemKey] = signal
			}
		}
	}
	result.AgendaItems = len(payload.AgendaItems)

	for idx := range payload.Documents {
		document := &payload.Documents[idx]
		document.MeetingID = meetingID
		if id, ok := itemIDs[document.AgendaItemKey]; ok {
			document.AgendaItemID = &id
		}

		err = h.meetings.UpsertDocument(ctx, document)
		if err != nil {
			return helper.NewError("upsert document", err)
		}

		if len(document.TextStatus) > 0 {
			_, err = h.meetings.UpsertDocumentText(ctx, document.ID, document.TextStatus, document.Content)
			if err != nil {
				return helper.NewError("upsert document text", err)
			}
		}
		if len(document.TextStatus) > 0 && document.TextStatus != model.TextStatusOK {
			result.DocumentErrors = append(result.DocumentErrors, fmt.Sprintf("%d: %s", document.DocumentID, document.TextStatus))
			i.logger.Warn("Document text unavailable", slog.Int64("meeting_id", meetingID), slog.Int64("document_id", document.DocumentID), slog.String("status", string(document.TextStatus)))
		}
	}
	result.Documents = len(payload.Documents)

	if payload.Minutes != nil {
		payload.Minutes.MeetingID = meetingID
		err = h.meetings.UpsertMinutesMetadata(ctx, payload.Minutes)
		if err != nil {
			return helper.NewError("upsert minutes", err)
		}
	}

	return nil
}

// source is one text span whose mentions are replaced as a unit.
type source struct {
	provenance model.Provenance
	text       string
}

func sourcesOf(payload *model.MeetingPayload) []source {
	meetingID := payload.Meeting.MeetingID
	sources := []source{{
		provenance: model.NewProvenance(meetingID, model.SourceTypeMeetingMetadata, meetingID),
		text:       payload.Meeting.MetadataText(),
	}}

	for _, item := range payload.AgendaItems {
		sources = append(sources, source{
			provenance: model.NewProvenance(meetingID, model.SourceTypeAgendaItemTitle, item.ID).WithAgendaItem(item.ID),
			text:       item.Title,
		})
	}

	for _, document := range payload.Documents {
		title := model.NewProvenance(meetingID, model.SourceTypeDocumentTitle, document.ID).WithDocument(document.DocumentID)
		content := model.NewProvenance(meetingID, model.SourceTypeDocumentContent, document.ID).WithDocument(document.DocumentID)
		if document.AgendaItemID != nil {
			title = title.WithAgendaItem(*document.AgendaItemID)
			content = content.WithAgendaItem(*document.AgendaItemID)
		}

		sources = append(sources, source{provenance: title, text: document.Title})
		if len(document.Content) > 0 {
			sources = append(sources, source{provenance: content, text: document.Content})
		}
	}

	if payload.Minutes != nil {
		minutes := model.NewProvenance(meetingID, model.SourceTypeMinutesExcerpt, meetingID)
		if payload.Minutes.DocumentID != nil {
			minutes = minutes.WithDocument(*payload.Minutes.DocumentID)
		}
		sources = append(sources, source{provenance: minutes, text: payload.Minutes.ExcerptText()})
	}

	return sources
}

// replaceMentions extracts every source of the payload and replaces its
// mentions. It returns the entities matched directly.
func (i *Ingester) replaceMentions(ctx context.Context, h *txHandlers, payload *model.MeetingPayload, result *model.IngestResult) ([]*model.Entity, error) {
	l := ledger.NewLedger(h.entities, h.mentions)

	seen := map[int64]bool{}
	touched := []*model.Entity{}
	for _, s := range sourcesOf(payload) {
		mentions, err := l.ReplaceMentionsForSource(ctx, s.provenance, s.text, i.extractors.Extract(s.text))
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("replace mentions for %s", s.provenance.Evidence()), err)
		}
		result.Sources++

		for _, mention := range mentions {
			result.Mentions++
			if mention.Confidence < model.ConfidenceDirect {
				result.AliasMentions++
			}
			if mention.Entity != nil && !seen[mention.Entity.ID] {
				seen[mention.Entity.ID] = true
				touched = append(touched, mention.Entity)
			}
		}
	}

	return touched, nil
}

// RebuildGraph rebuilds one meeting graph in its own locked transaction and
// prunes stale edges when prune is set. It satisfies graph.RebuildFunc.
func (i *Ingester) RebuildGraph(ctx context.Context, meetingID int64, prune bool) (model.GraphCounts, int, error) {
	var counts model.GraphCounts
	var pruned int

	err := i.db.RunInTx(ctx, func(tx *sql.Tx) error {
		h := i.bind(tx)

		err := h.meetings.LockMeeting(ctx, meetingID)
		if err != nil {
			return helper.NewError("lock meeting", err)
		}

		builder := graph.NewBuilder(h.meetings, h.entities, h.mentions, h.connections, i.logger)
		counts, err = builder.RebuildGraphForMeeting(ctx, meetingID)
		if err != nil {
			return helper.NewError("rebuild graph", err)
		}

		if prune {
			pruned, err = builder.PruneStaleConnections(ctx, meetingID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.GraphCounts{}, 0, err
	}

	return counts, pruned, nil
}

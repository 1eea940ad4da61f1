package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	loadSql "github.com/siherrmann/civicgraph/sql"
)

// MentionsDBHandlerFunctions defines the interface for mention ledger operations.
type MentionsDBHandlerFunctions interface {
	DeleteMentionsForSource(ctx context.Context, sourceType model.SourceType, sourceID int64) (int, error)
	InsertMention(ctx context.Context, mention *model.Mention) error
	SelectMentionsForSource(ctx context.Context, sourceType model.SourceType, sourceID int64) ([]*model.Mention, error)
	SelectMentionsByMeeting(ctx context.Context, meetingID int64) ([]*model.Mention, error)
	SelectMentionsByEntity(ctx context.Context, entityID int64, limit int) ([]*model.Mention, error)
	CountMentionsByEntity(ctx context.Context, entityID int64) (int, error)
}

// MentionsDBHandler handles the entity_mentions ledger.
type MentionsDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

var _ MentionsDBHandlerFunctions = (*MentionsDBHandler)(nil)

// NewMentionsDBHandler creates a new mentions database handler.
// The entities table must exist before.
func NewMentionsDBHandler(db *helper.Database, force bool) (*MentionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	mentionsDbHandler := &MentionsDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadMentionsSql(mentionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load mentions sql", err)
	}

	err = mentionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MentionsDBHandler")

	return mentionsDbHandler, nil
}

// CreateTable creates the 'entity_mentions' table in the database.
func (h *MentionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_mentions();`)
	if err != nil {
		log.Panicf("error initializing entity_mentions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entity_mentions")

	return nil
}

// WithTx returns a handler bound to tx.
func (h *MentionsDBHandler) WithTx(tx *sql.Tx) *MentionsDBHandler {
	return &MentionsDBHandler{db: h.db, q: tx}
}

// DeleteMentionsForSource removes every mention of one evidence source and
// returns how many were deleted.
func (h *MentionsDBHandler) DeleteMentionsForSource(ctx context.Context, sourceType model.SourceType, sourceID int64) (int, error) {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_mentions_for_source($1, $2)`, sourceType, sourceID).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}

// InsertMention inserts a mention. Repeated evidence updates the existing row.
func (h *MentionsDBHandler) InsertMention(ctx context.Context, mention *model.Mention) error {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM insert_mention($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		mention.EntityID,
		mention.MeetingID,
		nullInt64(mention.AgendaItemID),
		nullInt64(mention.DocumentID),
		mention.SourceType,
		mention.SourceID,
		mention.MentionText,
		mention.ContextText,
		mention.Confidence,
	)

	entity := mention.Entity
	scanned, err := scanMention(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	scanned.Entity = entity
	*mention = *scanned

	return nil
}

// SelectMentionsForSource lists the mentions of one evidence source.
func (h *MentionsDBHandler) SelectMentionsForSource(ctx context.Context, sourceType model.SourceType, sourceID int64) ([]*model.Mention, error) {
	return h.selectMentions(ctx, `SELECT * FROM select_mentions_for_source($1, $2)`, sourceType, sourceID)
}

// SelectMentionsByEntity lists the mentions of an entity, newest meeting first.
func (h *MentionsDBHandler) SelectMentionsByEntity(ctx context.Context, entityID int64, limit int) ([]*model.Mention, error) {
	return h.selectMentions(ctx, `SELECT * FROM select_mentions_by_entity($1, $2)`, entityID, nullLimit(limit))
}

// SelectMentionsByMeeting lists all mentions of a meeting with their entities.
func (h *MentionsDBHandler) SelectMentionsByMeeting(ctx context.Context, meetingID int64) ([]*model.Mention, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_mentions_by_meeting($1)`, meetingID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var mentions []*model.Mention
	for rows.Next() {
		entity := &model.Entity{}
		mention, err := scanMention(
			rows,
			&entity.RID,
			&entity.Type,
			&entity.DisplayValue,
			&entity.NormalizedValue,
			&entity.CreatedAt,
			&entity.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		entity.ID = mention.EntityID
		mention.Entity = entity
		mentions = append(mentions, mention)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mentions, nil
}

// CountMentionsByEntity counts all mentions of an entity.
func (h *MentionsDBHandler) CountMentionsByEntity(ctx context.Context, entityID int64) (int, error) {
	var count int
	err := h.q.QueryRowContext(ctx, `SELECT count_mentions_by_entity($1)`, entityID).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

func (h *MentionsDBHandler) selectMentions(ctx context.Context, query string, args ...interface{}) ([]*model.Mention, error) {
	rows, err := h.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var mentions []*model.Mention
	for rows.Next() {
		mention, err := scanMention(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		mentions = append(mentions, mention)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mentions, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	loadSql "github.com/siherrmann/civicgraph/sql"
)

// MeetingsDBHandlerFunctions defines the interface for meeting, agenda item and document operations.
type MeetingsDBHandlerFunctions interface {
	LockMeeting(ctx context.Context, meetingID int64) error
	UpsertMeeting(ctx context.Context, meeting *model.Meeting) error
	SelectMeeting(ctx context.Context, meetingID int64) (*model.Meeting, error)
	SelectMeetingIDs(ctx context.Context, limit int, meetingID *int64) ([]int64, error)
	UpsertAgendaItem(ctx context.Context, item *model.AgendaItem) error
	SelectAgendaItemsByMeeting(ctx context.Context, meetingID int64) ([]*model.AgendaItem, error)
	UpsertDocument(ctx context.Context, document *model.Document) error
	SelectDocumentsByMeeting(ctx context.Context, meetingID int64) ([]*model.Document, error)
	UpsertDocumentText(ctx context.Context, documentPK int64, status model.DocumentTextStatus, content string) (*model.DocumentText, error)
	UpsertMinutesMetadata(ctx context.Context, minutes *model.MinutesMetadata) error
	SelectMinutesMetadata(ctx context.Context, meetingID int64) (*model.MinutesMetadata, error)
}

// MeetingsDBHandler handles the collaborator rows evidence text is resolved from.
type MeetingsDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

var _ MeetingsDBHandlerFunctions = (*MeetingsDBHandler)(nil)

// NewMeetingsDBHandler creates a new meetings database handler.
// It loads the meeting SQL functions and creates the tables.
// If force is true, it will reload the SQL functions even if they already exist.
func NewMeetingsDBHandler(db *helper.Database, force bool) (*MeetingsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	meetingsDbHandler := &MeetingsDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadMeetingsSql(meetingsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load meetings sql", err)
	}

	err = meetingsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MeetingsDBHandler")

	return meetingsDbHandler, nil
}

// CreateTable creates the meetings, agenda_items, documents, document_texts
// and meeting_minutes_metadata tables if they do not exist.
func (h *MeetingsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_meetings();`)
	if err != nil {
		log.Panicf("error initializing meetings tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created table meetings")

	return nil
}

// WithTx returns a handler bound to tx.
func (h *MeetingsDBHandler) WithTx(tx *sql.Tx) *MeetingsDBHandler {
	return &MeetingsDBHandler{db: h.db, q: tx}
}

// LockMeeting takes a transaction scoped advisory lock on the meeting id.
// Only meaningful on a handler bound to a transaction.
func (h *MeetingsDBHandler) LockMeeting(ctx context.Context, meetingID int64) error {
	_, err := h.q.ExecContext(ctx, `SELECT lock_meeting($1)`, meetingID)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// UpsertMeeting inserts or updates a meeting keyed by its portal id.
func (h *MeetingsDBHandler) UpsertMeeting(ctx context.Context, meeting *model.Meeting) error {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_meeting($1, $2, $3, $4, $5, $6, $7, $8)`,
		meeting.MeetingID,
		meeting.Name,
		meeting.TypeName,
		nullDate(meeting.MeetingDate),
		meeting.MeetingTime,
		meeting.Location,
		meeting.VideoURL,
		meeting.Raw,
	)

	scanned, err := scanMeeting(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*meeting = *scanned

	return nil
}

// SelectMeeting retrieves a meeting by its portal id.
func (h *MeetingsDBHandler) SelectMeeting(ctx context.Context, meetingID int64) (*model.Meeting, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_meeting($1)`, meetingID)

	meeting, err := scanMeeting(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return meeting, nil
}

// SelectMeetingIDs lists meeting ids newest first. A non-positive limit means all,
// a non-nil meetingID restricts the result to that meeting.
func (h *MeetingsDBHandler) SelectMeetingIDs(ctx context.Context, limit int, meetingID *int64) ([]int64, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_meeting_ids($1, $2)`, nullLimit(limit), nullInt64(meetingID))
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		err := rows.Scan(&id)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// UpsertAgendaItem inserts or updates an agenda item keyed by (meeting_id, item_key).
func (h *MeetingsDBHandler) UpsertAgendaItem(ctx context.Context, item *model.AgendaItem) error {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_agenda_item($1, $2, $3, $4, $5, $6)`,
		item.MeetingID,
		item.ItemKey,
		item.Section,
		item.Title,
		item.Position,
		pq.Array(topicStrings(item.Topics)),
	)

	scanned, err := scanAgendaItem(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*item = *scanned

	return nil
}

// SelectAgendaItemsByMeeting lists the agenda items of a meeting in agenda order.
func (h *MeetingsDBHandler) SelectAgendaItemsByMeeting(ctx context.Context, meetingID int64) ([]*model.AgendaItem, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_agenda_items_by_meeting($1)`, meetingID)
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

// UpsertDocument inserts or updates a document keyed by (meeting_id, document_id).
// Transient fields of document are kept.
func (h *MeetingsDBHandler) UpsertDocument(ctx context.Context, document *model.Document) error {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_document($1, $2, $3, $4, $5, $6, $7)`,
		document.MeetingID,
		document.DocumentID,
		nullInt64(document.AgendaItemID),
		document.Title,
		document.URL,
		document.Handle,
		document.IsMinutes,
	)

	scanned, err := scanDocument(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	scanned.AgendaItemKey = document.AgendaItemKey
	scanned.Content = document.Content
	scanned.TextStatus = document.TextStatus
	*document = *scanned

	return nil
}

// SelectDocumentsByMeeting lists the documents attached to a meeting.
func (h *MeetingsDBHandler) SelectDocumentsByMeeting(ctx context.Context, meetingID int64) ([]*model.Document, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_documents_by_meeting($1)`, meetingID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		documents = append(documents, document)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// UpsertDocumentText stores the extracted text and status of a document row.
func (h *MeetingsDBHandler) UpsertDocumentText(ctx context.Context, documentPK int64, status model.DocumentTextStatus, content string) (*model.DocumentText, error) {
	text := &model.DocumentText{}
	row := h.q.QueryRowContext(ctx, `SELECT * FROM upsert_document_text($1, $2, $3)`, documentPK, status, content)

	err := row.Scan(
		&text.DocumentPK,
		&text.Status,
		&text.Content,
		&text.CharCount,
		&text.ExtractedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return text, nil
}

// UpsertMinutesMetadata stores the minutes summary of a meeting.
func (h *MeetingsDBHandler) UpsertMinutesMetadata(ctx context.Context, minutes *model.MinutesMetadata) error {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_minutes_metadata($1, $2, $3, $4, $5, $6)`,
		minutes.MeetingID,
		nullInt64(minutes.DocumentID),
		minutes.Title,
		minutes.Excerpt,
		nullDate(minutes.DetectedDate),
		minutes.Status,
	)

	scanned, err := scanMinutes(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*minutes = *scanned

	return nil
}

// SelectMinutesMetadata retrieves the minutes summary of a meeting.
func (h *MeetingsDBHandler) SelectMinutesMetadata(ctx context.Context, meetingID int64) (*model.MinutesMetadata, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_minutes_metadata($1)`, meetingID)

	minutes, err := scanMinutes(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return minutes, nil
}

func scanMeeting(row rowScanner) (*model.Meeting, error) {
	meeting := &model.Meeting{}
	var meetingDate sql.NullTime
	err := row.Scan(
		&meeting.ID,
		&meeting.MeetingID,
		&meeting.Name,
		&meeting.TypeName,
		&meetingDate,
		&meeting.MeetingTime,
		&meeting.Location,
		&meeting.VideoURL,
		&meeting.Raw,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	meeting.MeetingDate = timePtr(meetingDate)
	return meeting, nil
}

func scanAgendaItem(row rowScanner) (*model.AgendaItem, error) {
	item := &model.AgendaItem{}
	var topics []string
	err := row.Scan(
		&item.ID,
		&item.MeetingID,
		&item.ItemKey,
		&item.Section,
		&item.Title,
		&item.Position,
		pq.Array(&topics),
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Topics = make([]model.Topic, 0, len(topics))
	for _, t := range topics {
		item.Topics = append(item.Topics, model.Topic(t))
	}
	return item, nil
}

func scanMinutes(row rowScanner) (*model.MinutesMetadata, error) {
	minutes := &model.MinutesMetadata{}
	var documentID sql.NullInt64
	var detectedDate sql.NullTime
	err := row.Scan(
		&minutes.MeetingID,
		&documentID,
		&minutes.Title,
		&minutes.Excerpt,
		&detectedDate,
		&minutes.Status,
		&minutes.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	minutes.DocumentID = int64Ptr(documentID)
	minutes.DetectedDate = timePtr(detectedDate)
	return minutes, nil
}

func topicStrings(topics []model.Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, string(t))
	}
	return out
}

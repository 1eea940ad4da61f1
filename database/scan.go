package database

import (
	"database/sql"
	"time"

	"github.com/siherrmann/civicgraph/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner, extra ...interface{}) (*model.Entity, error) {
	entity := &model.Entity{}
	dest := []interface{}{
		&entity.ID,
		&entity.RID,
		&entity.Type,
		&entity.DisplayValue,
		&entity.NormalizedValue,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func scanMention(row rowScanner, extra ...interface{}) (*model.Mention, error) {
	mention := &model.Mention{}
	var agendaItemID, documentID sql.NullInt64
	dest := []interface{}{
		&mention.ID,
		&mention.EntityID,
		&mention.MeetingID,
		&agendaItemID,
		&documentID,
		&mention.SourceType,
		&mention.SourceID,
		&mention.MentionText,
		&mention.ContextText,
		&mention.Confidence,
		&mention.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}
	mention.AgendaItemID = int64Ptr(agendaItemID)
	mention.DocumentID = int64Ptr(documentID)
	return mention, nil
}

func scanConnection(row rowScanner, extra ...interface{}) (*model.Connection, error) {
	connection := &model.Connection{}
	var meetingID, documentID sql.NullInt64
	dest := []interface{}{
		&connection.ID,
		&connection.FromEntityID,
		&connection.ToEntityID,
		&connection.RelationType,
		&meetingID,
		&documentID,
		&connection.EvidenceSourceType,
		&connection.EvidenceSourceID,
		&connection.Strength,
		&connection.EvidenceCount,
		&connection.FirstSeenAt,
		&connection.LastSeenAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}
	connection.MeetingID = int64Ptr(meetingID)
	connection.DocumentID = int64Ptr(documentID)
	return connection, nil
}

func scanAlias(row rowScanner) (*model.EntityAlias, error) {
	alias := &model.EntityAlias{}
	err := row.Scan(
		&alias.ID,
		&alias.EntityID,
		&alias.AliasText,
		&alias.NormalizedAlias,
		&alias.Source,
		&alias.Confidence,
		&alias.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return alias, nil
}

func scanBinding(row rowScanner) (*model.EntityBinding, error) {
	binding := &model.EntityBinding{}
	err := row.Scan(
		&binding.ID,
		&binding.EntityID,
		&binding.SourceTable,
		&binding.SourceID,
		&binding.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return binding, nil
}

func scanDocument(row rowScanner, extra ...interface{}) (*model.Document, error) {
	document := &model.Document{}
	var agendaItemID sql.NullInt64
	dest := []interface{}{
		&document.ID,
		&document.MeetingID,
		&document.DocumentID,
		&agendaItemID,
		&document.Title,
		&document.URL,
		&document.Handle,
		&document.IsMinutes,
		&document.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}
	document.AgendaItemID = int64Ptr(agendaItemID)
	return document, nil
}

func nullString(s string) interface{} {
	if len(s) == 0 {
		return nil
	}
	return s
}

func nullInt64(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullDate(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

// nullLimit maps a non-positive limit to NULL, which the SQL functions read as "no limit".
func nullLimit(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

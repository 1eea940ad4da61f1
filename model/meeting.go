package model

import (
	"strings"
	"time"
)

// DocumentTextStatus reports how document text extraction went.
type DocumentTextStatus string

const (
	TextStatusOK                 DocumentTextStatus = "ok"
	TextStatusMissingURL         DocumentTextStatus = "missing_url"
	TextStatusDownloadFailed     DocumentTextStatus = "download_failed"
	TextStatusUnsupportedContent DocumentTextStatus = "unsupported_content"
	TextStatusHTMLParseEmpty     DocumentTextStatus = "html_parse_empty"
	TextStatusPDFParseFailed     DocumentTextStatus = "pdf_parse_failed"
	TextStatusNotMinutes         DocumentTextStatus = "not_minutes"
)

// Meeting is a portal meeting row. MeetingID is the portal's own id.
type Meeting struct {
	ID          int64      `json:"id"`
	MeetingID   int64      `json:"meeting_id"`
	Name        string     `json:"meeting_name"`
	TypeName    string     `json:"meeting_type_name,omitempty"`
	MeetingDate *time.Time `json:"meeting_date,omitempty"`
	MeetingTime string     `json:"meeting_time,omitempty"`
	Location    string     `json:"meeting_location,omitempty"`
	VideoURL    string     `json:"video_url,omitempty"`
	Raw         Metadata   `json:"raw,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MetadataText is the text extracted as meeting_metadata: name, location and time.
func (m *Meeting) MetadataText() string {
	parts := []string{}
	for _, p := range []string{m.Name, m.Location, m.MeetingTime} {
		if len(strings.TrimSpace(p)) > 0 {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// AgendaItem is one numbered line of a meeting agenda.
type AgendaItem struct {
	ID        int64     `json:"id"`
	MeetingID int64     `json:"meeting_id"`
	ItemKey   string    `json:"item_key"`
	Section   string    `json:"section,omitempty"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Topics    []Topic   `json:"topics"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is a file attached to a meeting. DocumentID is the portal's id.
type Document struct {
	ID           int64     `json:"id"`
	MeetingID    int64     `json:"meeting_id"`
	DocumentID   int64     `json:"document_id"`
	AgendaItemID *int64    `json:"agenda_item_id,omitempty"`
	Title        string    `json:"title"`
	URL          string    `json:"url,omitempty"`
	Handle       string    `json:"handle,omitempty"`
	IsMinutes    bool      `json:"is_minutes"`
	CreatedAt    time.Time `json:"created_at"`
	// Transient fields filled by the portal collaborator, not stored on this row.
	AgendaItemKey string             `json:"agenda_item_key,omitempty"`
	Content       string             `json:"-"`
	TextStatus    DocumentTextStatus `json:"text_status,omitempty"`
}

// MinutesMetadata summarizes the minutes document of a meeting.
type MinutesMetadata struct {
	MeetingID    int64              `json:"meeting_id"`
	DocumentID   *int64             `json:"document_id,omitempty"`
	Title        string             `json:"title"`
	Excerpt      string             `json:"excerpt"`
	DetectedDate *time.Time         `json:"detected_date,omitempty"`
	Status       DocumentTextStatus `json:"status"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ExcerptText is the text extracted as minutes_excerpt.
func (m *MinutesMetadata) ExcerptText() string {
	title, excerpt := strings.TrimSpace(m.Title), strings.TrimSpace(m.Excerpt)
	if len(title) == 0 || len(excerpt) == 0 {
		return title + excerpt
	}
	return title + ": " + excerpt
}

// DocumentText is the extracted body of a document.
type DocumentText struct {
	DocumentPK  int64              `json:"document_pk"`
	Status      DocumentTextStatus `json:"status"`
	Content     string             `json:"content"`
	CharCount   int                `json:"char_count"`
	ExtractedAt time.Time          `json:"extracted_at"`
}

// MeetingPayload is everything the ingestion orchestrator needs for one meeting.
type MeetingPayload struct {
	Meeting     Meeting          `json:"meeting"`
	AgendaItems []AgendaItem     `json:"agenda_items"`
	Documents   []Document       `json:"documents"`
	Minutes     *MinutesMetadata `json:"minutes,omitempty"`
}

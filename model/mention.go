package model

import (
	"fmt"
	"time"
)

// SourceType identifies the kind of text a mention or edge was taken from.
type SourceType string

const (
	SourceTypeMeetingMetadata SourceType = "meeting_metadata"
	SourceTypeAgendaItemTitle SourceType = "agenda_item_title"
	SourceTypeDocumentTitle   SourceType = "document_title"
	SourceTypeDocumentContent SourceType = "document_content"
	SourceTypeMinutesExcerpt  SourceType = "minutes_excerpt"
	// SourceTypeDocuments is only used as evidence for contains_document edges.
	SourceTypeDocuments SourceType = "documents"
)

// MentionSourceTypes lists the source types that carry mentions.
var MentionSourceTypes = []SourceType{
	SourceTypeMeetingMetadata,
	SourceTypeAgendaItemTitle,
	SourceTypeDocumentTitle,
	SourceTypeDocumentContent,
	SourceTypeMinutesExcerpt,
}

func (s SourceType) Valid() bool {
	if s == SourceTypeDocuments {
		return true
	}
	for _, known := range MentionSourceTypes {
		if s == known {
			return true
		}
	}
	return false
}

const (
	// ConfidenceDirect is used for mentions found by a pattern extractor.
	ConfidenceDirect = 1.0
	// ConfidenceAlias is used for mentions found by the alias snowball pass.
	ConfidenceAlias = 0.7
	// MaxContextLength caps stored context text, in characters.
	MaxContextLength = 2000
)

// Provenance is the immutable evidence context of one extraction call.
type Provenance struct {
	MeetingID    int64      `json:"meeting_id"`
	SourceType   SourceType `json:"source_type"`
	SourceID     int64      `json:"source_id"`
	AgendaItemID *int64     `json:"agenda_item_id,omitempty"`
	DocumentID   *int64     `json:"document_id,omitempty"`
}

// NewProvenance creates a provenance without agenda item or document.
func NewProvenance(meetingID int64, sourceType SourceType, sourceID int64) Provenance {
	return Provenance{MeetingID: meetingID, SourceType: sourceType, SourceID: sourceID}
}

// WithAgendaItem returns a copy of p carrying the agenda item id.
func (p Provenance) WithAgendaItem(agendaItemID int64) Provenance {
	p.AgendaItemID = &agendaItemID
	return p
}

// WithDocument returns a copy of p carrying the portal document id.
func (p Provenance) WithDocument(documentID int64) Provenance {
	p.DocumentID = &documentID
	return p
}

// Evidence returns the (source_type, source_id) tuple of p.
func (p Provenance) Evidence() EvidenceKey {
	return EvidenceKey{SourceType: p.SourceType, SourceID: p.SourceID}
}

// Validate checks that p identifies a mention source.
func (p Provenance) Validate() error {
	if p.MeetingID <= 0 {
		return fmt.Errorf("invalid meeting id %d", p.MeetingID)
	}
	if !p.SourceType.Valid() || p.SourceType == SourceTypeDocuments {
		return fmt.Errorf("invalid mention source type %q", p.SourceType)
	}
	return nil
}

// EvidenceKey identifies exactly which text justified a mention or edge.
type EvidenceKey struct {
	SourceType SourceType `json:"source_type"`
	SourceID   int64      `json:"source_id"`
}

func (k EvidenceKey) String() string {
	return fmt.Sprintf("%s:%d", k.SourceType, k.SourceID)
}

// Candidate is one fact found by an extractor, not yet resolved to an entity.
type Candidate struct {
	Type            EntityType `json:"entity_type"`
	MentionText     string     `json:"mention_text"`
	DisplayValue    string     `json:"display_value"`
	NormalizedValue string     `json:"normalized_value"`
}

// Key is the dedup key of a candidate within one extraction call.
func (c Candidate) Key() string {
	return string(c.Type) + "\x00" + c.NormalizedValue
}

// Mention is one occurrence of an entity in one source span.
type Mention struct {
	ID           int64      `json:"id"`
	EntityID     int64      `json:"entity_id"`
	MeetingID    int64      `json:"meeting_id"`
	AgendaItemID *int64     `json:"agenda_item_id,omitempty"`
	DocumentID   *int64     `json:"document_id,omitempty"`
	SourceType   SourceType `json:"source_type"`
	SourceID     int64      `json:"source_id"`
	MentionText  string     `json:"mention_text"`
	ContextText  string     `json:"context_text"`
	Confidence   float64    `json:"confidence"`
	CreatedAt    time.Time  `json:"created_at"`
	Entity       *Entity    `json:"entity,omitempty"`
}

// MentionKey identifies an (entity, mention text) pair inside one source.
type MentionKey struct {
	EntityID int64
	Text     string
}

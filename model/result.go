package model

import "time"

// GraphCounts is returned by a per-meeting graph rebuild.
type GraphCounts struct {
	MeetingEntities  int `json:"meeting_entities"`
	DocumentEntities int `json:"document_entities"`
	Connections      int `json:"connections"`
}

// BackfillCounts aggregates rebuilds over many meetings.
type BackfillCounts struct {
	ProcessedMeetings    int `json:"processed_meetings"`
	DocumentEntitiesSeen int `json:"document_entities_seen"`
	ConnectionsWritten   int `json:"connections_written"`
	ConnectionsPruned    int `json:"connections_pruned,omitempty"`
	FailedMeetings       int `json:"failed_meetings,omitempty"`
}

// Add accumulates a single meeting rebuild.
func (b *BackfillCounts) Add(c GraphCounts) {
	b.ProcessedMeetings++
	b.DocumentEntitiesSeen += c.DocumentEntities
	b.ConnectionsWritten += c.Connections
}

// IngestResult describes one ingested meeting.
type IngestResult struct {
	MeetingID      int64         `json:"meeting_id"`
	AgendaItems    int           `json:"agenda_items"`
	Documents      int           `json:"documents"`
	Sources        int           `json:"sources"`
	Mentions       int           `json:"mentions"`
	AliasMentions  int           `json:"alias_mentions"`
	Graph          GraphCounts   `json:"graph"`
	Duration       time.Duration `json:"duration"`
	DocumentErrors []string      `json:"document_errors,omitempty"`
	// ZoningSignals is keyed by agenda item key.
	ZoningSignals map[string]ZoningSignal `json:"zoning_signals,omitempty"`
}

// RangeResult describes a completed range ingestion.
type RangeResult struct {
	Discovered int              `json:"discovered"`
	Processed  int              `json:"processed"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	FromCache  bool             `json:"from_cache"`
	MeetingIDs []int64          `json:"meeting_ids"`
	Errors     map[int64]string `json:"errors,omitempty"`
}

// SuggestResult is one ranked autocomplete candidate.
type SuggestResult struct {
	Entity *Entity `json:"entity"`
	Score  float64 `json:"score"`
}

// SearchResult is one entity search hit with its bindings.
type SearchResult struct {
	Entity       *Entity          `json:"entity"`
	Bindings     []*EntityBinding `json:"bindings"`
	MentionCount int              `json:"mention_count"`
}

// RelatedEntity is an entity co-occurring with another through shared meetings.
type RelatedEntity struct {
	Entity         *Entity `json:"entity"`
	SharedMeetings int     `json:"shared_meetings"`
	MentionCount   int     `json:"mention_count"`
}

// TimelineEntry is a date entity with its activity.
type TimelineEntry struct {
	Entity       *Entity `json:"entity"`
	ISODate      string  `json:"iso_date"`
	MeetingCount int     `json:"meeting_count"`
	MentionCount int     `json:"mention_count"`
}

// LocationEntry is an address entity ready for geocoding.
type LocationEntry struct {
	Entity       *Entity `json:"entity"`
	MapQuery     string  `json:"map_query"`
	CityHint     string  `json:"city_hint"`
	StateHint    string  `json:"state_hint"`
	ZipHint      string  `json:"zip_hint"`
	MentionCount int     `json:"mention_count"`
	MeetingCount int     `json:"meeting_count"`
}

// Coverage summarizes how much data is stored.
type Coverage struct {
	Tables               map[string]int64             `json:"tables"`
	EntitiesByType       map[EntityType]int64         `json:"entities_by_type"`
	MentionsBySource     map[SourceType]int64         `json:"mentions_by_source"`
	DocumentTextStatuses map[DocumentTextStatus]int64 `json:"document_text_statuses"`
}

// PopularEntity is an entity ranked by mention count.
type PopularEntity struct {
	Entity       *Entity `json:"entity"`
	MentionCount int     `json:"mention_count"`
	MeetingCount int     `json:"meeting_count"`
}

// Popular lists the most mentioned entities and agenda topic counts.
type Popular struct {
	Entities []*PopularEntity `json:"entities"`
	Topics   map[Topic]int    `json:"topics"`
}

// DocumentHit is a document matching a content search.
type DocumentHit struct {
	Document *Document `json:"document"`
	Snippet  string    `json:"snippet"`
}

// ContentSearchResult lists documents and agenda items matching a query.
type ContentSearchResult struct {
	Documents   []*DocumentHit `json:"documents"`
	AgendaItems []*AgendaItem  `json:"agenda_items"`
}

// MeetingEntity is an entity mentioned in a meeting with those mentions.
type MeetingEntity struct {
	Entity   *Entity    `json:"entity"`
	Mentions []*Mention `json:"mentions"`
}

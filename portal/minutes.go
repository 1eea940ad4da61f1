package portal

import (
	"regexp"
	"strings"
	"time"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/model"
)

// MaxMinutesExcerptLength bounds the stored minutes excerpt.
const MaxMinutesExcerptLength = 1200

var (
	minutesPattern = regexp.MustCompile(`(?i)\b(meeting\s+minutes?|minutes?)\b`)
	datePattern    = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`)
)

// IsMinutesDocument reports whether a document title names meeting minutes.
func IsMinutesDocument(title string) bool {
	return minutesPattern.MatchString(text.Normalize(title))
}

// DetectDate returns the first "Month D, YYYY" date in s, or nil.
func DetectDate(s string) *time.Time {
	match := datePattern.FindString(text.Normalize(s))
	if len(match) == 0 {
		return nil
	}

	// time.Parse wants the month capitalized.
	match = strings.ToUpper(match[:1]) + strings.ToLower(match[1:])
	date, err := time.Parse("January 2, 2006", match)
	if err != nil {
		return nil
	}
	return &date
}

// MinutesFromDocument builds the minutes metadata of a minutes document
// from its extracted text. The date comes from the title, else the excerpt.
func MinutesFromDocument(meetingID int64, document model.Document) *model.MinutesMetadata {
	documentID := document.DocumentID
	title := text.Normalize(document.Title)
	content := text.Normalize(document.Content)
	content = strings.TrimSpace(strings.TrimPrefix(content, title))
	excerpt := text.Truncate(content, MaxMinutesExcerptLength)

	detected := DetectDate(title)
	if detected == nil {
		detected = DetectDate(excerpt)
	}

	status := document.TextStatus
	if !IsMinutesDocument(title) {
		status = model.TextStatusNotMinutes
	}

	return &model.MinutesMetadata{
		MeetingID:    meetingID,
		DocumentID:   &documentID,
		Title:        title,
		Excerpt:      excerpt,
		DetectedDate: detected,
		Status:       status,
	}
}

package portal

import (
	"testing"
	"time"

	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMinutesDocument(t *testing.T) {
	tests := []struct {
		title    string
		expected bool
	}{
		{"Meeting Minutes February 4, 2026", true},
		{"MINUTES", true},
		{"Council minute book", true},
		{"Staff Report", false},
		{"Administrative memo", false},
	}
	for _, test := range tests {
		t.Run(test.title, func(t *testing.T) {
			assert.Equal(t, test.expected, IsMinutesDocument(test.title))
		})
	}
}

func TestDetectDate(t *testing.T) {
	t.Run("Month day year", func(t *testing.T) {
		date := DetectDate("Regular meeting of february 18,  2026 at 6 PM")
		require.NotNil(t, date)
		assert.Equal(t, time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC), *date)
	})

	t.Run("No date", func(t *testing.T) {
		assert.Nil(t, DetectDate("City Council"))
		assert.Nil(t, DetectDate("February 30, 2026"), "Expected an impossible date to be ignored")
	})
}

func TestMinutesFromDocument(t *testing.T) {
	t.Run("Date from excerpt", func(t *testing.T) {
		minutes := MinutesFromDocument(1408, model.Document{
			DocumentID: 2272,
			Title:      "Minutes",
			Content:    "Minutes Meeting held March 3, 2026. Council approved the plat.",
			TextStatus: model.TextStatusOK,
		})
		require.NotNil(t, minutes.DocumentID)
		assert.Equal(t, int64(2272), *minutes.DocumentID)
		assert.Equal(t, "Meeting held March 3, 2026. Council approved the plat.", minutes.Excerpt)
		require.NotNil(t, minutes.DetectedDate)
		assert.Equal(t, "2026-03-03", minutes.DetectedDate.Format("2006-01-02"))
		assert.Equal(t, model.TextStatusOK, minutes.Status)
	})

	t.Run("Excerpt is bounded", func(t *testing.T) {
		long := make([]byte, 3000)
		for i := range long {
			long[i] = 'a'
		}
		minutes := MinutesFromDocument(1408, model.Document{DocumentID: 1, Title: "Minutes", Content: string(long), TextStatus: model.TextStatusOK})
		assert.Len(t, minutes.Excerpt, MaxMinutesExcerptLength)
	})

	t.Run("Not minutes", func(t *testing.T) {
		minutes := MinutesFromDocument(1408, model.Document{DocumentID: 1, Title: "Staff Report"})
		assert.Equal(t, model.TextStatusNotMinutes, minutes.Status)
	})
}

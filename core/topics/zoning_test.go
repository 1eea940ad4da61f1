package topics

import (
	"testing"

	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
)

func TestExtractZoningSignals(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		body     string
		expected model.ZoningSignal
	}{
		{
			name:  "Full rezoning item",
			title: "Rezoning 10841 Douglas Avenue from C-H to PUD, Ordinance 2026-14, third and final reading",
			expected: model.ZoningSignal{
				FromZone:        "C-H",
				ToZone:          "PUD",
				ReadingStage:    "third",
				OrdinanceNumber: "2026-14",
				Address:         "10841 Douglas Avenue",
			},
		},
		{
			name:     "Rezone without from",
			title:    "Rezone property c - 2 to r-1",
			expected: model.ZoningSignal{FromZone: "C-2", ToZone: "R-1"},
		},
		{
			name:     "Second reading in body",
			title:    "Ord No. 2025/07",
			body:     "Consider second reading",
			expected: model.ZoningSignal{ReadingStage: "second", OrdinanceNumber: "2025/07"},
		},
		{
			name:     "Final reading means third",
			title:    "Final reading of the zoning text amendment",
			expected: model.ZoningSignal{ReadingStage: "third"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, ExtractZoningSignals(test.title, test.body))
		})
	}

	t.Run("Nothing found", func(t *testing.T) {
		signal := ExtractZoningSignals("Approval of minutes", "")
		assert.True(t, signal.Empty())
	})
}

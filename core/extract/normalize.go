package extract

import (
	"strings"
	"time"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/model"
)

const dateLayout = "January 2, 2006"

// NormalizeValue returns the display and dedup values for a matched span.
// Dates become ISO-8601, an unparseable date keeps its lowercase text.
func NormalizeValue(entityType model.EntityType, value string) (string, string) {
	display := text.Normalize(value)

	switch entityType {
	case model.EntityTypeDate:
		parsed, err := time.Parse(dateLayout, display)
		if err != nil {
			return display, strings.ToLower(display)
		}
		return display, parsed.Format("2006-01-02")
	case model.EntityTypeOrdinanceNumber, model.EntityTypeResolutionNumber:
		return display, strings.ToUpper(display)
	case model.EntityTypeZipCode:
		return display, display
	default:
		return display, strings.ToLower(display)
	}
}

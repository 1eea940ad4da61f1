package topics

import (
	"regexp"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/model"
)

const zoneToken = `(?:[A-Za-z]{1,4}\s*-\s*[A-Za-z0-9]{1,4}|[A-Za-z]{2,5})`

var (
	ordinancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bordinance\s*(?:no\.?|number)?\s*([A-Z]?\d{1,4}[-/]\d{1,4})\b`),
		regexp.MustCompile(`(?i)\bord(?:inance)?\s*(?:no\.?)?\s*([A-Z]?\d{1,4}[-/]\d{1,4})\b`),
	}
	readingPattern    = regexp.MustCompile(`(?i)\b(first|second|third|final)\s+reading\b`)
	thirdFinalPattern = regexp.MustCompile(`(?i)\bthird\s+and\s+final\s+reading\b`)
	zoningAddress     = regexp.MustCompile(`(?i)\b\d{1,6}\s+[A-Za-z0-9.'-]+(?:\s+[A-Za-z0-9.'-]+){0,5}\s+` +
		`(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd|Court|Ct|Way|Terrace|Ter|Place|Pl|Circle|Cir|Parkway|Pkwy)\b`)
	fromToPattern   = regexp.MustCompile(`(?i)\bfrom\s+(` + zoneToken + `)\s+to\s+(` + zoneToken + `)\b`)
	rezoneToPattern = regexp.MustCompile(`(?i)\brezone(?:d|s|ing)?\b.*?\b(` + zoneToken + `)\s+to\s+(` + zoneToken + `)\b`)
	zoneDash        = regexp.MustCompile(`\s*-\s*`)
)

// ExtractZoningSignals pulls zone changes, reading stage, ordinance number
// and address out of zoning text. Missing facts stay empty.
func ExtractZoningSignals(title string, body string) model.ZoningSignal {
	s := text.Normalize(strings.Join([]string{title, body}, " "))
	signal := model.ZoningSignal{}

	if m := fromToPattern.FindStringSubmatch(s); m != nil {
		signal.FromZone = cleanZone(m[1])
		signal.ToZone = cleanZone(m[2])
	} else if m := rezoneToPattern.FindStringSubmatch(s); m != nil {
		signal.FromZone = cleanZone(m[1])
		signal.ToZone = cleanZone(m[2])
	}

	for _, p := range ordinancePatterns {
		if m := p.FindStringSubmatch(s); m != nil {
			signal.OrdinanceNumber = text.Normalize(m[1])
			break
		}
	}

	// "third and final" outranks a bare "final"
	if thirdFinalPattern.MatchString(s) {
		signal.ReadingStage = "third"
	} else if m := readingPattern.FindStringSubmatch(s); m != nil {
		stage := strings.ToLower(m[1])
		if stage == "final" {
			stage = "third"
		}
		signal.ReadingStage = stage
	}

	if m := zoningAddress.FindString(s); len(m) > 0 {
		signal.Address = text.Normalize(m)
	}

	return signal
}

func cleanZone(zone string) string {
	zone = text.Normalize(zone)
	return strings.ToUpper(zoneDash.ReplaceAllString(zone, "-"))
}

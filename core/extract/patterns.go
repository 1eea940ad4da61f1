package extract

import (
	"regexp"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/model"
)

const (
	streetSuffix = `(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd|Court|Ct|Way|Terrace|Ter|Place|Pl|Circle|Cir|Parkway|Pkwy)`
	addressBody  = `\d{1,6}\s+[A-Za-z0-9.'-]+(?:\s+[A-Za-z0-9.'-]+){0,5}\s+` + streetSuffix + `\b`
	numberCode   = `([A-Z]?\d{1,4}[-/]\d{2,4})`
	civicTitle   = `(?:Mayor(?:\s+Pro[\s-]+Tem(?:pore)?)?|Council\s*Member|Councilmember|Chair|Commissioner|City\s+Manager|Director)`
	personName   = `([A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][a-z]+){1,2})`
)

// patternExtractor emits the capture group (or whole match when group is 0)
// of every match of pattern.
type patternExtractor struct {
	entityType model.EntityType
	pattern    *regexp.Regexp
	group      int
}

func (e *patternExtractor) Type() model.EntityType {
	return e.entityType
}

func (e *patternExtractor) Extract(normalized string) []model.Candidate {
	var candidates []model.Candidate
	for _, m := range e.pattern.FindAllStringSubmatch(normalized, -1) {
		candidates = append(candidates, newCandidate(e.entityType, m[e.group]))
	}
	return candidates
}

// NewDateExtractor matches "Month DD, YYYY" dates.
func NewDateExtractor() Extractor {
	return &patternExtractor{
		entityType: model.EntityTypeDate,
		pattern:    regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`),
	}
}

// NewOrdinanceExtractor matches "Ordinance 2026-14", "Ordinance No. 2026-14" and "Ord No. 25/07".
func NewOrdinanceExtractor() Extractor {
	return &patternExtractor{
		entityType: model.EntityTypeOrdinanceNumber,
		pattern:    regexp.MustCompile(`(?i)\b(?:Ordinance(?:\s+No\.?)?|Ord\.?\s+No\.?)\s*` + numberCode + `\b`),
		group:      1,
	}
}

// NewResolutionExtractor matches "Resolution 26-0042" and "Resolution No. 26-0042".
func NewResolutionExtractor() Extractor {
	return &patternExtractor{
		entityType: model.EntityTypeResolutionNumber,
		pattern:    regexp.MustCompile(`(?i)\bResolution(?:\s+No\.?)?\s*` + numberCode + `\b`),
		group:      1,
	}
}

// NewOrganizationExtractor matches capitalized phrases of one to eight words
// ending in a legal suffix.
func NewOrganizationExtractor() Extractor {
	return &patternExtractor{
		entityType: model.EntityTypeOrganization,
		pattern: regexp.MustCompile(`\b([A-Z][A-Za-z0-9&'.,-]*(?:\s+[A-Z][A-Za-z0-9&'.,-]*){0,7}\s+` +
			`(?:LLC|Inc\.?|Company|Corp\.?|Corporation))\b`),
		group: 1,
	}
}

// AddressExtractor matches "<number> <words> <street suffix>". A span that
// swallowed an ordinance tail ("2026-14 for 10841 Douglas Avenue") is
// re-anchored after its last "for".
type AddressExtractor struct {
	pattern *regexp.Regexp
	forTail *regexp.Regexp
	forWord *regexp.Regexp
	leading *regexp.Regexp
}

func NewAddressExtractor() Extractor {
	return &AddressExtractor{
		pattern: regexp.MustCompile(`(?i)\b` + addressBody),
		forTail: regexp.MustCompile(`(?i)\bfor\s+\d`),
		forWord: regexp.MustCompile(`(?i)\bfor\b`),
		leading: regexp.MustCompile(`^\d{1,6}\b`),
	}
}

func (e *AddressExtractor) Type() model.EntityType {
	return model.EntityTypeAddress
}

func (e *AddressExtractor) Extract(normalized string) []model.Candidate {
	var candidates []model.Candidate
	for _, match := range e.pattern.FindAllString(normalized, -1) {
		candidates = append(candidates, newCandidate(model.EntityTypeAddress, e.reanchor(match)))
	}
	return candidates
}

func (e *AddressExtractor) reanchor(match string) string {
	if !e.forTail.MatchString(match) {
		return match
	}
	parts := e.forWord.Split(match, -1)
	tail := text.Normalize(parts[len(parts)-1])
	if e.leading.MatchString(tail) {
		return tail
	}
	return match
}

// ZipExtractor matches 5-digit and ZIP+4 codes. A number that starts a street
// address is a house number, not a zip.
type ZipExtractor struct {
	pattern *regexp.Regexp
	address *regexp.Regexp
}

func NewZipExtractor() Extractor {
	return &ZipExtractor{
		pattern: regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`),
		address: regexp.MustCompile(`(?i)^` + addressBody),
	}
}

func (e *ZipExtractor) Type() model.EntityType {
	return model.EntityTypeZipCode
}

func (e *ZipExtractor) Extract(normalized string) []model.Candidate {
	var candidates []model.Candidate
	for _, loc := range e.pattern.FindAllStringIndex(normalized, -1) {
		if e.address.MatchString(normalized[loc[0]:]) {
			continue
		}
		candidates = append(candidates, newCandidate(model.EntityTypeZipCode, normalized[loc[0]:loc[1]]))
	}
	return candidates
}

// roleWords are stripped from either end of a captured person name.
var roleWords = map[string]bool{
	"mayor":         true,
	"council":       true,
	"member":        true,
	"councilmember": true,
	"chair":         true,
	"commissioner":  true,
	"city":          true,
	"manager":       true,
	"director":      true,
	"clerk":         true,
	"attorney":      true,
	"pro":           true,
	"tem":           true,
}

// functionWords never occur inside a person name. A capture holding one is
// an agenda phrase ("Staff Report From City Manager").
var functionWords = map[string]bool{
	"from": true,
	"with": true,
	"the":  true,
	"of":   true,
	"and":  true,
	"to":   true,
	"by":   true,
	"for":  true,
	"on":   true,
	"at":   true,
	"in":   true,
}

// PersonExtractor matches a capitalized two or three token name right after a
// civic title, or before one when separated by a comma ("Karen Lopez, Director").
type PersonExtractor struct {
	titled   *regexp.Regexp
	trailing *regexp.Regexp
}

func NewPersonExtractor() Extractor {
	return &PersonExtractor{
		titled:   regexp.MustCompile(`\b` + civicTitle + `\s+` + personName + `\b`),
		trailing: regexp.MustCompile(`\b` + personName + `,\s+` + civicTitle + `\b`),
	}
}

func (e *PersonExtractor) Type() model.EntityType {
	return model.EntityTypePerson
}

func (e *PersonExtractor) Extract(normalized string) []model.Candidate {
	var candidates []model.Candidate
	for _, pattern := range []*regexp.Regexp{e.titled, e.trailing} {
		for _, m := range pattern.FindAllStringSubmatch(normalized, -1) {
			name, ok := cleanPersonName(m[1])
			if !ok {
				continue
			}
			candidates = append(candidates, newCandidate(model.EntityTypePerson, name))
		}
	}
	return candidates
}

// cleanPersonName strips role words from both ends. It reports false for
// names with fewer than two tokens or with a function word.
func cleanPersonName(name string) (string, bool) {
	tokens := strings.Fields(name)
	for _, token := range tokens {
		if functionWords[strings.ToLower(token)] {
			return "", false
		}
	}
	for len(tokens) > 0 && roleWords[strings.ToLower(tokens[len(tokens)-1])] {
		tokens = tokens[:len(tokens)-1]
	}
	for len(tokens) > 0 && roleWords[strings.ToLower(tokens[0])] {
		tokens = tokens[1:]
	}
	if len(tokens) < 2 {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

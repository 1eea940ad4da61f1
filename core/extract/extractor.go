package extract

import (
	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/model"
)

// Extractor finds candidate facts of one entity type in normalized text.
// Implementations never fail: malformed spans are simply not emitted.
type Extractor interface {
	Type() model.EntityType
	Extract(normalized string) []model.Candidate
}

// Set runs independent extractors over one text and merges their results.
type Set struct {
	extractors []Extractor
}

// NewSet creates a set running extractors in the given order.
func NewSet(extractors ...Extractor) *Set {
	return &Set{extractors: extractors}
}

// DefaultSet returns the extractors for every fact type, in merge order.
func DefaultSet() *Set {
	return NewSet(
		NewDateExtractor(),
		NewAddressExtractor(),
		NewZipExtractor(),
		NewOrdinanceExtractor(),
		NewResolutionExtractor(),
		NewOrganizationExtractor(),
		NewPersonExtractor(),
	)
}

// Extract normalizes raw and returns the merged candidates of all extractors,
// deduplicated by (type, normalized value). The first occurrence wins.
func (s *Set) Extract(raw string) []model.Candidate {
	normalized := text.Normalize(raw)
	if len(normalized) == 0 {
		return nil
	}

	var found []model.Candidate
	seen := map[string]bool{}
	for _, extractor := range s.extractors {
		for _, candidate := range extractor.Extract(normalized) {
			if len(candidate.NormalizedValue) == 0 || seen[candidate.Key()] {
				continue
			}
			seen[candidate.Key()] = true
			found = append(found, candidate)
		}
	}

	return found
}

// Types lists the entity types the set can emit.
func (s *Set) Types() []model.EntityType {
	types := make([]model.EntityType, 0, len(s.extractors))
	for _, extractor := range s.extractors {
		types = append(types, extractor.Type())
	}
	return types
}

func newCandidate(entityType model.EntityType, match string) model.Candidate {
	display, normalized := NormalizeValue(entityType, match)
	return model.Candidate{
		Type:            entityType,
		MentionText:     text.Normalize(match),
		DisplayValue:    display,
		NormalizedValue: normalized,
	}
}

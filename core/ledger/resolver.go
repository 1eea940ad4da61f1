package ledger

import (
	"context"
	"regexp"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// Resolver turns candidates into canonical entities and keeps the person
// alias registry current.
type Resolver struct {
	entities EntityStore
}

// NewResolver creates a resolver on top of an entity store.
func NewResolver(entities EntityStore) *Resolver {
	return &Resolver{entities: entities}
}

// Resolve returns the entity for the candidate's (type, normalized value),
// creating it on first sight. Persons also get their display value seeded
// as an alias.
func (r *Resolver) Resolve(ctx context.Context, candidate model.Candidate) (*model.Entity, error) {
	entity, err := r.entities.UpsertEntity(ctx, candidate.Type, candidate.DisplayValue, candidate.NormalizedValue)
	if err != nil {
		return nil, helper.NewError("upsert entity", err)
	}

	if entity.Type == model.EntityTypePerson {
		seed := entity.DisplayValue
		if len(seed) == 0 {
			seed = candidate.DisplayValue
		}
		err = r.seedAlias(ctx, entity.ID, seed)
		if err != nil {
			return nil, err
		}
	}

	return entity, nil
}

func (r *Resolver) seedAlias(ctx context.Context, entityID int64, aliasText string) error {
	aliasText = text.Normalize(aliasText)
	if len(aliasText) == 0 {
		return nil
	}

	err := r.entities.UpsertAlias(ctx, &model.EntityAlias{
		EntityID:        entityID,
		AliasText:       aliasText,
		NormalizedAlias: strings.ToLower(aliasText),
		Source:          model.AliasSourcePersonSeed,
		Confidence:      model.ConfidenceDirect,
	})
	if err != nil {
		return helper.NewError("upsert alias", err)
	}
	return nil
}

// AliasMatch is one known person alias found in a text.
type AliasMatch struct {
	EntityID  int64
	AliasText string
}

// MatchPersonAliases scans every known person alias against normalized text and returns the whole-word, case-insensitive hits. Pairs in
// exclude and entities in skip are left out.
func (r *Resolver) MatchPersonAliases(ctx context.Context, normalized string, exclude map[model.MentionKey]bool, skip map[int64]bool) ([]AliasMatch, error) {
	if len(normalized) == 0 {
		return nil, nil
	}

	aliases, err := r.entities.SelectPersonAliases(ctx)
	if err != nil {
		return nil, helper.NewError("select person aliases", err)
	}

	lowered := strings.ToLower(normalized)
	seen := map[model.MentionKey]bool{}
	var matches []AliasMatch
	for _, alias := range aliases {
		aliasText := text.Normalize(alias.AliasText)
		if len(aliasText) == 0 || skip[alias.EntityID] {
			continue
		}

		key := model.MentionKey{EntityID: alias.EntityID, Text: strings.ToLower(aliasText)}
		if exclude[key] || seen[key] {
			continue
		}

		// cheap substring check before compiling a word-boundary pattern
		if !strings.Contains(lowered, key.Text) {
			continue
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(aliasText) + `\b`)
		if err != nil || !pattern.MatchString(normalized) {
			continue
		}

		seen[key] = true
		matches = append(matches, AliasMatch{EntityID: alias.EntityID, AliasText: aliasText})
	}

	return matches, nil
}

package ledger

import (
	"context"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// Ledger owns the replace-on-reingest semantics of mentions.
// Construct one per transaction with transaction-bound stores.
type Ledger struct {
	resolver *Resolver
	mentions MentionStore
}

// NewLedger creates a ledger over the given stores.
func NewLedger(entities EntityStore, mentions MentionStore) *Ledger {
	return &Ledger{
		resolver: NewResolver(entities),
		mentions: mentions,
	}
}

// ReplaceMentionsForSource drops every mention of the provenance's source,
// records one mention per resolved candidate at direct confidence and then
// adds alias snowball mentions at alias confidence. Running it twice with
// the same input yields the same mention set.
func (l *Ledger) ReplaceMentionsForSource(ctx context.Context, provenance model.Provenance, contextText string, candidates []model.Candidate) ([]*model.Mention, error) {
	err := provenance.Validate()
	if err != nil {
		return nil, err
	}

	_, err = l.mentions.DeleteMentionsForSource(ctx, provenance.SourceType, provenance.SourceID)
	if err != nil {
		return nil, helper.NewError("delete mentions", err)
	}

	excerpt := text.Truncate(text.Normalize(contextText), model.MaxContextLength)
	inserted := map[model.MentionKey]bool{}
	direct := map[int64]bool{}
	var mentions []*model.Mention

	for _, candidate := range candidates {
		entity, err := l.resolver.Resolve(ctx, candidate)
		if err != nil {
			return nil, err
		}

		key := model.MentionKey{EntityID: entity.ID, Text: strings.ToLower(candidate.MentionText)}
		if inserted[key] {
			continue
		}

		mention, err := l.insert(ctx, provenance, entity.ID, candidate.MentionText, excerpt, model.ConfidenceDirect)
		if err != nil {
			return nil, err
		}
		mention.Entity = entity
		inserted[key] = true
		if entity.Type == model.EntityTypePerson {
			direct[entity.ID] = true
		}
		mentions = append(mentions, mention)
	}

	// Persons matched directly in this source are not snowballed again.
	matches, err := l.resolver.MatchPersonAliases(ctx, excerpt, inserted, direct)
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		mention, err := l.insert(ctx, provenance, match.EntityID, match.AliasText, excerpt, model.ConfidenceAlias)
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, mention)
	}

	return mentions, nil
}

func (l *Ledger) insert(ctx context.Context, provenance model.Provenance, entityID int64, mentionText string, excerpt string, confidence float64) (*model.Mention, error) {
	mention := &model.Mention{
		EntityID:     entityID,
		MeetingID:    provenance.MeetingID,
		AgendaItemID: provenance.AgendaItemID,
		DocumentID:   provenance.DocumentID,
		SourceType:   provenance.SourceType,
		SourceID:     provenance.SourceID,
		MentionText:  mentionText,
		ContextText:  excerpt,
		Confidence:   confidence,
	}

	err := l.mentions.InsertMention(ctx, mention)
	if err != nil {
		return nil, helper.NewError("insert mention", err)
	}
	return mention, nil
}

package ledger

import (
	"context"

	"github.com/siherrmann/civicgraph/model"
)

// EntityStore persists entities, person aliases and kind-specific details.
// database.EntitiesDBHandler implements it.
type EntityStore interface {
	UpsertEntity(ctx context.Context, entityType model.EntityType, display string, normalized string) (*model.Entity, error)
	UpsertAlias(ctx context.Context, alias *model.EntityAlias) error
	SelectPersonAliases(ctx context.Context) ([]*model.EntityAlias, error)
	UpsertPersonDetails(ctx context.Context, details *model.PersonDetails) error
	UpsertPlaceDetails(ctx context.Context, details *model.PlaceDetails) error
	UpsertOrganizationDetails(ctx context.Context, details *model.OrganizationDetails) error
	UpsertDateDetails(ctx context.Context, details *model.DateDetails) error
}

// MentionStore persists mentions. database.MentionsDBHandler implements it.
type MentionStore interface {
	DeleteMentionsForSource(ctx context.Context, sourceType model.SourceType, sourceID int64) (int, error)
	InsertMention(ctx context.Context, mention *model.Mention) error
}

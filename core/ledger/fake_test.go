package ledger

import (
	"context"
	"sort"
	"strings"

	"github.com/siherrmann/civicgraph/model"
)

// memoryStore is an in-memory EntityStore and MentionStore.
type memoryStore struct {
	nextID   int64
	entities map[string]*model.Entity
	aliases  map[model.MentionKey]*model.EntityAlias
	mentions []*model.Mention

	persons       map[int64]*model.PersonDetails
	places        map[int64]*model.PlaceDetails
	organizations map[int64]*model.OrganizationDetails
	dates         map[int64]*model.DateDetails
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entities:      map[string]*model.Entity{},
		aliases:       map[model.MentionKey]*model.EntityAlias{},
		persons:       map[int64]*model.PersonDetails{},
		places:        map[int64]*model.PlaceDetails{},
		organizations: map[int64]*model.OrganizationDetails{},
		dates:         map[int64]*model.DateDetails{},
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) UpsertEntity(ctx context.Context, entityType model.EntityType, display string, normalized string) (*model.Entity, error) {
	key := string(entityType) + "\x00" + normalized
	entity, ok := m.entities[key]
	if !ok {
		entity = &model.Entity{ID: m.id(), Type: entityType, DisplayValue: display, NormalizedValue: normalized}
		m.entities[key] = entity
	} else if len(entity.DisplayValue) == 0 {
		entity.DisplayValue = display
	}
	copied := *entity
	return &copied, nil
}

func (m *memoryStore) UpsertAlias(ctx context.Context, alias *model.EntityAlias) error {
	key := model.MentionKey{EntityID: alias.EntityID, Text: alias.NormalizedAlias}
	existing, ok := m.aliases[key]
	if !ok {
		alias.ID = m.id()
		copied := *alias
		m.aliases[key] = &copied
		return nil
	}
	if alias.Confidence > existing.Confidence {
		existing.Confidence = alias.Confidence
	}
	*alias = *existing
	return nil
}

func (m *memoryStore) SelectPersonAliases(ctx context.Context) ([]*model.EntityAlias, error) {
	var aliases []*model.EntityAlias
	for _, a := range m.aliases {
		copied := *a
		aliases = append(aliases, &copied)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i].NormalizedAlias) != len(aliases[j].NormalizedAlias) {
			return len(aliases[i].NormalizedAlias) > len(aliases[j].NormalizedAlias)
		}
		return aliases[i].ID < aliases[j].ID
	})
	return aliases, nil
}

func (m *memoryStore) UpsertPersonDetails(ctx context.Context, details *model.PersonDetails) error {
	m.persons[details.EntityID] = details
	return nil
}

func (m *memoryStore) UpsertPlaceDetails(ctx context.Context, details *model.PlaceDetails) error {
	m.places[details.EntityID] = details
	return nil
}

func (m *memoryStore) UpsertOrganizationDetails(ctx context.Context, details *model.OrganizationDetails) error {
	m.organizations[details.EntityID] = details
	return nil
}

func (m *memoryStore) UpsertDateDetails(ctx context.Context, details *model.DateDetails) error {
	m.dates[details.EntityID] = details
	return nil
}

func (m *memoryStore) DeleteMentionsForSource(ctx context.Context, sourceType model.SourceType, sourceID int64) (int, error) {
	kept := m.mentions[:0]
	deleted := 0
	for _, mention := range m.mentions {
		if mention.SourceType == sourceType && mention.SourceID == sourceID {
			deleted++
			continue
		}
		kept = append(kept, mention)
	}
	m.mentions = kept
	return deleted, nil
}

func (m *memoryStore) InsertMention(ctx context.Context, mention *model.Mention) error {
	for _, existing := range m.mentions {
		if existing.EntityID == mention.EntityID && existing.SourceType == mention.SourceType &&
			existing.SourceID == mention.SourceID && existing.MentionText == mention.MentionText {
			if mention.Confidence > existing.Confidence {
				existing.Confidence = mention.Confidence
			}
			mention.ID = existing.ID
			return nil
		}
	}
	mention.ID = m.id()
	copied := *mention
	m.mentions = append(m.mentions, &copied)
	return nil
}

func (m *memoryStore) mentionsFor(sourceType model.SourceType, sourceID int64) []*model.Mention {
	var out []*model.Mention
	for _, mention := range m.mentions {
		if mention.SourceType == sourceType && mention.SourceID == sourceID {
			out = append(out, mention)
		}
	}
	return out
}

func (m *memoryStore) entity(entityType model.EntityType, normalized string) *model.Entity {
	return m.entities[string(entityType)+"\x00"+strings.ToLower(normalized)]
}

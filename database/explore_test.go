package database

import (
	"context"
	"testing"

	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExploreNewExploreDBHandler(t *testing.T) {
	database := initDB(t)
	initHandlers(t, database)

	t.Run("Valid call NewExploreDBHandler", func(t *testing.T) {
		exploreDbHandler, err := NewExploreDBHandler(database, true)
		assert.NoError(t, err)
		require.NotNil(t, exploreDbHandler)
	})

	t.Run("Invalid call NewExploreDBHandler with nil database", func(t *testing.T) {
		_, err := NewExploreDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestExploreQueries(t *testing.T) {
	database := initDB(t)
	h := initHandlers(t, database)
	ctx := context.Background()

	marker := uniqueValue("xq")
	meeting := insertTestMeeting(t, h, "City Council")
	item := &model.AgendaItem{MeetingID: meeting.MeetingID, ItemKey: "1", Title: "Rezoning " + marker, Position: 1, Topics: []model.Topic{model.TopicZoning}}
	require.NoError(t, h.meetings.UpsertAgendaItem(ctx, item))
	document := &model.Document{MeetingID: meeting.MeetingID, DocumentID: 9001, Title: "Staff report"}
	require.NoError(t, h.meetings.UpsertDocument(ctx, document))
	_, err := h.meetings.UpsertDocumentText(ctx, document.ID, model.TextStatusOK, "The applicant requests "+marker+" approval.")
	require.NoError(t, err)

	person, err := h.entities.UpsertEntity(ctx, model.EntityTypePerson, "John Smith", uniqueValue("john smith"))
	require.NoError(t, err)
	address, err := h.entities.UpsertEntity(ctx, model.EntityTypeAddress, "10841 Douglas Avenue", uniqueValue("10841 douglas avenue"))
	require.NoError(t, err)
	require.NoError(t, h.entities.UpsertPlaceDetails(ctx, &model.PlaceDetails{EntityID: address.ID, Address: "10841 Douglas Avenue", ZipCode: "50322"}))
	date, err := h.entities.UpsertEntity(ctx, model.EntityTypeDate, "January 3, 1901", "1901-01-03")
	require.NoError(t, err)

	for _, e := range []*model.Entity{person, address, date} {
		require.NoError(t, h.mentions.InsertMention(ctx, &model.Mention{
			EntityID:    e.ID,
			MeetingID:   meeting.MeetingID,
			SourceType:  model.SourceTypeAgendaItemTitle,
			SourceID:    item.ID,
			MentionText: e.DisplayValue,
			Confidence:  model.ConfidenceDirect,
		}))
	}

	t.Run("Related entities share a meeting", func(t *testing.T) {
		related, err := h.explore.SelectRelatedEntities(ctx, person.ID, "", 0)
		require.NoError(t, err)
		var ids []int64
		for _, r := range related {
			ids = append(ids, r.Entity.ID)
			assert.GreaterOrEqual(t, r.SharedMeetings, 1)
		}
		assert.Contains(t, ids, address.ID)
		assert.Contains(t, ids, date.ID)
		assert.NotContains(t, ids, person.ID)

		onlyAddresses, err := h.explore.SelectRelatedEntities(ctx, person.ID, model.EntityTypeAddress, 0)
		require.NoError(t, err)
		require.Len(t, onlyAddresses, 1)
		assert.Equal(t, address.ID, onlyAddresses[0].Entity.ID)
	})

	t.Run("Timeline honors the date window", func(t *testing.T) {
		timeline, err := h.explore.SelectTimeline(ctx, "1901-01-01", "1901-01-31", 0)
		require.NoError(t, err)
		require.Len(t, timeline, 1)
		assert.Equal(t, "1901-01-03", timeline[0].ISODate)
		assert.Equal(t, 1, timeline[0].MentionCount)

		empty, err := h.explore.SelectTimeline(ctx, "1901-02-01", "1901-02-28", 0)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Locations carry raw place hints", func(t *testing.T) {
		locations, err := h.explore.SelectLocations(ctx, 0)
		require.NoError(t, err)
		var found *model.LocationEntry
		for _, l := range locations {
			if l.Entity.ID == address.ID {
				found = l
			}
		}
		require.NotNil(t, found)
		assert.Equal(t, "50322", found.ZipHint)
		assert.Empty(t, found.CityHint)
		assert.Equal(t, 1, found.MeetingCount)
	})

	t.Run("Coverage and popularity", func(t *testing.T) {
		coverage, err := h.explore.SelectCoverage(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, coverage.Tables["meetings"], int64(1))
		assert.GreaterOrEqual(t, coverage.EntitiesByType[model.EntityTypePerson], int64(1))
		assert.GreaterOrEqual(t, coverage.MentionsBySource[model.SourceTypeAgendaItemTitle], int64(3))
		assert.GreaterOrEqual(t, coverage.DocumentTextStatuses[model.TextStatusOK], int64(1))

		popular, err := h.explore.SelectPopularEntities(ctx, model.EntityTypeAddress, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, popular)
		for _, p := range popular {
			assert.Equal(t, model.EntityTypeAddress, p.Entity.Type)
		}

		topics, err := h.explore.SelectTopicCounts(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, topics[model.TopicZoning], 1)
	})

	t.Run("Content search", func(t *testing.T) {
		hits, err := h.explore.SearchDocuments(ctx, marker, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, document.ID, hits[0].Document.ID)
		assert.Contains(t, hits[0].Snippet, marker)

		items, err := h.explore.SearchAgendaItems(ctx, marker, model.TopicZoning, 10)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, item.ID, items[0].ID)

		none, err := h.explore.SearchAgendaItems(ctx, marker, model.TopicSchools, 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

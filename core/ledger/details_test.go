package ledger

import (
	"context"
	"testing"

	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailsOf(t *testing.T) {
	t.Run("Person", func(t *testing.T) {
		details := PersonDetailsOf(&model.Entity{ID: 1, DisplayValue: "Aaron J. Jones"})
		assert.Equal(t, "Aaron J. Jones", details.FullName)
		assert.Equal(t, "Aaron", details.FirstName)
		assert.Equal(t, "Jones", details.LastName)
	})

	places := []struct {
		name     string
		entity   *model.Entity
		expected model.PlaceDetails
	}{
		{"Street only", &model.Entity{ID: 2, Type: model.EntityTypeAddress, DisplayValue: "10841 Douglas Avenue"}, model.PlaceDetails{EntityID: 2, Address: "10841 Douglas Avenue"}},
		{"Full address", &model.Entity{ID: 3, Type: model.EntityTypeAddress, DisplayValue: "3600 86th St, Urbandale, Iowa 50322"}, model.PlaceDetails{EntityID: 3, Address: "3600 86th St", City: "Urbandale", State: "Iowa", ZipCode: "50322"}},
		{"City and state", &model.Entity{ID: 4, Type: model.EntityTypeAddress, DisplayValue: "1 Main St, Urbandale, IA"}, model.PlaceDetails{EntityID: 4, Address: "1 Main St", City: "Urbandale", State: "IA"}},
		{"Zip code entity", &model.Entity{ID: 5, Type: model.EntityTypeZipCode, DisplayValue: "50322-1234"}, model.PlaceDetails{EntityID: 5, ZipCode: "50322-1234"}},
	}
	for _, test := range places {
		t.Run("Place "+test.name, func(t *testing.T) {
			assert.Equal(t, &test.expected, PlaceDetailsOf(test.entity))
		})
	}

	t.Run("Organization with suffix", func(t *testing.T) {
		details := OrganizationDetailsOf(&model.Entity{ID: 6, DisplayValue: "The Enclave Apartments, LLC"})
		assert.Equal(t, "The Enclave Apartments", details.Name)
		assert.Equal(t, "LLC", details.Suffix)
	})

	t.Run("Organization without suffix", func(t *testing.T) {
		details := OrganizationDetailsOf(&model.Entity{ID: 7, DisplayValue: "City Staff"})
		assert.Equal(t, "City Staff", details.Name)
		assert.Empty(t, details.Suffix)
	})

	t.Run("Date with ISO value", func(t *testing.T) {
		details := DateDetailsOf(&model.Entity{ID: 8, DisplayValue: "February 7, 2026", NormalizedValue: "2026-02-07"})
		assert.Equal(t, "2026-02-07", details.ISODate)
		assert.Equal(t, "February 7, 2026", details.Label)
	})

	t.Run("Date without ISO value", func(t *testing.T) {
		details := DateDetailsOf(&model.Entity{ID: 9, DisplayValue: "February 30, 2026", NormalizedValue: "february 30, 2026"})
		assert.Empty(t, details.ISODate)
	})
}

func TestBackfillDetails(t *testing.T) {
	store := newMemoryStore()
	entities := []*model.Entity{
		{ID: 1, Type: model.EntityTypePerson, DisplayValue: "Jane Smith"},
		{ID: 2, Type: model.EntityTypeAddress, DisplayValue: "10841 Douglas Avenue"},
		{ID: 3, Type: model.EntityTypeOrganization, DisplayValue: "Acme Inc."},
		{ID: 4, Type: model.EntityTypeDate, DisplayValue: "February 7, 2026", NormalizedValue: "2026-02-07"},
		{ID: 5, Type: model.EntityTypeOrdinanceNumber, DisplayValue: "2026-14"},
		nil,
	}

	err := BackfillDetails(context.Background(), store, entities)
	require.NoError(t, err)

	assert.Len(t, store.persons, 1)
	assert.Len(t, store.places, 1)
	require.Len(t, store.organizations, 1)
	assert.Equal(t, "Inc.", store.organizations[3].Suffix)
	assert.Equal(t, "Acme", store.organizations[3].Name)
	assert.Len(t, store.dates, 1)
}

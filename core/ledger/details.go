package ledger

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

var (
	orgSuffix  = regexp.MustCompile(`(?i)[\s,]+(LLC|Inc\.?|Company|Corp\.?|Corporation)$`)
	stateZip   = regexp.MustCompile(`^(.*?)\s*(\d{5}(?:-\d{4})?)?$`)
	zipOnly    = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	isoDateFmt = "2006-01-02"
)

// BackfillDetails writes the kind-specific detail rows of entities.
// Entity kinds without details are skipped. Duplicates are written once.
func BackfillDetails(ctx context.Context, store EntityStore, entities []*model.Entity) error {
	done := map[int64]bool{}
	for _, entity := range entities {
		if entity == nil || done[entity.ID] {
			continue
		}
		done[entity.ID] = true

		var err error
		switch entity.Type {
		case model.EntityTypePerson:
			err = store.UpsertPersonDetails(ctx, PersonDetailsOf(entity))
		case model.EntityTypeAddress, model.EntityTypeZipCode:
			err = store.UpsertPlaceDetails(ctx, PlaceDetailsOf(entity))
		case model.EntityTypeOrganization:
			err = store.UpsertOrganizationDetails(ctx, OrganizationDetailsOf(entity))
		case model.EntityTypeDate:
			err = store.UpsertDateDetails(ctx, DateDetailsOf(entity))
		}
		if err != nil {
			return helper.NewError("backfill details", err)
		}
	}
	return nil
}

// PersonDetailsOf splits a person's display value into first and last name.
func PersonDetailsOf(entity *model.Entity) *model.PersonDetails {
	tokens := strings.Fields(entity.DisplayValue)
	details := &model.PersonDetails{EntityID: entity.ID, FullName: strings.Join(tokens, " ")}
	if len(tokens) > 0 {
		details.FirstName = tokens[0]
	}
	if len(tokens) > 1 {
		details.LastName = tokens[len(tokens)-1]
	}
	return details
}

// PlaceDetailsOf parses "<street>, <city>, <state> <zip>". Missing parts stay empty.
func PlaceDetailsOf(entity *model.Entity) *model.PlaceDetails {
	details := &model.PlaceDetails{EntityID: entity.ID}
	display := strings.TrimSpace(entity.DisplayValue)

	if entity.Type == model.EntityTypeZipCode || zipOnly.MatchString(display) {
		details.ZipCode = display
		return details
	}

	parts := strings.Split(display, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	details.Address = parts[0]
	if len(parts) > 1 {
		details.City = parts[1]
	}
	if len(parts) > 2 {
		m := stateZip.FindStringSubmatch(parts[len(parts)-1])
		if m != nil {
			details.State = m[1]
			details.ZipCode = m[2]
		}
	}
	return details
}

// OrganizationDetailsOf separates the legal suffix from the name.
func OrganizationDetailsOf(entity *model.Entity) *model.OrganizationDetails {
	display := strings.TrimSpace(entity.DisplayValue)
	details := &model.OrganizationDetails{EntityID: entity.ID, Name: display}

	loc := orgSuffix.FindStringSubmatchIndex(display)
	if loc != nil {
		details.Name = strings.TrimRight(display[:loc[0]], " ,")
		details.Suffix = display[loc[2]:loc[3]]
	}
	return details
}

// DateDetailsOf keeps the ISO value when the normalized value is a valid date.
func DateDetailsOf(entity *model.Entity) *model.DateDetails {
	details := &model.DateDetails{EntityID: entity.ID, Label: entity.DisplayValue}
	_, err := time.Parse(isoDateFmt, entity.NormalizedValue)
	if err == nil {
		details.ISODate = entity.NormalizedValue
	}
	return details
}

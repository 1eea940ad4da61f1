package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed set of things the graph knows about.
type EntityType string

const (
	EntityTypePerson           EntityType = "person"
	EntityTypeOrganization     EntityType = "organization"
	EntityTypeAddress          EntityType = "address"
	EntityTypeZipCode          EntityType = "zip_code"
	EntityTypeDate             EntityType = "date"
	EntityTypeOrdinanceNumber  EntityType = "ordinance_number"
	EntityTypeResolutionNumber EntityType = "resolution_number"
	EntityTypeMeeting          EntityType = "meeting"
	EntityTypeDocument         EntityType = "document"
)

// EntityTypes lists every entity type in a stable order.
var EntityTypes = []EntityType{
	EntityTypePerson,
	EntityTypeOrganization,
	EntityTypeAddress,
	EntityTypeZipCode,
	EntityTypeDate,
	EntityTypeOrdinanceNumber,
	EntityTypeResolutionNumber,
	EntityTypeMeeting,
	EntityTypeDocument,
}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsLocation reports whether t is a place-like type (address or zip code).
func (t EntityType) IsLocation() bool {
	return t == EntityTypeAddress || t == EntityTypeZipCode
}

// ParseEntityType validates s as an EntityType. An empty string is allowed and means "any".
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if len(s) == 0 || t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Binding source tables for synthetic graph nodes.
const (
	BindingTableMeetings  = "meetings"
	BindingTableDocuments = "documents"
)

// AliasSourcePersonSeed marks aliases seeded from a confirmed person display value.
const AliasSourcePersonSeed = "person_seed"

// Entity is a deduplicated real-world thing, unique on (Type, NormalizedValue).
type Entity struct {
	ID              int64      `json:"id"`
	RID             uuid.UUID  `json:"rid"`
	Type            EntityType `json:"entity_type"`
	DisplayValue    string     `json:"display_value"`
	NormalizedValue string     `json:"normalized_value"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EntityAlias is an alternate surface form of a person entity.
type EntityAlias struct {
	ID              int64     `json:"id"`
	EntityID        int64     `json:"entity_id"`
	AliasText       string    `json:"alias_text"`
	NormalizedAlias string    `json:"normalized_alias"`
	Source          string    `json:"source"`
	Confidence      float64   `json:"confidence"`
	CreatedAt       time.Time `json:"created_at"`
}

// EntityBinding maps a synthetic meeting or document entity to its source row.
type EntityBinding struct {
	ID          int64     `json:"id"`
	EntityID    int64     `json:"entity_id"`
	SourceTable string    `json:"source_table"`
	SourceID    int64     `json:"source_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type PersonDetails struct {
	EntityID  int64  `json:"entity_id"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type PlaceDetails struct {
	EntityID int64  `json:"entity_id"`
	Address  string `json:"address"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zip_code,omitempty"`
}

type OrganizationDetails struct {
	EntityID int64  `json:"entity_id"`
	Name     string `json:"name"`
	Suffix   string `json:"suffix,omitempty"`
}

type DateDetails struct {
	EntityID int64  `json:"entity_id"`
	ISODate  string `json:"iso_date,omitempty"`
	Label    string `json:"label"`
}

// EntityDetails holds whichever kind-specific extension exists for an entity.
type EntityDetails struct {
	Person       *PersonDetails       `json:"person,omitempty"`
	Place        *PlaceDetails        `json:"place,omitempty"`
	Organization *OrganizationDetails `json:"organization,omitempty"`
	Date         *DateDetails         `json:"date,omitempty"`
}

// EntityDetail is the full read view of a single entity.
type EntityDetail struct {
	Entity       *Entity          `json:"entity"`
	Aliases      []*EntityAlias   `json:"aliases"`
	Bindings     []*EntityBinding `json:"bindings"`
	Mentions     []*Mention       `json:"mentions"`
	Details      EntityDetails    `json:"details"`
	MentionCount int              `json:"mention_count"`
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	loadSql "github.com/siherrmann/civicgraph/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	UpsertEntity(ctx context.Context, entityType model.EntityType, display string, normalized string) (*model.Entity, error)
	SelectEntity(ctx context.Context, id int64) (*model.Entity, error)
	SelectEntityByRID(ctx context.Context, rid uuid.UUID) (*model.Entity, error)
	SelectEntityByKey(ctx context.Context, entityType model.EntityType, normalized string) (*model.Entity, error)
	SelectRecentEntities(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error)
	SearchEntities(ctx context.Context, term string, entityType model.EntityType, limit int) ([]*model.SearchResult, error)
	UpsertAlias(ctx context.Context, alias *model.EntityAlias) error
	SelectPersonAliases(ctx context.Context) ([]*model.EntityAlias, error)
	SelectEntityAliases(ctx context.Context, entityID int64) ([]*model.EntityAlias, error)
	UpsertBinding(ctx context.Context, entityID int64, sourceTable string, sourceID int64) (*model.EntityBinding, error)
	RepointBinding(ctx context.Context, sourceTable string, sourceID int64, entityID int64) (*model.EntityBinding, error)
	SelectBinding(ctx context.Context, sourceTable string, sourceID int64) (*model.EntityBinding, error)
	SelectBindings(ctx context.Context, entityID int64) ([]*model.EntityBinding, error)
	UpsertPersonDetails(ctx context.Context, details *model.PersonDetails) error
	UpsertPlaceDetails(ctx context.Context, details *model.PlaceDetails) error
	UpsertOrganizationDetails(ctx context.Context, details *model.OrganizationDetails) error
	UpsertDateDetails(ctx context.Context, details *model.DateDetails) error
	SelectEntityDetails(ctx context.Context, entityID int64) (model.EntityDetails, error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

var _ EntitiesDBHandlerFunctions = (*EntitiesDBHandler)(nil)

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the entities table and its alias, binding and detail tables.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// WithTx returns a handler bound to tx.
func (h *EntitiesDBHandler) WithTx(tx *sql.Tx) *EntitiesDBHandler {
	return &EntitiesDBHandler{db: h.db, q: tx}
}

// UpsertEntity returns the entity for (entityType, normalized), creating it on miss.
// A blank display value is backfilled, an existing one is kept.
func (h *EntitiesDBHandler) UpsertEntity(ctx context.Context, entityType model.EntityType, display string, normalized string) (*model.Entity, error) {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_entity($1, $2, $3)`,
		entityType,
		display,
		normalized,
	)

	entity, err := scanEntity(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, id int64) (*model.Entity, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_entity($1)`, id)

	entity, err := scanEntity(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByRID retrieves an entity by its public uuid
func (h *EntitiesDBHandler) SelectEntityByRID(ctx context.Context, rid uuid.UUID) (*model.Entity, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_entity_by_rid($1)`, rid)

	entity, err := scanEntity(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByKey retrieves an entity by its dedup key
func (h *EntitiesDBHandler) SelectEntityByKey(ctx context.Context, entityType model.EntityType, normalized string) (*model.Entity, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_entity_by_key($1, $2)`, entityType, normalized)

	entity, err := scanEntity(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectRecentEntities lists the most recently created entities, optionally of one type.
func (h *EntitiesDBHandler) SelectRecentEntities(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_recent_entities($1, $2)`, nullString(string(entityType)), nullLimit(limit))
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SearchEntities finds entities whose display or normalized value contains term.
func (h *EntitiesDBHandler) SearchEntities(ctx context.Context, term string, entityType model.EntityType, limit int) ([]*model.SearchResult, error) {
	rows, err := h.q.QueryContext(
		ctx,
		`SELECT * FROM search_entities($1, $2, $3)`,
		term,
		nullString(string(entityType)),
		nullLimit(limit),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.SearchResult
	for rows.Next() {
		var mentionCount int
		entity, err := scanEntity(rows, &mentionCount)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		results = append(results, &model.SearchResult{Entity: entity, MentionCount: mentionCount})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// UpsertAlias inserts an alias or raises the confidence of an existing one.
func (h *EntitiesDBHandler) UpsertAlias(ctx context.Context, alias *model.EntityAlias) error {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_entity_alias($1, $2, $3, $4, $5)`,
		alias.EntityID,
		alias.AliasText,
		alias.NormalizedAlias,
		alias.Source,
		alias.Confidence,
	)

	scanned, err := scanAlias(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*alias = *scanned

	return nil
}

// SelectPersonAliases lists every alias of every person entity, longest first.
func (h *EntitiesDBHandler) SelectPersonAliases(ctx context.Context) ([]*model.EntityAlias, error) {
	return h.selectAliases(ctx, `SELECT * FROM select_person_aliases()`)
}

// SelectEntityAliases lists the aliases of one entity.
func (h *EntitiesDBHandler) SelectEntityAliases(ctx context.Context, entityID int64) ([]*model.EntityAlias, error) {
	return h.selectAliases(ctx, `SELECT * FROM select_entity_aliases($1)`, entityID)
}

func (h *EntitiesDBHandler) selectAliases(ctx context.Context, query string, args ...interface{}) ([]*model.EntityAlias, error) {
	rows, err := h.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var aliases []*model.EntityAlias
	for rows.Next() {
		alias, err := scanAlias(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		aliases = append(aliases, alias)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return aliases, nil
}

// UpsertBinding binds entityID to a source row. An existing binding of that
// row is returned unchanged.
func (h *EntitiesDBHandler) UpsertBinding(ctx context.Context, entityID int64, sourceTable string, sourceID int64) (*model.EntityBinding, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM upsert_entity_binding($1, $2, $3)`, entityID, sourceTable, sourceID)

	binding, err := scanBinding(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return binding, nil
}

// RepointBinding explicitly moves an existing binding to another entity.
func (h *EntitiesDBHandler) RepointBinding(ctx context.Context, sourceTable string, sourceID int64, entityID int64) (*model.EntityBinding, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM repoint_entity_binding($1, $2, $3)`, sourceTable, sourceID, entityID)

	binding, err := scanBinding(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return binding, nil
}

// SelectBinding retrieves the binding of a source row.
func (h *EntitiesDBHandler) SelectBinding(ctx context.Context, sourceTable string, sourceID int64) (*model.EntityBinding, error) {
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_entity_binding($1, $2)`, sourceTable, sourceID)

	binding, err := scanBinding(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return binding, nil
}

// SelectBindings lists the bindings of an entity.
func (h *EntitiesDBHandler) SelectBindings(ctx context.Context, entityID int64) ([]*model.EntityBinding, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_entity_bindings($1)`, entityID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var bindings []*model.EntityBinding
	for rows.Next() {
		binding, err := scanBinding(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		bindings = append(bindings, binding)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return bindings, nil
}

func (h *EntitiesDBHandler) UpsertPersonDetails(ctx context.Context, details *model.PersonDetails) error {
	_, err := h.q.ExecContext(
		ctx,
		`SELECT upsert_person_details($1, $2, $3, $4)`,
		details.EntityID,
		details.FullName,
		details.FirstName,
		details.LastName,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *EntitiesDBHandler) UpsertPlaceDetails(ctx context.Context, details *model.PlaceDetails) error {
	_, err := h.q.ExecContext(
		ctx,
		`SELECT upsert_place_details($1, $2, $3, $4, $5)`,
		details.EntityID,
		details.Address,
		details.City,
		details.State,
		details.ZipCode,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *EntitiesDBHandler) UpsertOrganizationDetails(ctx context.Context, details *model.OrganizationDetails) error {
	_, err := h.q.ExecContext(
		ctx,
		`SELECT upsert_organization_details($1, $2, $3)`,
		details.EntityID,
		details.Name,
		details.Suffix,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *EntitiesDBHandler) UpsertDateDetails(ctx context.Context, details *model.DateDetails) error {
	_, err := h.q.ExecContext(
		ctx,
		`SELECT upsert_date_details($1, $2, $3)`,
		details.EntityID,
		nullString(details.ISODate),
		details.Label,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectEntityDetails returns the kind-specific details of an entity.
// Kinds without a row stay nil.
func (h *EntitiesDBHandler) SelectEntityDetails(ctx context.Context, entityID int64) (model.EntityDetails, error) {
	var details model.EntityDetails
	var fullName, firstName, lastName sql.NullString
	var address, city, state, zipCode sql.NullString
	var orgName, orgSuffix sql.NullString
	var isoDate, dateLabel sql.NullString

	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_entity_details($1)`, entityID)
	err := row.Scan(
		&fullName, &firstName, &lastName,
		&address, &city, &state, &zipCode,
		&orgName, &orgSuffix,
		&isoDate, &dateLabel,
	)
	if err != nil {
		return details, helper.NewError("scan", err)
	}

	if fullName.Valid {
		details.Person = &model.PersonDetails{EntityID: entityID, FullName: fullName.String, FirstName: firstName.String, LastName: lastName.String}
	}
	if address.Valid {
		details.Place = &model.PlaceDetails{EntityID: entityID, Address: address.String, City: city.String, State: state.String, ZipCode: zipCode.String}
	}
	if orgName.Valid {
		details.Organization = &model.OrganizationDetails{EntityID: entityID, Name: orgName.String, Suffix: orgSuffix.String}
	}
	if dateLabel.Valid {
		details.Date = &model.DateDetails{EntityID: entityID, ISODate: isoDate.String, Label: dateLabel.String}
	}

	return details, nil
}

package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed meetings.sql
var meetingsSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed mentions.sql
var mentionsSQL string

//go:embed connections.sql
var connectionsSQL string

//go:embed discovery.sql
var discoverySQL string

//go:embed explore.sql
var exploreSQL string

// Function lists for verification
var MeetingsFunctions = []string{
	"init_meetings",
	"lock_meeting",
	"upsert_meeting",
	"select_meeting",
	"select_meeting_ids",
	"upsert_agenda_item",
	"select_agenda_items_by_meeting",
	"upsert_document",
	"select_documents_by_meeting",
	"upsert_document_text",
	"upsert_minutes_metadata",
	"select_minutes_metadata",
}

var EntitiesFunctions = []string{
	"init_entities",
	"upsert_entity",
	"select_entity",
	"select_entity_by_rid",
	"select_entity_by_key",
	"select_recent_entities",
	"search_entities",
	"upsert_entity_alias",
	"select_person_aliases",
	"select_entity_aliases",
	"upsert_entity_binding",
	"repoint_entity_binding",
	"select_entity_bindings",
	"select_entity_binding",
	"upsert_person_details",
	"upsert_place_details",
	"upsert_organization_details",
	"upsert_date_details",
	"select_entity_details",
}

var MentionsFunctions = []string{
	"init_mentions",
	"delete_mentions_for_source",
	"insert_mention",
	"select_mentions_for_source",
	"select_mentions_by_meeting",
	"select_mentions_by_entity",
	"count_mentions_by_entity",
}

var ConnectionsFunctions = []string{
	"init_connections",
	"upsert_connection",
	"select_connections_for_entity",
	"select_neighbor_entity_ids",
	"count_connections",
	"prune_stale_connections",
	"select_evidence_text",
}

var DiscoveryFunctions = []string{
	"init_discovery",
	"select_discovery_cache",
	"upsert_discovery_cache",
}

var ExploreFunctions = []string{
	"select_related_entities",
	"select_timeline",
	"select_locations",
	"select_coverage",
	"select_popular_entities",
	"select_topic_counts",
	"search_documents",
	"search_agenda_items",
}

// Init creates the extensions and shared helper functions.
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing init SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadMeetingsSql loads meeting, agenda item and document functions
func LoadMeetingsSql(db *sql.DB, force bool) error {
	return loadSql(db, "meetings", meetingsSQL, MeetingsFunctions, force)
}

// LoadEntitiesSql loads entity, alias, binding and detail functions
func LoadEntitiesSql(db *sql.DB, force bool) error {
	return loadSql(db, "entities", entitiesSQL, EntitiesFunctions, force)
}

// LoadMentionsSql loads mention ledger functions
func LoadMentionsSql(db *sql.DB, force bool) error {
	return loadSql(db, "mentions", mentionsSQL, MentionsFunctions, force)
}

// LoadConnectionsSql loads connection graph functions
func LoadConnectionsSql(db *sql.DB, force bool) error {
	return loadSql(db, "connections", connectionsSQL, ConnectionsFunctions, force)
}

// LoadDiscoverySql loads discovery cache functions
func LoadDiscoverySql(db *sql.DB, force bool) error {
	return loadSql(db, "discovery", discoverySQL, DiscoveryFunctions, force)
}

// LoadExploreSql loads the read-only aggregate functions
func LoadExploreSql(db *sql.DB, force bool) error {
	return loadSql(db, "explore", exploreSQL, ExploreFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	loaders := []func(*sql.DB, bool) error{
		LoadMeetingsSql,
		LoadEntitiesSql,
		LoadMentionsSql,
		LoadConnectionsSql,
		LoadDiscoverySql,
		LoadExploreSql,
	}
	for _, load := range loaders {
		if err := load(db, force); err != nil {
			return err
		}
	}
	return nil
}

func loadSql(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required %s SQL functions were created", name)
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}

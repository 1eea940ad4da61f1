package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	loadSql "github.com/siherrmann/civicgraph/sql"
)

// ConnectionsDBHandlerFunctions defines the interface for connection graph operations.
type ConnectionsDBHandlerFunctions interface {
	UpsertConnection(ctx context.Context, connection *model.Connection) error
	SelectConnectionsForEntity(ctx context.Context, entityID int64, filter model.ConnectionFilter) ([]*model.ConnectionEdge, error)
	SelectNeighborIDs(ctx context.Context, entityID int64) ([]int64, error)
	CountConnections(ctx context.Context, meetingID *int64) (int64, error)
	PruneStaleConnections(ctx context.Context, meetingID int64) (int, error)
	SelectEvidenceText(ctx context.Context, evidence model.EvidenceKey) (string, error)
}

// ConnectionsDBHandler handles the entity_connections graph.
type ConnectionsDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

var _ ConnectionsDBHandlerFunctions = (*ConnectionsDBHandler)(nil)

// NewConnectionsDBHandler creates a new connections database handler.
// The entities table must exist before.
func NewConnectionsDBHandler(db *helper.Database, force bool) (*ConnectionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	connectionsDbHandler := &ConnectionsDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadConnectionsSql(connectionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load connections sql", err)
	}

	err = connectionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ConnectionsDBHandler")

	return connectionsDbHandler, nil
}

// CreateTable creates the 'entity_connections' table in the database.
func (h *ConnectionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_connections();`)
	if err != nil {
		log.Panicf("error initializing entity_connections table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entity_connections")

	return nil
}

// WithTx returns a handler bound to tx.
func (h *ConnectionsDBHandler) WithTx(tx *sql.Tx) *ConnectionsDBHandler {
	return &ConnectionsDBHandler{db: h.db, q: tx}
}

// UpsertConnection inserts an edge or refreshes the edge with the same evidence tuple.
func (h *ConnectionsDBHandler) UpsertConnection(ctx context.Context, connection *model.Connection) error {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_connection($1, $2, $3, $4, $5, $6, $7, $8)`,
		connection.FromEntityID,
		connection.ToEntityID,
		connection.RelationType,
		nullInt64(connection.MeetingID),
		nullInt64(connection.DocumentID),
		connection.EvidenceSourceType,
		connection.EvidenceSourceID,
		connection.Strength,
	)

	scanned, err := scanConnection(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*connection = *scanned

	return nil
}

// SelectConnectionsForEntity lists the edges touching an entity, filtered by
// relation type, direction and the other entity's type. Topic and limit are
// applied by the caller.
func (h *ConnectionsDBHandler) SelectConnectionsForEntity(ctx context.Context, entityID int64, filter model.ConnectionFilter) ([]*model.ConnectionEdge, error) {
	rows, err := h.q.QueryContext(
		ctx,
		`SELECT * FROM select_connections_for_entity($1, $2, $3, $4)`,
		entityID,
		nullString(string(filter.RelationType)),
		nullString(string(filter.Direction)),
		nullString(string(filter.EntityType)),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var edges []*model.ConnectionEdge
	for rows.Next() {
		other := &model.Entity{}
		var direction string
		connection, err := scanConnection(
			rows,
			&direction,
			&other.ID,
			&other.RID,
			&other.Type,
			&other.DisplayValue,
			&other.NormalizedValue,
			&other.CreatedAt,
			&other.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		edges = append(edges, &model.ConnectionEdge{
			Connection: connection,
			Other:      other,
			Direction:  model.Direction(direction),
		})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

// SelectNeighborIDs lists the distinct entities connected to entityID in either direction.
func (h *ConnectionsDBHandler) SelectNeighborIDs(ctx context.Context, entityID int64) ([]int64, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_neighbor_entity_ids($1)`, entityID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		err := rows.Scan(&id)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// CountConnections counts the edges of one meeting, or all edges when meetingID is nil.
func (h *ConnectionsDBHandler) CountConnections(ctx context.Context, meetingID *int64) (int64, error) {
	var count int64
	err := h.q.QueryRowContext(ctx, `SELECT count_connections($1)`, nullInt64(meetingID)).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// PruneStaleConnections deletes edges of a meeting whose evidence is gone.
func (h *ConnectionsDBHandler) PruneStaleConnections(ctx context.Context, meetingID int64) (int, error) {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT prune_stale_connections($1)`, meetingID).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}

// SelectEvidenceText resolves an evidence tuple back to its source text.
func (h *ConnectionsDBHandler) SelectEvidenceText(ctx context.Context, evidence model.EvidenceKey) (string, error) {
	var text sql.NullString
	err := h.q.QueryRowContext(ctx, `SELECT select_evidence_text($1, $2)`, evidence.SourceType, evidence.SourceID).Scan(&text)
	if err != nil {
		return "", helper.NewError("scan", err)
	}
	return text.String, nil
}

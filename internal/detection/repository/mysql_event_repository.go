package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/fieldsrv/guardpost/internal/database"
	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	apperrors "github.com/fieldsrv/guardpost/internal/errors"
)

// MySQLEventRepository implements intrusion event persistence for MySQL.
// UUIDs are stored as CHAR(36) strings since MySQL has no native UUID type.
type MySQLEventRepository struct {
	db *sql.DB
}

// NewMySQLEventRepository creates a new MySQLEventRepository.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}

// Store inserts an intrusion event. The anomaly list is stored as JSON.
func (m *MySQLEventRepository) Store(
	ctx context.Context,
	event *detectionDomain.IntrusionEvent,
) error {
	querier := database.GetTx(ctx, m.db)

	anomaliesJSON, err := json.Marshal(event.Anomalies)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal anomalies")
	}

	query := `INSERT INTO intrusion_events
			  (id, type, severity, suspicious_score, source_address, user_agent,
			   user_id, endpoint, method, location, anomalies, blocked, resolved, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID.String(),
		string(event.Type),
		string(event.Severity),
		event.SuspiciousScore,
		event.SourceAddress,
		event.UserAgent,
		nullableString(event.UserID),
		event.Endpoint,
		event.Method,
		event.Location,
		anomaliesJSON,
		event.Blocked,
		event.Resolved,
		event.Timestamp,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to store intrusion event")
	}

	return nil
}

// List retrieves the most recent events, newest first.
func (m *MySQLEventRepository) List(
	ctx context.Context,
	limit int,
) ([]*detectionDomain.IntrusionEvent, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, type, severity, suspicious_score, source_address, user_agent,
			  user_id, endpoint, method, location, anomalies, blocked, resolved, created_at
			  FROM intrusion_events
			  ORDER BY id DESC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list intrusion events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*detectionDomain.IntrusionEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate intrusion events")
	}

	return events, nil
}

// MarkResolved mirrors an operator resolve action into the durable store.
func (m *MySQLEventRepository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx, `UPDATE intrusion_events SET resolved = TRUE WHERE id = ?`, id.String(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve intrusion event")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check resolve result")
	}
	if affected == 0 {
		return detectionDomain.ErrEventNotFound
	}

	return nil
}

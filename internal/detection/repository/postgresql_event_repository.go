// Package repository provides the optional durable intrusion event store
// for PostgreSQL and MySQL. Detection works fully in memory; these
// repositories add an audit trail that survives restarts.
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

// PostgreSQLEventRepository implements intrusion event persistence for
// PostgreSQL. Uses native UUID types with transaction support via
// database.GetTx().
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLEventRepository creates a new PostgreSQLEventRepository.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}

// Store inserts an intrusion event. The anomaly list is stored as JSON.
func (p *PostgreSQLEventRepository) Store(
	ctx context.Context,
	event *detectionDomain.IntrusionEvent,
) error {
	querier := database.GetTx(ctx, p.db)

	anomaliesJSON, err := json.Marshal(event.Anomalies)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal anomalies")
	}

	query := `INSERT INTO intrusion_events
			  (id, type, severity, suspicious_score, source_address, user_agent,
			   user_id, endpoint, method, location, anomalies, blocked, resolved, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
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
func (p *PostgreSQLEventRepository) List(
	ctx context.Context,
	limit int,
) ([]*detectionDomain.IntrusionEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, type, severity, suspicious_score, source_address, user_agent,
			  user_id, endpoint, method, location, anomalies, blocked, resolved, created_at
			  FROM intrusion_events
			  ORDER BY id DESC
			  LIMIT $1`

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
func (p *PostgreSQLEventRepository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx, `UPDATE intrusion_events SET resolved = TRUE WHERE id = $1`, id,
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

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*detectionDomain.IntrusionEvent, error) {
	var event detectionDomain.IntrusionEvent
	var typ, severity string
	var userID sql.NullString
	var anomaliesJSON []byte

	err := s.Scan(
		&event.ID,
		&typ,
		&severity,
		&event.SuspiciousScore,
		&event.SourceAddress,
		&event.UserAgent,
		&userID,
		&event.Endpoint,
		&event.Method,
		&event.Location,
		&anomaliesJSON,
		&event.Blocked,
		&event.Resolved,
		&event.Timestamp,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan intrusion event")
	}

	event.Type = detectionDomain.IntrusionType(typ)
	event.Severity = detectionDomain.Severity(severity)
	event.UserID = userID.String

	if len(anomaliesJSON) > 0 {
		if err := json.Unmarshal(anomaliesJSON, &event.Anomalies); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal anomalies")
		}
	}

	return &event, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
)

func testEvent() *detectionDomain.IntrusionEvent {
	return &detectionDomain.IntrusionEvent{
		ID:              uuid.Must(uuid.NewV7()),
		Type:            detectionDomain.EndpointScanning,
		Severity:        detectionDomain.SeverityCritical,
		SuspiciousScore: 85,
		SourceAddress:   "1.2.3.4",
		UserAgent:       "curl/7.68.0",
		UserID:          "u1",
		Endpoint:        "/api/orders?q=union+select",
		Method:          "GET",
		Location:        "1.2.0.0/16",
		Anomalies:       []string{"Malicious payload pattern"},
		Blocked:         true,
		Timestamp:       time.Now().UTC(),
	}
}

func TestPostgreSQLEventRepository_Store(t *testing.T) {
	t.Run("inserts event", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		event := testEvent()
		mock.ExpectExec("INSERT INTO intrusion_events").
			WithArgs(
				event.ID, string(event.Type), string(event.Severity),
				event.SuspiciousScore, event.SourceAddress, event.UserAgent,
				event.UserID, event.Endpoint, event.Method, event.Location,
				[]byte(`["Malicious payload pattern"]`), event.Blocked,
				event.Resolved, event.Timestamp,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		repo := NewPostgreSQLEventRepository(db)
		require.NoError(t, repo.Store(context.Background(), event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty user id stored as NULL", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		event := testEvent()
		event.UserID = ""
		mock.ExpectExec("INSERT INTO intrusion_events").
			WithArgs(
				event.ID, string(event.Type), string(event.Severity),
				event.SuspiciousScore, event.SourceAddress, event.UserAgent,
				nil, event.Endpoint, event.Method, event.Location,
				[]byte(`["Malicious payload pattern"]`), event.Blocked,
				event.Resolved, event.Timestamp,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		repo := NewPostgreSQLEventRepository(db)
		require.NoError(t, repo.Store(context.Background(), event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLEventRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	event := testEvent()
	rows := sqlmock.NewRows([]string{
		"id", "type", "severity", "suspicious_score", "source_address", "user_agent",
		"user_id", "endpoint", "method", "location", "anomalies", "blocked", "resolved", "created_at",
	}).AddRow(
		event.ID, string(event.Type), string(event.Severity),
		event.SuspiciousScore, event.SourceAddress, event.UserAgent,
		event.UserID, event.Endpoint, event.Method, event.Location,
		[]byte(`["Malicious payload pattern"]`), event.Blocked, event.Resolved, event.Timestamp,
	)

	mock.ExpectQuery("SELECT (.+) FROM intrusion_events").
		WithArgs(10).
		WillReturnRows(rows)

	repo := NewPostgreSQLEventRepository(db)
	events, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, detectionDomain.EndpointScanning, events[0].Type)
	assert.Equal(t, []string{"Malicious payload pattern"}, events[0].Anomalies)
	assert.Equal(t, "u1", events[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLEventRepository_MarkResolved(t *testing.T) {
	t.Run("updates resolved flag", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		id := uuid.Must(uuid.NewV7())
		mock.ExpectExec("UPDATE intrusion_events SET resolved").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLEventRepository(db)
		require.NoError(t, repo.MarkResolved(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		id := uuid.Must(uuid.NewV7())
		mock.ExpectExec("UPDATE intrusion_events SET resolved").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPostgreSQLEventRepository(db)
		err = repo.MarkResolved(context.Background(), id)
		assert.ErrorIs(t, err, detectionDomain.ErrEventNotFound)
	})
}

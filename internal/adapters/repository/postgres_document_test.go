package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockmanager/core/internal/domain/entities"
)

func setupPostgres(t *testing.T) (*PostgresDocumentStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewPostgresDocumentStore(sqlx.NewDb(db, "postgres")).(*PostgresDocumentStore)
	return store, mock
}

func TestPostgresDocumentStore_EnsureExists(t *testing.T) {
	ctx := context.Background()
	store, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO item_documents (name, body)`)).
		WithArgs("data.json", "[]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.EnsureExists(ctx, "data.json"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Read(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantData []byte
		wantErr  error
	}{
		{
			name: "existing document",
			setup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"body"}).AddRow(`[{"id": 1}]`)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM item_documents WHERE name = $1`)).
					WithArgs("data.json").
					WillReturnRows(rows)
			},
			wantData: []byte(`[{"id": 1}]`),
		},
		{
			name: "missing document",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM item_documents WHERE name = $1`)).
					WithArgs("data.json").
					WillReturnRows(sqlmock.NewRows([]string{"body"}))
			},
			wantData: nil,
		},
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM item_documents WHERE name = $1`)).
					WithArgs("data.json").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: entities.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupPostgres(t)
			tt.setup(mock)

			data, err := store.Read(context.Background(), "data.json")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantData, data)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresDocumentStore_Write(t *testing.T) {
	ctx := context.Background()
	store, mock := setupPostgres(t)

	query := regexp.QuoteMeta(`ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body`)
	mock.ExpectExec(query).
		WithArgs("data.json", "[]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).
		WithArgs("data.json", "[]").
		WillReturnError(errors.New("disk full"))

	require.NoError(t, store.Write(ctx, "data.json", []byte("[]")))
	assert.ErrorIs(t, store.Write(ctx, "data.json", []byte("[]")), entities.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_HealthCheck(t *testing.T) {
	ctx := context.Background()
	store, mock := setupPostgres(t)

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	assert.NoError(t, store.HealthCheck(ctx))
	assert.ErrorIs(t, store.HealthCheck(ctx), entities.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/ports"
)

// PostgresDocumentStore keeps each item document as one row of item_documents
type PostgresDocumentStore struct {
	db *sqlx.DB
}

// NewPostgresDocumentStore creates a new document store over db
func NewPostgresDocumentStore(db *sqlx.DB) ports.DocumentStore {
	return &PostgresDocumentStore{db: db}
}

func (s *PostgresDocumentStore) EnsureExists(ctx context.Context, key string) error {
	query := `
		INSERT INTO item_documents (name, body)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, key, string(emptyDocument)); err != nil {
		return fmt.Errorf("%w: ensure document %s: %v", entities.ErrStorage, key, err)
	}
	return nil
}

func (s *PostgresDocumentStore) Read(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT body FROM item_documents WHERE name = $1`

	var body string
	err := s.db.GetContext(ctx, &body, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read document %s: %v", entities.ErrStorage, key, err)
	}

	return []byte(body), nil
}

func (s *PostgresDocumentStore) Write(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO item_documents (name, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("%w: write document %s: %v", entities.ErrStorage, key, err)
	}
	return nil
}

func (s *PostgresDocumentStore) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: database ping: %v", entities.ErrStorage, err)
	}
	return nil
}

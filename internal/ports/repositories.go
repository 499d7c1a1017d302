package ports

import (
	"context"

	"github.com/stockmanager/core/internal/domain/entities"
)

// DocumentStore reads and writes the backing document as an opaque byte blob.
// The key is a file path, a Redis key or a row name depending on the driver.
type DocumentStore interface {
	// EnsureExists creates the document containing an empty collection if it is missing
	EnsureExists(ctx context.Context, key string) error
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the whole document
	Write(ctx context.Context, key string, data []byte) error
	HealthCheck(ctx context.Context) error
}

// ItemRepository defines the interface for item data operations
type ItemRepository interface {
	GetAll(ctx context.Context) []entities.Item
	GetByID(ctx context.Context, id int64) (entities.Item, bool)
	Add(ctx context.Context, name string, stock, price int) (entities.Item, error)
	// Update returns a nil item when no item carries id
	Update(ctx context.Context, id int64, name string, stock, price int) (*entities.Item, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) []entities.Item
	Count(ctx context.Context) int
}

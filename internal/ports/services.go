package ports

import (
	"context"

	"github.com/stockmanager/core/internal/domain/entities"
)

// ItemService interface for inventory operations used by the transports
type ItemService interface {
	ListItems(ctx context.Context, query string) []entities.Item
	GetItem(ctx context.Context, id int64) (*entities.Item, error)
	CreateItem(ctx context.Context, req CreateItemRequest) (*entities.Item, error)
	UpdateItem(ctx context.Context, id int64, req UpdateItemRequest) (*entities.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	Summary(ctx context.Context, query string) entities.Summary
}

// Request/Response Types

type CreateItemRequest struct {
	Name  string `json:"name" form:"name" validate:"required,max=255"`
	Stock int    `json:"stock" form:"stock" validate:"gte=0"`
	Price int    `json:"price" form:"price" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Name  string `json:"name" form:"name" validate:"required,max=255"`
	Stock int    `json:"stock" form:"stock" validate:"gte=0"`
	Price int    `json:"price" form:"price" validate:"gte=0"`
}

type ItemListResponse struct {
	Items   []entities.Item  `json:"items"`
	Query   string           `json:"query,omitempty"`
	Summary entities.Summary `json:"summary"`
}

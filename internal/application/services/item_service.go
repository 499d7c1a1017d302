package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// ItemService handles inventory operations on top of the item repository
type ItemService struct {
	itemRepo ports.ItemRepository
	logger   *logger.Logger
}

// NewItemService creates a new item service
func NewItemService(itemRepo ports.ItemRepository, logger *logger.Logger) *ItemService {
	return &ItemService{
		itemRepo: itemRepo,
		logger:   logger,
	}
}

// ListItems returns the items whose name contains query. A blank query lists everything.
func (s *ItemService) ListItems(ctx context.Context, query string) []entities.Item {
	return s.itemRepo.Search(ctx, strings.TrimSpace(query))
}

// GetItem retrieves an item by ID
func (s *ItemService) GetItem(ctx context.Context, id int64) (*entities.Item, error) {
	item, ok := s.itemRepo.GetByID(ctx, id)
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, entities.ErrItemNotFound)
	}

	return &item, nil
}

// CreateItem adds a new item
func (s *ItemService) CreateItem(ctx context.Context, req ports.CreateItemRequest) (*entities.Item, error) {
	item, err := s.itemRepo.Add(ctx, strings.TrimSpace(req.Name), req.Stock, req.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.LogItemAction("create", item.ID, map[string]interface{}{
		"name":  item.Name,
		"stock": item.Stock,
		"price": item.Price,
	})

	return &item, nil
}

// UpdateItem replaces name, stock and price of an existing item
func (s *ItemService) UpdateItem(ctx context.Context, id int64, req ports.UpdateItemRequest) (*entities.Item, error) {
	item, err := s.itemRepo.Update(ctx, id, strings.TrimSpace(req.Name), req.Stock, req.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, entities.ErrItemNotFound)
	}

	s.logger.LogItemAction("update", item.ID, map[string]interface{}{
		"name":  item.Name,
		"stock": item.Stock,
		"price": item.Price,
	})

	return item, nil
}

// DeleteItem removes an item. Deleting an unknown id succeeds.
func (s *ItemService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.LogItemAction("delete", id, nil)

	return nil
}

// Summary aggregates the items matching query
func (s *ItemService) Summary(ctx context.Context, query string) entities.Summary {
	return entities.Summarize(s.ListItems(ctx, query))
}

var _ ports.ItemService = (*ItemService)(nil)

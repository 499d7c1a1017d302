package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// MockItemRepository records calls made by the service
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) GetAll(ctx context.Context) []entities.Item {
	args := m.Called(ctx)
	return args.Get(0).([]entities.Item)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id int64) (entities.Item, bool) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Item), args.Bool(1)
}

func (m *MockItemRepository) Add(ctx context.Context, name string, stock, price int) (entities.Item, error) {
	args := m.Called(ctx, name, stock, price)
	return args.Get(0).(entities.Item), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, id int64, name string, stock, price int) (*entities.Item, error) {
	args := m.Called(ctx, id, name, stock, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Item), args.Error(1)
}

func (m *MockItemRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemRepository) Search(ctx context.Context, keyword string) []entities.Item {
	args := m.Called(ctx, keyword)
	return args.Get(0).([]entities.Item)
}

func (m *MockItemRepository) Count(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

var keyboard = entities.Item{ID: 1700000000, Name: "Keyboard", Stock: 20, Price: 150000}

func newTestService(repo *MockItemRepository) *ItemService {
	return NewItemService(repo, logger.NewNop())
}

func TestItemService_ListItems(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectedKey string
	}{
		{name: "blank query lists everything", query: "   ", expectedKey: ""},
		{name: "query is trimmed", query: "  key ", expectedKey: "key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockItemRepository)
			repo.On("Search", mock.Anything, tt.expectedKey).Return([]entities.Item{keyboard})

			items := newTestService(repo).ListItems(context.Background(), tt.query)

			assert.Equal(t, []entities.Item{keyboard}, items)
			repo.AssertExpectations(t)
		})
	}
}

func TestItemService_GetItem(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockItemRepository)
		expected    *entities.Item
		expectedErr error
	}{
		{
			name: "found",
			setupMock: func(repo *MockItemRepository) {
				repo.On("GetByID", mock.Anything, keyboard.ID).Return(keyboard, true)
			},
			expected: &keyboard,
		},
		{
			name: "not found",
			setupMock: func(repo *MockItemRepository) {
				repo.On("GetByID", mock.Anything, keyboard.ID).Return(entities.Item{}, false)
			},
			expectedErr: entities.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockItemRepository)
			tt.setupMock(repo)

			item, err := newTestService(repo).GetItem(context.Background(), keyboard.ID)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, item)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, item)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestItemService_CreateItem(t *testing.T) {
	invalid := fmt.Errorf("%w: stock must be 0 or greater", entities.ErrValidation)

	tests := []struct {
		name        string
		req         ports.CreateItemRequest
		setupMock   func(*MockItemRepository)
		expectedErr error
	}{
		{
			name: "created with trimmed name",
			req:  ports.CreateItemRequest{Name: " Keyboard ", Stock: 20, Price: 150000},
			setupMock: func(repo *MockItemRepository) {
				repo.On("Add", mock.Anything, "Keyboard", 20, 150000).Return(keyboard, nil)
			},
		},
		{
			name: "validation error is propagated",
			req:  ports.CreateItemRequest{Name: "Keyboard", Stock: -1, Price: 150000},
			setupMock: func(repo *MockItemRepository) {
				repo.On("Add", mock.Anything, "Keyboard", -1, 150000).Return(entities.Item{}, invalid)
			},
			expectedErr: entities.ErrValidation,
		},
		{
			name: "storage error is propagated",
			req:  ports.CreateItemRequest{Name: "Keyboard", Stock: 1, Price: 1},
			setupMock: func(repo *MockItemRepository) {
				repo.On("Add", mock.Anything, "Keyboard", 1, 1).
					Return(entities.Item{}, fmt.Errorf("%w: disk full", entities.ErrStorage))
			},
			expectedErr: entities.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockItemRepository)
			tt.setupMock(repo)

			item, err := newTestService(repo).CreateItem(context.Background(), tt.req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, item)
			} else {
				require.NoError(t, err)
				assert.Equal(t, &keyboard, item)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestItemService_UpdateItem(t *testing.T) {
	updated := entities.Item{ID: keyboard.ID, Name: "Keyboard Mechanical", Stock: 5, Price: 200000}
	req := ports.UpdateItemRequest{Name: "Keyboard Mechanical", Stock: 5, Price: 200000}

	tests := []struct {
		name        string
		setupMock   func(*MockItemRepository)
		expectedErr error
	}{
		{
			name: "updated",
			setupMock: func(repo *MockItemRepository) {
				repo.On("Update", mock.Anything, keyboard.ID, req.Name, req.Stock, req.Price).Return(&updated, nil)
			},
		},
		{
			name: "no item carries id",
			setupMock: func(repo *MockItemRepository) {
				repo.On("Update", mock.Anything, keyboard.ID, req.Name, req.Stock, req.Price).Return(nil, nil)
			},
			expectedErr: entities.ErrItemNotFound,
		},
		{
			name: "storage error",
			setupMock: func(repo *MockItemRepository) {
				repo.On("Update", mock.Anything, keyboard.ID, req.Name, req.Stock, req.Price).
					Return(nil, fmt.Errorf("%w: disk full", entities.ErrStorage))
			},
			expectedErr: entities.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockItemRepository)
			tt.setupMock(repo)

			item, err := newTestService(repo).UpdateItem(context.Background(), keyboard.ID, req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, item)
			} else {
				require.NoError(t, err)
				assert.Equal(t, &updated, item)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestItemService_DeleteItem(t *testing.T) {
	repo := new(MockItemRepository)
	repo.On("Delete", mock.Anything, int64(1)).Return(nil)
	repo.On("Delete", mock.Anything, int64(2)).Return(errors.New("disk full"))
	svc := newTestService(repo)

	assert.NoError(t, svc.DeleteItem(context.Background(), 1))
	assert.Error(t, svc.DeleteItem(context.Background(), 2))
	repo.AssertExpectations(t)
}

func TestItemService_Summary(t *testing.T) {
	repo := new(MockItemRepository)
	repo.On("Search", mock.Anything, "").Return([]entities.Item{
		keyboard,
		{ID: 2, Name: "Mouse", Stock: 3, Price: 75000},
	})

	summary := newTestService(repo).Summary(context.Background(), "")

	assert.Equal(t, entities.Summary{
		TotalItems:    2,
		LowStockItems: 1,
		TotalUnits:    23,
		TotalValue:    20*150000 + 3*75000,
	}, summary)
	repo.AssertExpectations(t)
}

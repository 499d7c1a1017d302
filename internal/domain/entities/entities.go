package entities

import (
	"errors"
	"math"
	"strings"
)

// Common errors
var (
	ErrValidation   = errors.New("validation failed")
	ErrItemNotFound = errors.New("item not found")
	ErrStorage      = errors.New("storage error")
)

const (
	// LowStockThreshold is the stock level below which an item is flagged as running low
	LowStockThreshold = 5
	// MaxNameLength is the longest accepted item name, in characters
	MaxNameLength = 255
)

// Item represents one inventory record
type Item struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Price int    `json:"price"`
}

// IsLowStock reports whether the item should carry the low-stock badge
func (i Item) IsLowStock() bool {
	return i.Stock < LowStockThreshold
}

// StockValue returns stock multiplied by unit price, clamped to the int64 range
func (i Item) StockValue() int64 {
	return saturatingMul(int64(i.Stock), int64(i.Price))
}

// MatchesKeyword reports whether the item name contains keyword, ignoring case.
// An empty keyword matches every item.
func (i Item) MatchesKeyword(keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.Name), strings.ToLower(keyword))
}

// Summary aggregates a list of items for the dashboard header
type Summary struct {
	TotalItems    int   `json:"total_items"`
	LowStockItems int   `json:"low_stock_items"`
	TotalUnits    int64 `json:"total_units"`
	TotalValue    int64 `json:"total_value"`
}

// Summarize builds a Summary over items
func Summarize(items []Item) Summary {
	var s Summary
	for _, item := range items {
		s.TotalItems++
		if item.IsLowStock() {
			s.LowStockItems++
		}
		s.TotalUnits = saturatingAdd(s.TotalUnits, int64(item.Stock))
		s.TotalValue = saturatingAdd(s.TotalValue, item.StockValue())
	}
	return s
}

func saturatingAdd(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

func saturatingMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b == a && !(a == -1 && b == math.MinInt64) && !(b == -1 && a == math.MinInt64) {
		return p
	}
	if (a < 0) == (b < 0) {
		return math.MaxInt64
	}
	return math.MinInt64
}

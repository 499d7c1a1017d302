package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// itemRecord is the on-disk shape of an item. The field names are part of the
// document format and must not change.
type itemRecord struct {
	ID    int64  `json:"id"`
	Name  string `json:"nama"`
	Stock int    `json:"stok"`
	Price int    `json:"harga"`
}

// itemFields carries the business rules checked before any mutation
type itemFields struct {
	Name  string `validate:"required,max=255"`
	Stock int    `validate:"gte=0"`
	Price int    `validate:"gte=0"`
}

// ItemStore holds the item collection in memory and mirrors it to a single
// document after every mutation. All operations are serialized by mu.
type ItemStore struct {
	mu       sync.Mutex
	docs     ports.DocumentStore
	key      string
	items    []entities.Item
	lastID   int64
	now      func() time.Time
	validate *validator.Validate
	logger   *logger.Logger
	ops      *prometheus.CounterVec
	unescape bool
}

// StoreOption customizes an ItemStore
type StoreOption func(*ItemStore)

// WithClock replaces the clock used to derive new ids
func WithClock(now func() time.Time) StoreOption {
	return func(s *ItemStore) { s.now = now }
}

// WithLogger sets the store logger
func WithLogger(l *logger.Logger) StoreOption {
	return func(s *ItemStore) { s.logger = l }
}

// WithOperationCounter counts operations by name and result
func WithOperationCounter(c *prometheus.CounterVec) StoreOption {
	return func(s *ItemStore) { s.ops = c }
}

// WithLegacyHTMLNames unescapes HTML entities in names on load. Documents
// written by the earlier PHP front end stored names already escaped, e.g.
// "Mouse &amp; Co"; the next write stores them in plain form.
func WithLegacyHTMLNames() StoreOption {
	return func(s *ItemStore) { s.unescape = true }
}

// NewOperationCounter builds the counter expected by WithOperationCounter
func NewOperationCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmanager_store_operations_total",
			Help: "Item store operations by name and result",
		},
		[]string{"operation", "result"},
	)
}

// NewItemStore creates the document if needed and loads the collection from it.
// A document that cannot be decoded is treated as an empty collection; I/O
// failures are returned.
func NewItemStore(ctx context.Context, docs ports.DocumentStore, key string, opts ...StoreOption) (*ItemStore, error) {
	s := &ItemStore{
		docs:     docs,
		key:      key,
		items:    []entities.Item{},
		now:      time.Now,
		validate: validator.New(),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("item_store")

	if err := docs.EnsureExists(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to initialise item document: %w", err)
	}

	start := time.Now()
	data, err := docs.Read(ctx, key)
	s.logger.LogStorageOperation("read", key, len(data), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to load item document: %w", err)
	}

	s.items = s.decode(data)
	for _, item := range s.items {
		if item.ID > s.lastID {
			s.lastID = item.ID
		}
	}

	s.logger.Infow("Item document loaded", "document", key, "items", len(s.items))
	return s, nil
}

func (s *ItemStore) decode(data []byte) []entities.Item {
	if len(bytes.TrimSpace(data)) == 0 {
		return []entities.Item{}
	}

	var records []itemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warnw("Item document is malformed, starting with an empty collection",
			"document", s.key,
			"error", err.Error(),
		)
		return []entities.Item{}
	}

	items := make([]entities.Item, 0, len(records))
	for _, r := range records {
		name := r.Name
		if s.unescape {
			name = html.UnescapeString(name)
		}
		items = append(items, entities.Item{ID: r.ID, Name: name, Stock: r.Stock, Price: r.Price})
	}
	return items
}

func encodeItems(items []entities.Item) ([]byte, error) {
	records := make([]itemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, itemRecord{ID: item.ID, Name: item.Name, Stock: item.Stock, Price: item.Price})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// persist writes the whole collection. Caller must hold mu.
func (s *ItemStore) persist(ctx context.Context) error {
	data, err := encodeItems(s.items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	start := time.Now()
	err = s.docs.Write(ctx, s.key, data)
	s.logger.LogStorageOperation("write", s.key, len(data), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to persist items: %w", err)
	}
	return nil
}

// nextID returns an id derived from the clock that is strictly greater than
// every id seen so far. Once the id space is exhausted at math.MaxInt64 it
// hands out the first unused id from the clock onwards instead. Caller must
// hold mu.
func (s *ItemStore) nextID() int64 {
	id := s.now().Unix()
	if id > s.lastID {
		s.lastID = id
		return id
	}
	if s.lastID < math.MaxInt64 {
		s.lastID++
		return s.lastID
	}
	return s.firstUnusedID(id)
}

// firstUnusedID scans upwards from id, wrapping to 1, for an id no item holds
func (s *ItemStore) firstUnusedID(id int64) int64 {
	used := make(map[int64]struct{}, len(s.items))
	for _, item := range s.items {
		used[item.ID] = struct{}{}
	}
	if id < 1 {
		id = 1
	}
	for {
		if _, ok := used[id]; !ok {
			return id
		}
		if id == math.MaxInt64 {
			id = 1
			continue
		}
		id++
	}
}

func (s *ItemStore) check(name string, stock, price int) error {
	err := s.validate.Struct(itemFields{Name: name, Stock: stock, Price: price})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "gte":
			msgs = append(msgs, strings.ToLower(fe.Field())+" must be 0 or greater")
		case "max":
			msgs = append(msgs, strings.ToLower(fe.Field())+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", entities.ErrValidation, strings.Join(msgs, ", "))
}

func (s *ItemStore) observe(op string, err error) {
	if s.ops == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, entities.ErrValidation):
		result = "invalid"
	case err != nil:
		result = "error"
	}
	s.ops.WithLabelValues(op, result).Inc()
}

// GetAll returns a copy of every item in insertion order
func (s *ItemStore) GetAll(ctx context.Context) []entities.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.items)
}

// GetByID returns the first item carrying id
func (s *ItemStore) GetByID(ctx context.Context, id int64) (entities.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return entities.Item{}, false
}

// Add appends a new item and persists the collection
func (s *ItemStore) Add(ctx context.Context, name string, stock, price int) (item entities.Item, err error) {
	defer func() { s.observe("add", err) }()

	if err := s.check(name, stock, price); err != nil {
		return entities.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item = entities.Item{ID: s.nextID(), Name: name, Stock: stock, Price: price}
	previous := s.items
	s.items = append(slices.Clip(s.items), item)

	if err := s.persist(ctx); err != nil {
		s.items = previous
		return entities.Item{}, err
	}
	return item, nil
}

// Update replaces name, stock and price of the item carrying id, keeping its
// position. The collection is persisted even when no item matches, in which
// case the returned item is nil.
func (s *ItemStore) Update(ctx context.Context, id int64, name string, stock, price int) (updated *entities.Item, err error) {
	defer func() { s.observe("update", err) }()

	if err := s.check(name, stock, price); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := slices.Clone(s.items)
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Name = name
			s.items[i].Stock = stock
			s.items[i].Price = price
			item := s.items[i]
			updated = &item
			break
		}
	}

	if err := s.persist(ctx); err != nil {
		s.items = previous
		return nil, err
	}
	return updated, nil
}

// Delete removes every item carrying id and persists the collection.
// Deleting a missing id is not an error.
func (s *ItemStore) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.observe("delete", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.items
	s.items = slices.DeleteFunc(slices.Clone(s.items), func(item entities.Item) bool {
		return item.ID == id
	})

	if err := s.persist(ctx); err != nil {
		s.items = previous
		return err
	}
	return nil
}

// Search returns the items whose name contains keyword, ignoring case, in
// insertion order. An empty keyword returns every item.
func (s *ItemStore) Search(ctx context.Context, keyword string) []entities.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keyword == "" {
		return slices.Clone(s.items)
	}

	matches := []entities.Item{}
	for _, item := range s.items {
		if item.MatchesKeyword(keyword) {
			matches = append(matches, item)
		}
	}
	return matches
}

// Count returns the number of items
func (s *ItemStore) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

var _ ports.ItemRepository = (*ItemStore)(nil)

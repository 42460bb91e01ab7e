package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"product-catalog/internal/catalog"

	"github.com/prometheus/client_golang/prometheus"
)

// Store is the persistence contract the service is written against. A
// non-positive limit on FindPage means "no limit".
type Store interface {
	FindPage(ctx context.Context, filter catalog.Filter, sort catalog.SortSpec, limit, offset int) ([]catalog.Product, int64, error)
	FindByID(ctx context.Context, id int64) (catalog.Product, error)
	Insert(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Update(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Delete(ctx context.Context, id int64) error
	DistinctCategories(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, event catalog.ProductEvent) error
}

// Counters groups the product mutation metrics registered in main.
type Counters struct {
	Created prometheus.Counter
	Updated prometheus.Counter
	Deleted prometheus.Counter
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	counters  Counters
}

func New(store Store, publisher Publisher, logger *slog.Logger, counters Counters) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		counters:  counters,
	}
}

// List returns one page of the full collection.
func (s *Service) List(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
	return s.page(ctx, catalog.Filter{}, req)
}

// Get returns the product with the given id, or catalog.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("store find %d: %w", id, err)
	}
	return p, nil
}

// Create validates the payload, assigns both timestamps, and persists the
// product. The store assigns the identifier.
func (s *Service) Create(ctx context.Context, in catalog.CreateProduct) (catalog.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := catalog.ValidateCreate(in); err != nil {
		return catalog.Product{}, err
	}

	now := time.Now().UTC()
	created, err := s.store.Insert(ctx, catalog.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return catalog.Product{}, fmt.Errorf("store insert: %w", err)
	}

	s.counters.Created.Inc()
	s.publish(ctx, catalog.EventCreated, created)
	return created, nil
}

// Update merges the supplied fields onto the stored product and refreshes
// UpdatedAt. An update carrying no fields is a no-op: the product is
// returned as stored, without a write and without touching UpdatedAt.
func (s *Service) Update(ctx context.Context, id int64, in catalog.ProductUpdate) (catalog.Product, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := catalog.ValidateUpdate(in); err != nil {
		return catalog.Product{}, err
	}

	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("store find %d: %w", id, err)
	}

	if in.Empty() {
		return existing, nil
	}

	in.ApplyTo(&existing)
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("store update %d: %w", id, err)
	}

	s.counters.Updated.Inc()
	s.publish(ctx, catalog.EventUpdated, updated)
	return updated, nil
}

// Delete removes the product and reports whether it existed. A missing id
// is not an error: (false, nil).
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("store find %d: %w", id, err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			// Raced with a concurrent delete.
			return false, nil
		}
		return false, fmt.Errorf("store delete %d: %w", id, err)
	}

	s.counters.Deleted.Inc()
	s.publish(ctx, catalog.EventDeleted, p)
	return true, nil
}

// Search pages through products whose name or description contains the term,
// ignoring case, ordered by name ascending.
func (s *Service) Search(ctx context.Context, term string, page, size int) (catalog.Page, error) {
	return s.page(ctx, catalog.Filter{Search: term}, nameAsc(page, size))
}

// ByCategory pages through products in the given category, matched
// case-insensitively, ordered by name ascending.
func (s *Service) ByCategory(ctx context.Context, category string, page, size int) (catalog.Page, error) {
	return s.page(ctx, catalog.Filter{Category: category}, nameAsc(page, size))
}

// Categories lists the distinct non-empty categories in ascending order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.store.DistinctCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("store categories: %w", err)
	}
	return categories, nil
}

// LowStock returns every product with stock at or below the threshold. A
// non-positive threshold falls back to the default. The result is not
// paginated; ordering is by id for reproducibility only.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]catalog.Product, error) {
	if threshold <= 0 {
		threshold = catalog.DefaultLowStockThreshold
	}
	items, _, err := s.store.FindPage(ctx, catalog.Filter{MaxStock: &threshold}, catalog.SortSpec{Column: "id"}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("store low stock: %w", err)
	}
	return items, nil
}

// PriceRange pages through products priced within [min, max], ordered by
// price ascending.
func (s *Service) PriceRange(ctx context.Context, min, max float64, page, size int) (catalog.Page, error) {
	req := catalog.PageRequest{Page: page, Size: size, SortBy: "price"}.Normalize()
	return s.page(ctx, catalog.Filter{MinPrice: &min, MaxPrice: &max}, req)
}

// CountByCategory counts the products in a category, ignoring case.
func (s *Service) CountByCategory(ctx context.Context, category string) (int64, error) {
	total, err := s.store.CountByCategory(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("store count category: %w", err)
	}
	return total, nil
}

// page is the single path from a filter and page request to a Page: it
// validates the sort, computes the window, and assembles the totals.
func (s *Service) page(ctx context.Context, filter catalog.Filter, req catalog.PageRequest) (catalog.Page, error) {
	req = req.Normalize()
	sort, err := req.Sort()
	if err != nil {
		return catalog.Page{}, err
	}

	items, total, err := s.store.FindPage(ctx, filter, sort, req.Size, req.Offset())
	if err != nil {
		return catalog.Page{}, fmt.Errorf("store page: %w", err)
	}
	return catalog.NewPage(items, total, req), nil
}

func (s *Service) publish(ctx context.Context, eventType string, p catalog.Product) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, catalog.ProductEvent{
		EventType: eventType,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("publish product event failed",
			"event_type", eventType,
			"product_id", p.ID,
			"error", err,
		)
	}
}

func nameAsc(page, size int) catalog.PageRequest {
	return catalog.PageRequest{Page: page, Size: size, SortBy: "name"}.Normalize()
}

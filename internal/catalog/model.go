package catalog

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a product id does not exist. It is an
	// expected outcome, callers check for it rather than treating it as fatal.
	ErrNotFound = errors.New("product not found")

	// ErrInvalidSortField is returned when a page request names a field that
	// is not sortable. Wrapped with the offending field name.
	ErrInvalidSortField = errors.New("invalid sort field")
)

const (
	EventsQueue  = "catalog.events"
	EventCreated = "product_created"
	EventUpdated = "product_updated"
	EventDeleted = "product_deleted"

	// DefaultLowStockThreshold is applied when a low-stock query does not
	// supply a positive threshold.
	DefaultLowStockThreshold = 5
)

type Product struct {
	ID          int64     `json:"id" example:"1"`
	Name        string    `json:"name" example:"Smartphone"`
	Description string    `json:"description,omitempty" example:"Flagship phone"`
	Price       float64   `json:"price" example:"999.99"`
	Category    string    `json:"category,omitempty" example:"Electronics"`
	Stock       int       `json:"stock" example:"10"`
	CreatedAt   time.Time `json:"createdAt" example:"2026-02-24T12:00:00Z"`
	UpdatedAt   time.Time `json:"updatedAt" example:"2026-02-24T12:00:00Z"`
}

// CreateProduct carries the caller-supplied fields of a new product.
type CreateProduct struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0,pricescale"`
	Category    string  `json:"category" validate:"omitempty,max=50"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// ProductUpdate is a partial update. A nil field means "leave unchanged";
// a non-nil field overwrites after validation.
type ProductUpdate struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0,pricescale"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
}

// Empty reports whether the update carries no fields at all.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil &&
		u.Category == nil && u.Stock == nil
}

// ApplyTo merges the non-nil fields onto p.
func (u ProductUpdate) ApplyTo(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
}

type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Stock     int       `json:"stock"`
	Timestamp time.Time `json:"timestamp"`
}

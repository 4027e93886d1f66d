package catalog

import (
	"github.com/merqado/concierge/pkg/geo"
)

// Store represents a storefront in the catalog. Coordinates are optional;
// stores without them are excluded whenever radius filtering is active.
type Store struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Verified    bool     `json:"verified"`
	Active      bool     `json:"active"`
}

// Coordinates returns the store location, or nil when unknown.
func (s Store) Coordinates() *geo.Point {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *s.Latitude, Lon: *s.Longitude}
}

// StoreRef is the denormalized store summary attached to products and
// promotions on read, so ranking needs no second lookup.
type StoreRef struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Coordinates returns the referenced store location, or nil when unknown.
func (r *StoreRef) Coordinates() *geo.Point {
	if r == nil || r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *r.Latitude, Lon: *r.Longitude}
}

// Product represents a catalog product. Store is populated on read.
type Product struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Store       *StoreRef `json:"store,omitempty"`
}

// Promotion represents a catalog promotion. Type participates in keyword
// matching alongside title and description. Store is populated on read.
type Promotion struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Store       *StoreRef `json:"store,omitempty"`
}

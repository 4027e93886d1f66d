package model

import (
	"github.com/merqado/concierge/internal/catalog"
)

// ChatRequest is the inbound payload of the conversational endpoint.
// Latitude and longitude must be provided together; radius is only
// meaningful alongside them. Intent, when set, forces the final response
// kind, and "chat" skips capability dispatch entirely.
type ChatRequest struct {
	Content   string   `json:"content"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	RadiusKm  int      `json:"radius,omitempty"`
	Count     int      `json:"count,omitempty"`
	Intent    string   `json:"intent,omitempty"`
}

// RankedProduct is a product with its ranking annotations. DistanceKm is
// null when either the caller or the store has no known coordinates.
type RankedProduct struct {
	catalog.Product
	DistanceKm *float64 `json:"distance_km"`
	Score      float64  `json:"score"`
}

// RankedStore is a store with its ranking annotations.
type RankedStore struct {
	catalog.Store
	DistanceKm *float64 `json:"distance_km"`
	Score      float64  `json:"score"`
}

// ChatResponse carries the assistant's reply. Exactly one of the list
// fields is populated, selected by Intent.
type ChatResponse struct {
	Content    string              `json:"content"`
	Intent     Intent              `json:"intent"`
	Products   []RankedProduct     `json:"products,omitempty"`
	Stores     []RankedStore       `json:"stores,omitempty"`
	Promotions []catalog.Promotion `json:"promotions,omitempty"`
}

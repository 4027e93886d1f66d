// Package catalog defines the catalog collaborator contract and the local
// read model the concierge queries during a conversation.
package catalog

import (
	"context"

	"github.com/merqado/concierge/pkg/geo"
)

// Query describes one catalog search. Keywords are matched case-insensitively
// as substrings; a query with no keywords matches nothing. When Origin is set,
// only entities whose store has known coordinates are returned, ordered by
// ascending distance, and RadiusKm (when positive) bounds that distance.
type Query struct {
	Keywords []string
	Origin   *geo.Point
	RadiusKm float64
	Limit    int
}

// Directory is the read contract the orchestration core depends on.
//
// Implementations must only ever surface entities belonging to stores that
// are both verified and active; callers cannot disable that restriction.
// Lookup methods return records in the requested-ID order, skipping unknown
// IDs, and apply the same verified/active restriction.
type Directory interface {
	SearchProducts(ctx context.Context, q Query) ([]int64, error)
	SearchStores(ctx context.Context, q Query) ([]int64, error)
	SearchPromotions(ctx context.Context, q Query) ([]int64, error)

	ProductsByID(ctx context.Context, ids []int64) ([]Product, error)
	StoresByID(ctx context.Context, ids []int64) ([]Store, error)
	PromotionsByID(ctx context.Context, ids []int64) ([]Promotion, error)
}

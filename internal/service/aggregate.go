package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/merqado/concierge/internal/catalog"
	"github.com/merqado/concierge/internal/model"
	"github.com/merqado/concierge/pkg/geo"
)

// Scoring weights. Relevance is binary: anything admitted by the keyword
// filter scores 1.0, so the blend only discriminates on distance among
// already-admitted entities.
const (
	relevanceWeight = 0.7
	proximityWeight = 0.3
	relevanceScore  = 1.0
)

// aggregator resolves accumulated identifiers into full records and builds
// the outward response for the final intent.
type aggregator struct {
	directory catalog.Directory
}

// build assembles the response for the intent's identifier set. The other
// sets are ignored: one request answers with exactly one result kind.
// Products and stores are distance-scored and re-checked against the radius;
// promotions are returned in collection order, unscored.
func (g *aggregator) build(ctx context.Context, text string, intent model.Intent, acc *accumulator, count int, origin *geo.Point, radiusKm int) (*model.ChatResponse, error) {
	resp := &model.ChatResponse{Content: text, Intent: intent}

	switch intent {
	case model.IntentProduct:
		products, err := g.directory.ProductsByID(ctx, acc.products.values())
		if err != nil {
			return nil, fmt.Errorf("resolving products: %w", err)
		}
		resp.Products = rankProducts(products, count, origin, radiusKm)
	case model.IntentStore:
		stores, err := g.directory.StoresByID(ctx, acc.stores.values())
		if err != nil {
			return nil, fmt.Errorf("resolving stores: %w", err)
		}
		resp.Stores = rankStores(stores, count, origin, radiusKm)
	case model.IntentPromotion:
		promotions, err := g.directory.PromotionsByID(ctx, acc.promotions.values())
		if err != nil {
			return nil, fmt.Errorf("resolving promotions: %w", err)
		}
		if count > 0 && len(promotions) > count {
			promotions = promotions[:count]
		}
		resp.Promotions = promotions
	case model.IntentChat:
		// Plain reply, no structured list.
	}

	return resp, nil
}

func rankProducts(products []catalog.Product, count int, origin *geo.Point, radiusKm int) []model.RankedProduct {
	ranked := make([]model.RankedProduct, 0, len(products))
	for _, p := range products {
		distance, score, ok := scoreEntity(p.Store.Coordinates(), origin, radiusKm)
		if !ok {
			continue
		}
		ranked = append(ranked, model.RankedProduct{Product: p, DistanceKm: distance, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if count > 0 && len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}

func rankStores(stores []catalog.Store, count int, origin *geo.Point, radiusKm int) []model.RankedStore {
	ranked := make([]model.RankedStore, 0, len(stores))
	for _, st := range stores {
		distance, score, ok := scoreEntity(st.Coordinates(), origin, radiusKm)
		if !ok {
			continue
		}
		ranked = append(ranked, model.RankedStore{Store: st, DistanceKm: distance, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if count > 0 && len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}

// scoreEntity computes the blended score for one entity. Without caller
// coordinates the distance term is omitted and the score is the relevance
// alone. With caller coordinates, entities lacking store coordinates or
// sitting outside the radius are dropped, even if a search admitted them
// earlier in the conversation.
func scoreEntity(loc, origin *geo.Point, radiusKm int) (*float64, float64, bool) {
	if origin == nil {
		return nil, relevanceScore, true
	}
	if loc == nil {
		return nil, 0, false
	}

	d := geo.DistanceKm(*origin, *loc)
	if radiusKm > 0 && d > float64(radiusKm) {
		return nil, 0, false
	}

	score := relevanceWeight*relevanceScore + proximityWeight*geo.ProximityScore(d)
	return &d, score, true
}

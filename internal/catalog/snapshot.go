package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/merqado/concierge/pkg/geo"
	"github.com/merqado/concierge/pkg/metrics"
)

// Snapshot is the in-memory Directory implementation, kept current by the
// catalog event ingest. Safe for concurrent use.
type Snapshot struct {
	mu         sync.RWMutex
	stores     map[int64]Store
	products   map[int64]Product
	promotions map[int64]Promotion
}

// NewSnapshot creates an empty catalog snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		stores:     make(map[int64]Store),
		products:   make(map[int64]Product),
		promotions: make(map[int64]Promotion),
	}
}

// UpsertStore adds or replaces a store.
func (s *Snapshot) UpsertStore(st Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[st.ID] = st
	metrics.CatalogEntities.WithLabelValues("store").Set(float64(len(s.stores)))
}

// DeleteStore removes a store. Products and promotions referencing it stop
// being surfaced until the store reappears.
func (s *Snapshot) DeleteStore(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, id)
	metrics.CatalogEntities.WithLabelValues("store").Set(float64(len(s.stores)))
}

// UpsertProduct adds or replaces a product. Any inbound store reference is
// discarded; reads join against the store table.
func (s *Snapshot) UpsertProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Store = nil
	s.products[p.ID] = p
	metrics.CatalogEntities.WithLabelValues("product").Set(float64(len(s.products)))
}

// DeleteProduct removes a product.
func (s *Snapshot) DeleteProduct(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	metrics.CatalogEntities.WithLabelValues("product").Set(float64(len(s.products)))
}

// UpsertPromotion adds or replaces a promotion. Any inbound store reference
// is discarded; reads join against the store table.
func (s *Snapshot) UpsertPromotion(pm Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm.Store = nil
	s.promotions[pm.ID] = pm
	metrics.CatalogEntities.WithLabelValues("promotion").Set(float64(len(s.promotions)))
}

// DeletePromotion removes a promotion.
func (s *Snapshot) DeletePromotion(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.promotions, id)
	metrics.CatalogEntities.WithLabelValues("promotion").Set(float64(len(s.promotions)))
}

// Counts reports the number of entities currently held.
func (s *Snapshot) Counts() (stores, products, promotions int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stores), len(s.products), len(s.promotions)
}

// SearchProducts returns IDs of products matching the query, restricted to
// verified and active stores.
func (s *Snapshot) SearchProducts(ctx context.Context, q Query) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []hit
	for id, p := range s.products {
		st, ok := s.stores[p.StoreID]
		if !ok || !st.Verified || !st.Active {
			continue
		}
		if !matchAny(q.Keywords, p.Name, p.Description) {
			continue
		}
		d, ok := storeWithin(st, q.Origin, q.RadiusKm)
		if !ok {
			continue
		}
		hits = append(hits, hit{id: id, dist: d})
	}
	return rankHits(hits, q.Origin != nil, q.Limit), nil
}

// SearchStores returns IDs of stores matching the query.
func (s *Snapshot) SearchStores(ctx context.Context, q Query) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []hit
	for id, st := range s.stores {
		if !st.Verified || !st.Active {
			continue
		}
		if !matchAny(q.Keywords, st.Name, st.Description) {
			continue
		}
		d, ok := storeWithin(st, q.Origin, q.RadiusKm)
		if !ok {
			continue
		}
		hits = append(hits, hit{id: id, dist: d})
	}
	return rankHits(hits, q.Origin != nil, q.Limit), nil
}

// SearchPromotions returns IDs of promotions matching the query. The
// promotion type participates in keyword matching.
func (s *Snapshot) SearchPromotions(ctx context.Context, q Query) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []hit
	for id, pm := range s.promotions {
		st, ok := s.stores[pm.StoreID]
		if !ok || !st.Verified || !st.Active {
			continue
		}
		if !matchAny(q.Keywords, pm.Title, pm.Description, pm.Type) {
			continue
		}
		d, ok := storeWithin(st, q.Origin, q.RadiusKm)
		if !ok {
			continue
		}
		hits = append(hits, hit{id: id, dist: d})
	}
	return rankHits(hits, q.Origin != nil, q.Limit), nil
}

// ProductsByID resolves products in the requested order, skipping unknown
// IDs and products whose store is missing, unverified, or inactive.
func (s *Snapshot) ProductsByID(ctx context.Context, ids []int64) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		st, ok := s.stores[p.StoreID]
		if !ok || !st.Verified || !st.Active {
			continue
		}
		p.Store = refOf(st)
		out = append(out, p)
	}
	return out, nil
}

// StoresByID resolves stores in the requested order, skipping unknown,
// unverified, or inactive stores.
func (s *Snapshot) StoresByID(ctx context.Context, ids []int64) ([]Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Store, 0, len(ids))
	for _, id := range ids {
		st, ok := s.stores[id]
		if !ok || !st.Verified || !st.Active {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// PromotionsByID resolves promotions in the requested order, skipping
// unknown IDs and promotions whose store is missing, unverified, or inactive.
func (s *Snapshot) PromotionsByID(ctx context.Context, ids []int64) ([]Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Promotion, 0, len(ids))
	for _, id := range ids {
		pm, ok := s.promotions[id]
		if !ok {
			continue
		}
		st, ok := s.stores[pm.StoreID]
		if !ok || !st.Verified || !st.Active {
			continue
		}
		pm.Store = refOf(st)
		out = append(out, pm)
	}
	return out, nil
}

type hit struct {
	id   int64
	dist float64
}

// rankHits orders hits by ascending distance when an origin was given, with
// ID as the tie-break, otherwise by ID, then truncates to limit.
func rankHits(hits []hit, byDistance bool, limit int) []int64 {
	sort.Slice(hits, func(i, j int) bool {
		if byDistance && hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].id < hits[j].id
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// matchAny reports whether any keyword is a case-insensitive substring of
// the joined fields. No keywords matches nothing.
func matchAny(keywords []string, fields ...string) bool {
	if len(keywords) == 0 {
		return false
	}
	text := strings.ToLower(strings.Join(fields, " "))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// storeWithin reports the distance from origin to the store and whether the
// store is admissible. With no origin every store passes at distance zero;
// with an origin the store needs known coordinates, and when radiusKm is
// positive the distance must not exceed it.
func storeWithin(st Store, origin *geo.Point, radiusKm float64) (float64, bool) {
	if origin == nil {
		return 0, true
	}
	coords := st.Coordinates()
	if coords == nil {
		return 0, false
	}
	d := geo.DistanceKm(*origin, *coords)
	if radiusKm > 0 && d > radiusKm {
		return 0, false
	}
	return d, true
}

func refOf(st Store) *StoreRef {
	return &StoreRef{ID: st.ID, Name: st.Name, Latitude: st.Latitude, Longitude: st.Longitude}
}

package service

import (
	"github.com/merqado/concierge/internal/capability"
)

// accumulator collects entity identifiers across loop iterations. Each set
// deduplicates while preserving first-seen order, so the final ranking can
// break ties by fetch order. Owned by a single in-flight request.
type accumulator struct {
	products   *idSet
	stores     *idSet
	promotions *idSet
}

func newAccumulator() *accumulator {
	return &accumulator{
		products:   newIDSet(),
		stores:     newIDSet(),
		promotions: newIDSet(),
	}
}

// merge folds one capability result into the accumulator.
func (a *accumulator) merge(res *capability.Result) {
	a.products.add(res.ProductIDs...)
	a.stores.add(res.StoreIDs...)
	a.promotions.add(res.PromotionIDs...)
}

// idSet is an insertion-ordered set of identifiers.
type idSet struct {
	seen map[int64]struct{}
	ids  []int64
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[int64]struct{})}
}

func (s *idSet) add(ids ...int64) {
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

func (s *idSet) values() []int64 { return s.ids }

func (s *idSet) empty() bool { return len(s.ids) == 0 }

package service

import (
	"context"
	"math"
	"testing"

	"github.com/merqado/concierge/internal/catalog"
	"github.com/merqado/concierge/internal/model"
	"github.com/merqado/concierge/pkg/geo"
)

var cebu = geo.Point{Lat: 10.3157, Lon: 123.8854}

func storeSet(ids ...int64) *accumulator {
	acc := newAccumulator()
	acc.stores.add(ids...)
	return acc
}

func TestBuildRanksStoresByProximity(t *testing.T) {
	// Fetch order is far store first. Ranking must put the closer one on top.
	dir := &mockDirectory{
		storesByIDFn: func(ctx context.Context, ids []int64) ([]catalog.Store, error) {
			return []catalog.Store{
				{ID: 3, Name: "Lapu-Lapu Gadget Stop", Latitude: ptr(10.3103), Longitude: ptr(123.9494), Verified: true, Active: true},
				{ID: 2, Name: "Mandaue Gadget Stop", Latitude: ptr(10.3236), Longitude: ptr(123.9221), Verified: true, Active: true},
			}, nil
		},
	}
	g := &aggregator{directory: dir}

	resp, err := g.build(context.Background(), "here", model.IntentStore, storeSet(3, 2), 5, &cebu, 15)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(resp.Stores) != 2 {
		t.Fatalf("len(stores) = %d, want 2", len(resp.Stores))
	}
	if resp.Stores[0].ID != 2 || resp.Stores[1].ID != 3 {
		t.Errorf("order = [%d %d], want closest first [2 3]", resp.Stores[0].ID, resp.Stores[1].ID)
	}
	if resp.Stores[0].Score <= resp.Stores[1].Score {
		t.Errorf("scores not descending: %v then %v", resp.Stores[0].Score, resp.Stores[1].Score)
	}

	near := resp.Stores[0]
	if near.DistanceKm == nil || math.Abs(*near.DistanceKm-4.18) > 0.25 {
		t.Errorf("near distance = %v, want about 4.18", near.DistanceKm)
	}
	wantScore := relevanceWeight*relevanceScore + proximityWeight*(1-*near.DistanceKm/50)
	if math.Abs(near.Score-wantScore) > 1e-9 {
		t.Errorf("near score = %v, want %v", near.Score, wantScore)
	}
}

func TestBuildTieBreaksByFetchOrder(t *testing.T) {
	// Identical coordinates give identical scores. First-seen order wins.
	same := func(id int64, name string) catalog.Store {
		return catalog.Store{ID: id, Name: name, Latitude: ptr(10.3236), Longitude: ptr(123.9221), Verified: true, Active: true}
	}
	dir := &mockDirectory{
		storesByIDFn: func(ctx context.Context, ids []int64) ([]catalog.Store, error) {
			return []catalog.Store{same(9, "Second Branch"), same(4, "First Branch")}, nil
		},
	}
	g := &aggregator{directory: dir}

	resp, err := g.build(context.Background(), "here", model.IntentStore, storeSet(9, 4), 5, &cebu, 15)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(resp.Stores) != 2 || resp.Stores[0].ID != 9 || resp.Stores[1].ID != 4 {
		t.Errorf("tie order = %+v, want fetch order [9 4]", resp.Stores)
	}
}

func TestBuildWithoutOriginScoresFlat(t *testing.T) {
	dir := &mockDirectory{
		storesByIDFn: func(ctx context.Context, ids []int64) ([]catalog.Store, error) {
			return []catalog.Store{
				{ID: 1, Name: "A", Latitude: ptr(10.3236), Longitude: ptr(123.9221), Verified: true, Active: true},
				{ID: 2, Name: "B", Verified: true, Active: true},
				{ID: 3, Name: "C", Latitude: ptr(10.3103), Longitude: ptr(123.9494), Verified: true, Active: true},
			}, nil
		},
	}
	g := &aggregator{directory: dir}

	resp, err := g.build(context.Background(), "here", model.IntentStore, storeSet(1, 2, 3), 2, nil, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(resp.Stores) != 2 {
		t.Fatalf("len(stores) = %d, want truncation to 2", len(resp.Stores))
	}
	if resp.Stores[0].ID != 1 || resp.Stores[1].ID != 2 {
		t.Errorf("order = [%d %d], want fetch order [1 2]", resp.Stores[0].ID, resp.Stores[1].ID)
	}
	for _, st := range resp.Stores {
		if st.Score != 1.0 {
			t.Errorf("store %d score = %v, want 1.0 without an origin", st.ID, st.Score)
		}
		if st.DistanceKm != nil {
			t.Errorf("store %d distance = %v, want null without an origin", st.ID, *st.DistanceKm)
		}
	}
}

func TestBuildDropsStoresWithoutCoordinates(t *testing.T) {
	dir := &mockDirectory{
		storesByIDFn: func(ctx context.Context, ids []int64) ([]catalog.Store, error) {
			return []catalog.Store{
				{ID: 1, Name: "Located", Latitude: ptr(10.3236), Longitude: ptr(123.9221), Verified: true, Active: true},
				{ID: 2, Name: "Unlocated", Verified: true, Active: true},
			}, nil
		},
	}
	g := &aggregator{directory: dir}

	resp, err := g.build(context.Background(), "here", model.IntentStore, storeSet(1, 2), 5, &cebu, 15)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(resp.Stores) != 1 || resp.Stores[0].ID != 1 {
		t.Errorf("stores = %+v, want only the located store once an origin is set", resp.Stores)
	}
}

func TestBuildProductsScoreThroughStoreLocation(t *testing.T) {
	dir := &mockDirectory{
		productsByIDFn: func(ctx context.Context, ids []int64) ([]catalog.Product, error) {
			return []catalog.Product{
				{ID: 11, StoreID: 3, Name: "Far Keyboard", Store: &catalog.StoreRef{ID: 3, Latitude: ptr(10.3103), Longitude: ptr(123.9494)}},
				{ID: 12, StoreID: 2, Name: "Near Keyboard", Store: &catalog.StoreRef{ID: 2, Latitude: ptr(10.3236), Longitude: ptr(123.9221)}},
				{ID: 13, StoreID: 99, Name: "Orphan Keyboard", Store: nil},
			}, nil
		},
	}
	acc := newAccumulator()
	acc.products.add(11, 12, 13)
	g := &aggregator{directory: dir}

	resp, err := g.build(context.Background(), "here", model.IntentProduct, acc, 5, &cebu, 15)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(resp.Products) != 2 {
		t.Fatalf("len(products) = %d, want 2 (orphan dropped)", len(resp.Products))
	}
	if resp.Products[0].ID != 12 || resp.Products[1].ID != 11 {
		t.Errorf("order = [%d %d], want nearest store first [12 11]", resp.Products[0].ID, resp.Products[1].ID)
	}
}

func TestBuildPromotionsKeepCollectionOrder(t *testing.T) {
	dir := &mockDirectory{
		promotionsByIDFn: func(ctx context.Context, ids []int64) ([]catalog.Promotion, error) {
			return []catalog.Promotion{
				{ID: 31, Title: "Flash Sale"},
				{ID: 32, Title: "Weekend Discount"},
				{ID: 33, Title: "Clearance"},
			}, nil
		},
	}
	acc := newAccumulator()
	acc.promotions.add(31, 32, 33)
	g := &aggregator{directory: dir}

	resp, err := g.build(context.Background(), "here", model.IntentPromotion, acc, 2, &cebu, 15)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(resp.Promotions) != 2 {
		t.Fatalf("len(promotions) = %d, want truncation to 2", len(resp.Promotions))
	}
	if resp.Promotions[0].ID != 31 || resp.Promotions[1].ID != 32 {
		t.Errorf("promotions = %+v, want collection order [31 32]", resp.Promotions)
	}
}

func TestBuildChatCarriesNoLists(t *testing.T) {
	acc := newAccumulator()
	acc.products.add(1, 2)
	g := &aggregator{directory: &mockDirectory{}}

	resp, err := g.build(context.Background(), "just chatting", model.IntentChat, acc, 3, nil, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if resp.Products != nil || resp.Stores != nil || resp.Promotions != nil {
		t.Errorf("chat response carries lists: %+v", resp)
	}
	if resp.Content != "just chatting" {
		t.Errorf("content = %q", resp.Content)
	}
}

package catalog

import (
	"context"
	"testing"
)

func TestIngestApplyUpsertAndDelete(t *testing.T) {
	snap := NewSnapshot()
	in := NewIngest(nil, snap, "CATALOG", "test", newTestLogger())

	events := []struct {
		subject string
		data    string
	}{
		{"catalog.store.upsert", `{"id": 1, "name": "Cebu Tech Hub", "description": "electronics", "latitude": 10.3157, "longitude": 123.8854, "verified": true, "active": true}`},
		{"catalog.product.upsert", `{"id": 10, "store_id": 1, "name": "Mechanical Keyboard", "description": "blue switches", "price_cents": 249900}`},
		{"catalog.promotion.upsert", `{"id": 20, "store_id": 1, "title": "Keyboard Week", "description": "discounts", "type": "discount"}`},
	}
	for _, ev := range events {
		if err := in.Apply(ev.subject, []byte(ev.data)); err != nil {
			t.Fatalf("Apply(%s): %v", ev.subject, err)
		}
	}

	stores, products, promotions := snap.Counts()
	if stores != 1 || products != 1 || promotions != 1 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/1", stores, products, promotions)
	}

	got, err := snap.SearchProducts(context.Background(), Query{Keywords: []string{"keyboard"}})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("got %v, want [10]", got)
	}

	if err := in.Apply("catalog.product.delete", []byte(`{"id": 10}`)); err != nil {
		t.Fatalf("Apply delete: %v", err)
	}
	_, products, _ = snap.Counts()
	if products != 0 {
		t.Errorf("products = %d after delete, want 0", products)
	}
}

func TestIngestApplyRejectsMalformed(t *testing.T) {
	snap := NewSnapshot()
	in := NewIngest(nil, snap, "CATALOG", "test", newTestLogger())

	tests := []struct {
		name    string
		subject string
		data    string
	}{
		{name: "wrong root", subject: "orders.store.upsert", data: `{}`},
		{name: "unknown entity", subject: "catalog.warehouse.upsert", data: `{}`},
		{name: "unknown op", subject: "catalog.store.truncate", data: `{}`},
		{name: "short subject", subject: "catalog.store", data: `{}`},
		{name: "bad payload", subject: "catalog.store.upsert", data: `{"id": "not a number"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := in.Apply(tt.subject, []byte(tt.data)); err == nil {
				t.Errorf("Apply(%s) succeeded, want error", tt.subject)
			}
		})
	}

	if stores, products, promotions := snap.Counts(); stores+products+promotions != 0 {
		t.Errorf("malformed events mutated the snapshot: %d/%d/%d", stores, products, promotions)
	}
}

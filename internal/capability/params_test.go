package capability

import (
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestParseSearchParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
		check   func(t *testing.T, p *SearchParams)
	}{
		{
			name: "minimal",
			raw:  `{"query": "budget keyboards"}`,
			check: func(t *testing.T, p *SearchParams) {
				if p.Query != "budget keyboards" {
					t.Errorf("query = %q", p.Query)
				}
				if p.MaxResults != DefaultResults {
					t.Errorf("maxResults = %d, want default %d", p.MaxResults, DefaultResults)
				}
				if p.Latitude != nil || p.Longitude != nil || p.RadiusKm != 0 {
					t.Errorf("unexpected optional fields: %+v", p)
				}
			},
		},
		{
			name: "full",
			raw:  `{"query": "coffee", "maxResults": 5, "latitude": 10.3157, "longitude": 123.8854, "radius": 10}`,
			check: func(t *testing.T, p *SearchParams) {
				if p.MaxResults != 5 || p.RadiusKm != 10 {
					t.Errorf("maxResults/radius = %d/%d", p.MaxResults, p.RadiusKm)
				}
				if p.Latitude == nil || *p.Latitude != 10.3157 {
					t.Errorf("latitude = %v", p.Latitude)
				}
			},
		},
		{
			name: "query trimmed",
			raw:  `{"query": "  mouse  "}`,
			check: func(t *testing.T, p *SearchParams) {
				if p.Query != "mouse" {
					t.Errorf("query = %q, want trimmed", p.Query)
				}
			},
		},
		{
			name: "unknown fields tolerated",
			raw:  `{"query": "mouse", "reasoning": "user wants a mouse"}`,
			check: func(t *testing.T, p *SearchParams) {
				if p.Query != "mouse" {
					t.Errorf("query = %q", p.Query)
				}
			},
		},
		{name: "not json", raw: `find me keyboards`, wantErr: "not valid JSON"},
		{name: "empty", raw: ``, wantErr: "not valid JSON"},
		{name: "missing query", raw: `{}`, wantErr: "query is required"},
		{name: "blank query", raw: `{"query": "   "}`, wantErr: "query is required"},
		{name: "maxResults too low", raw: `{"query": "x", "maxResults": 0}`, wantErr: "maxResults"},
		{name: "maxResults too high", raw: `{"query": "x", "maxResults": 11}`, wantErr: "maxResults"},
		{name: "latitude alone", raw: `{"query": "x", "latitude": 10.0}`, wantErr: "together"},
		{name: "longitude alone", raw: `{"query": "x", "longitude": 123.0}`, wantErr: "together"},
		{name: "latitude out of range", raw: `{"query": "x", "latitude": 91, "longitude": 0}`, wantErr: "latitude"},
		{name: "longitude out of range", raw: `{"query": "x", "latitude": 0, "longitude": -181}`, wantErr: "longitude"},
		{name: "radius not allowed", raw: `{"query": "x", "radius": 7}`, wantErr: "radius"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseSearchParams(tt.raw)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseSearchParams succeeded, want error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSearchParams: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestParseSearchParamsBoundaryValues(t *testing.T) {
	for _, raw := range []string{
		`{"query": "x", "maxResults": 1}`,
		`{"query": "x", "maxResults": 10}`,
		`{"query": "x", "latitude": -90, "longitude": 180}`,
		`{"query": "x", "latitude": 90, "longitude": -180}`,
		`{"query": "x", "radius": 5}`,
		`{"query": "x", "radius": 15}`,
	} {
		if _, err := ParseSearchParams(raw); err != nil {
			t.Errorf("ParseSearchParams(%s): %v", raw, err)
		}
	}
}

func TestMergeDefaultsInjectsOnlyMissing(t *testing.T) {
	t.Run("injects pair and radius", func(t *testing.T) {
		p := &SearchParams{Query: "x", MaxResults: 3}
		p.MergeDefaults(Defaults{Latitude: f64(10.3157), Longitude: f64(123.8854), RadiusKm: 10})

		if p.Latitude == nil || *p.Latitude != 10.3157 {
			t.Errorf("latitude = %v, want injected", p.Latitude)
		}
		if p.Longitude == nil || *p.Longitude != 123.8854 {
			t.Errorf("longitude = %v, want injected", p.Longitude)
		}
		if p.RadiusKm != 10 {
			t.Errorf("radius = %d, want 10", p.RadiusKm)
		}
	})

	t.Run("model-supplied values win", func(t *testing.T) {
		p := &SearchParams{Query: "x", Latitude: f64(1), Longitude: f64(2), RadiusKm: 15}
		p.MergeDefaults(Defaults{Latitude: f64(10.3157), Longitude: f64(123.8854), RadiusKm: 5})

		if *p.Latitude != 1 || *p.Longitude != 2 {
			t.Errorf("coordinates overwritten: %v/%v", *p.Latitude, *p.Longitude)
		}
		if p.RadiusKm != 15 {
			t.Errorf("radius overwritten: %d", p.RadiusKm)
		}
	})

	t.Run("no defaults", func(t *testing.T) {
		p := &SearchParams{Query: "x"}
		p.MergeDefaults(Defaults{})

		if p.Latitude != nil || p.Longitude != nil || p.RadiusKm != 0 {
			t.Errorf("fields set from empty defaults: %+v", p)
		}
	})

	t.Run("values copied, not aliased", func(t *testing.T) {
		lat, lon := 10.0, 120.0
		p := &SearchParams{Query: "x"}
		p.MergeDefaults(Defaults{Latitude: &lat, Longitude: &lon})

		lat, lon = 0, 0
		if *p.Latitude != 10.0 || *p.Longitude != 120.0 {
			t.Errorf("injected coordinates alias the defaults: %v/%v", *p.Latitude, *p.Longitude)
		}
	})
}

func TestKindFromTool(t *testing.T) {
	tests := []struct {
		tool string
		want Kind
		ok   bool
	}{
		{tool: ToolSearchProducts, want: KindProduct, ok: true},
		{tool: ToolSearchStores, want: KindStore, ok: true},
		{tool: ToolSearchPromotions, want: KindPromotion, ok: true},
		{tool: "search_users", ok: false},
		{tool: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := KindFromTool(tt.tool)
		if ok != tt.ok {
			t.Errorf("KindFromTool(%q) ok = %v, want %v", tt.tool, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("KindFromTool(%q) = %v, want %v", tt.tool, got, tt.want)
		}
	}
}

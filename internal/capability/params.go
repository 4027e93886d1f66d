package capability

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Bounds for search parameters.
const (
	MinResults      = 1
	MaxResults      = 10
	DefaultResults  = 3
	DefaultRadiusKm = 5
)

// SearchParams are the validated arguments of one search capability call.
// RadiusKm is zero when the call did not specify a radius; it is only
// meaningful when coordinates are present.
type SearchParams struct {
	Query      string
	MaxResults int
	Latitude   *float64
	Longitude  *float64
	RadiusKm   int
}

// Defaults are caller-supplied values merged into parsed arguments when the
// model omitted them.
type Defaults struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  int
}

// rawParams mirrors the wire shape of capability arguments. Everything is a
// pointer so presence can be told apart from a zero value.
type rawParams struct {
	Query      *string  `json:"query"`
	MaxResults *int     `json:"maxResults"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	RadiusKm   *int     `json:"radius"`
}

// ParseSearchParams parses and validates untrusted argument JSON produced
// by the model.
func ParseSearchParams(raw string) (*SearchParams, error) {
	var in rawParams
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	p := &SearchParams{MaxResults: DefaultResults}

	if in.Query == nil || strings.TrimSpace(*in.Query) == "" {
		return nil, errors.New("query is required")
	}
	p.Query = strings.TrimSpace(*in.Query)

	if in.MaxResults != nil {
		if *in.MaxResults < MinResults || *in.MaxResults > MaxResults {
			return nil, fmt.Errorf("maxResults must be between %d and %d", MinResults, MaxResults)
		}
		p.MaxResults = *in.MaxResults
	}

	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, errors.New("latitude and longitude must be provided together")
	}
	if in.Latitude != nil {
		if *in.Latitude < -90 || *in.Latitude > 90 {
			return nil, errors.New("latitude must be between -90 and 90")
		}
		if *in.Longitude < -180 || *in.Longitude > 180 {
			return nil, errors.New("longitude must be between -180 and 180")
		}
		p.Latitude = in.Latitude
		p.Longitude = in.Longitude
	}

	if in.RadiusKm != nil {
		if !ValidRadius(*in.RadiusKm) {
			return nil, errors.New("radius must be one of 5, 10, or 15")
		}
		p.RadiusKm = *in.RadiusKm
	}

	return p, nil
}

// MergeDefaults fills in caller-supplied coordinates and radius where the
// model left them out. Values are copied rather than aliased, and the
// coordinate pair is only injected as a whole.
func (p *SearchParams) MergeDefaults(d Defaults) {
	if p.Latitude == nil && p.Longitude == nil && d.Latitude != nil && d.Longitude != nil {
		lat, lon := *d.Latitude, *d.Longitude
		p.Latitude = &lat
		p.Longitude = &lon
	}
	if p.RadiusKm == 0 && d.RadiusKm != 0 {
		p.RadiusKm = d.RadiusKm
	}
}

// ValidRadius reports whether r is an accepted search radius.
func ValidRadius(r int) bool {
	switch r {
	case 5, 10, 15:
		return true
	}
	return false
}

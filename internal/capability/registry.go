package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/merqado/concierge/internal/catalog"
	"github.com/merqado/concierge/internal/llm"
	"github.com/merqado/concierge/pkg/geo"
	"github.com/merqado/concierge/pkg/logger"
	"github.com/merqado/concierge/pkg/metrics"
)

// UnknownCapabilityError reports a capability name with no registered
// handler. This is schema/implementation drift, a server defect, and is
// fatal to the request.
type UnknownCapabilityError struct {
	Capability string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability %q", e.Capability)
}

// ArgumentError reports capability arguments that failed to parse or
// validate. Recoverable: the driver reports it back to the model as a tool
// error so the loop can continue.
type ArgumentError struct {
	Capability string
	Err        error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Capability, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ExecutionError reports a catalog failure while running a capability.
// Recoverable in the same way as ArgumentError.
type ExecutionError struct {
	Capability string
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("capability %s failed: %v", e.Capability, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Result is the outcome of one successful dispatch. Exactly one ID list is
// populated, matching the capability kind.
type Result struct {
	Capability   string  `json:"capability"`
	Count        int     `json:"count"`
	ProductIDs   []int64 `json:"product_ids,omitempty"`
	StoreIDs     []int64 `json:"store_ids,omitempty"`
	PromotionIDs []int64 `json:"promotion_ids,omitempty"`
}

// Payload renders the tool message body handed back to the model.
func (r *Result) Payload() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"error":"failed to encode result"}`
	}
	return string(b)
}

// ErrorPayload renders a capability failure as a tool message body.
func ErrorPayload(capability string, err error) string {
	b, merr := json.Marshal(map[string]string{
		"error":      err.Error(),
		"capability": capability,
	})
	if merr != nil {
		return `{"error":"failed to encode error"}`
	}
	return string(b)
}

// Registry dispatches capability calls against the catalog directory. Safe
// for concurrent use by independent requests; it holds no per-request state.
type Registry struct {
	directory catalog.Directory
	logger    *logger.Logger
}

// NewRegistry creates a capability registry backed by the directory.
func NewRegistry(directory catalog.Directory, log *logger.Logger) *Registry {
	return &Registry{
		directory: directory,
		logger:    log,
	}
}

// Dispatch parses, validates, and executes one capability call requested by
// the model. Caller-supplied defaults are merged into the arguments only
// where the model omitted them.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall, defaults Defaults) (*Result, error) {
	start := time.Now()

	kind, ok := KindFromTool(call.Name)
	if !ok {
		metrics.RecordCapabilityCall(call.Name, "unknown", time.Since(start).Seconds())
		return nil, &UnknownCapabilityError{Capability: call.Name}
	}

	params, err := ParseSearchParams(call.Arguments)
	if err != nil {
		metrics.RecordCapabilityCall(call.Name, "invalid_args", time.Since(start).Seconds())
		return nil, &ArgumentError{Capability: call.Name, Err: err}
	}
	params.MergeDefaults(defaults)

	ids, err := r.search(ctx, kind, params)
	if err != nil {
		metrics.RecordCapabilityCall(call.Name, "error", time.Since(start).Seconds())
		return nil, &ExecutionError{Capability: call.Name, Err: err}
	}
	metrics.RecordCapabilityCall(call.Name, "ok", time.Since(start).Seconds())

	r.logger.Debug("capability dispatched",
		zap.String("capability", call.Name),
		zap.String("query", params.Query),
		zap.Int("results", len(ids)),
	)

	result := &Result{Capability: call.Name, Count: len(ids)}
	switch kind {
	case KindProduct:
		result.ProductIDs = ids
	case KindStore:
		result.StoreIDs = ids
	case KindPromotion:
		result.PromotionIDs = ids
	}
	return result, nil
}

func (r *Registry) search(ctx context.Context, kind Kind, p *SearchParams) ([]int64, error) {
	q := catalog.Query{
		Keywords: strings.Fields(p.Query),
		Limit:    p.MaxResults,
	}
	if p.Latitude != nil && p.Longitude != nil {
		q.Origin = &geo.Point{Lat: *p.Latitude, Lon: *p.Longitude}
		radius := p.RadiusKm
		if radius == 0 {
			radius = DefaultRadiusKm
		}
		q.RadiusKm = float64(radius)
	}

	switch kind {
	case KindProduct:
		return r.directory.SearchProducts(ctx, q)
	case KindStore:
		return r.directory.SearchStores(ctx, q)
	case KindPromotion:
		return r.directory.SearchPromotions(ctx, q)
	}
	return nil, fmt.Errorf("unhandled capability kind %d", kind)
}

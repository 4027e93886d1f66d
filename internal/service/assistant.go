package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/merqado/concierge/internal/capability"
	"github.com/merqado/concierge/internal/catalog"
	"github.com/merqado/concierge/internal/llm"
	"github.com/merqado/concierge/internal/model"
	"github.com/merqado/concierge/pkg/geo"
	"github.com/merqado/concierge/pkg/logger"
	"github.com/merqado/concierge/pkg/metrics"
)

// DefaultMaxIterations bounds the conversation loop when no limit is
// configured.
const DefaultMaxIterations = 10

const tracerName = "github.com/merqado/concierge/internal/service"

// Options tune the assistant loop.
type Options struct {
	Model         string
	MaxTokens     int
	MaxIterations int
}

// Assistant drives one conversational turn: validate the request, prompt
// the model, dispatch the capability calls it asks for, and rank the
// accumulated results into the final response. One Assistant serves
// concurrent requests; all per-request state lives in Run.
type Assistant struct {
	llm           llm.Client
	registry      *capability.Registry
	directory     catalog.Directory
	logger        *logger.Logger
	tracer        trace.Tracer
	model         string
	maxTokens     int
	maxIterations int
}

// NewAssistant creates the conversation driver.
func NewAssistant(
	client llm.Client,
	registry *capability.Registry,
	directory catalog.Directory,
	opts Options,
	log *logger.Logger,
) *Assistant {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Assistant{
		llm:           client,
		registry:      registry,
		directory:     directory,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
		model:         opts.Model,
		maxTokens:     opts.MaxTokens,
		maxIterations: opts.MaxIterations,
	}
}

// Run executes one conversational turn. An explicit chat intent skips the
// capability loop entirely. Argument and execution failures inside a single
// capability call are reported back to the model and the loop continues;
// an unknown capability, an upstream completion failure, or hitting the
// iteration ceiling abort the request.
func (a *Assistant) Run(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "assistant.run")
	defer span.End()

	count := req.Count
	if count == 0 {
		count = capability.DefaultResults
	}
	explicit, _ := model.ParseIntent(req.Intent)

	if explicit == model.IntentChat {
		return a.chat(ctx, req)
	}

	defaults := capability.Defaults{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		RadiusKm:  req.RadiusKm,
	}

	messages := []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: systemPrompt(req)},
		{Role: llm.RoleUser, Content: req.Content},
	}
	tools := capability.Definitions()
	acc := newAccumulator()

	var final *llm.CompletionResponse
	iterations := 0
	for iterations < a.maxIterations {
		iterations++

		resp, err := a.complete(ctx, messages, tools)
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			final = resp
			break
		}

		messages = append(messages, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			payload, err := a.dispatch(ctx, call, defaults, acc)
			if err != nil {
				return nil, err
			}
			messages = append(messages, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    payload,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	if final == nil {
		a.logger.Warn("conversation hit the iteration ceiling",
			zap.Int("max_iterations", a.maxIterations),
		)
		return nil, &MaxIterationsError{Limit: a.maxIterations}
	}

	intent := resolveIntent(explicit, acc)
	span.SetAttributes(
		attribute.String("intent", string(intent)),
		attribute.Int("iterations", iterations),
	)
	metrics.ConversationIterations.WithLabelValues(string(intent)).Observe(float64(iterations))
	metrics.RecommendationsTotal.WithLabelValues(string(intent)).Inc()

	agg := &aggregator{directory: a.directory}
	out, err := agg.build(ctx, final.Content, intent, acc, count, originOf(req), effectiveRadius(req))
	if err != nil {
		return nil, fmt.Errorf("assembling recommendations: %w", err)
	}

	a.logger.Info("conversation completed",
		zap.String("intent", string(intent)),
		zap.Int("iterations", iterations),
		zap.Int("products", len(out.Products)),
		zap.Int("stores", len(out.Stores)),
		zap.Int("promotions", len(out.Promotions)),
	)
	return out, nil
}

// chat performs a single completion without tools.
func (a *Assistant) chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	resp, err := a.complete(ctx, []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: systemPrompt(req)},
		{Role: llm.RoleUser, Content: req.Content},
	}, nil)
	if err != nil {
		return nil, err
	}

	metrics.ConversationIterations.WithLabelValues(string(model.IntentChat)).Observe(1)
	metrics.RecommendationsTotal.WithLabelValues(string(model.IntentChat)).Inc()

	return &model.ChatResponse{Content: resp.Content, Intent: model.IntentChat}, nil
}

func (a *Assistant) complete(ctx context.Context, messages []llm.ChatMessage, tools []llm.ToolDefinition) (*llm.CompletionResponse, error) {
	ctx, span := a.tracer.Start(ctx, "assistant.complete",
		trace.WithAttributes(attribute.Int("messages", len(messages))),
	)
	defer span.End()

	resp, err := a.llm.Complete(ctx, &llm.CompletionRequest{
		Model:     a.model,
		Messages:  messages,
		Tools:     tools,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("completing conversation: %w", err)
	}

	span.SetAttributes(attribute.Int("tool_calls", len(resp.ToolCalls)))
	return resp, nil
}

// dispatch runs one capability call. Argument and execution failures are
// rendered into the returned tool payload so the model can correct itself;
// anything else is fatal.
func (a *Assistant) dispatch(ctx context.Context, call llm.ToolCall, defaults capability.Defaults, acc *accumulator) (string, error) {
	res, err := a.registry.Dispatch(ctx, call, defaults)
	if err != nil {
		var argErr *capability.ArgumentError
		var execErr *capability.ExecutionError
		if errors.As(err, &argErr) || errors.As(err, &execErr) {
			a.logger.Warn("capability call failed, reporting back to the model",
				zap.String("capability", call.Name),
				zap.Error(err),
			)
			return capability.ErrorPayload(call.Name, err), nil
		}
		return "", err
	}

	acc.merge(res)
	return res.Payload(), nil
}

func validateRequest(req *model.ChatRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return &ValidationError{Field: "location", Reason: "latitude and longitude must be provided together"}
	}
	if req.Latitude != nil {
		if *req.Latitude < -90 || *req.Latitude > 90 {
			return &ValidationError{Field: "location", Reason: "latitude must be between -90 and 90"}
		}
		if *req.Longitude < -180 || *req.Longitude > 180 {
			return &ValidationError{Field: "location", Reason: "longitude must be between -180 and 180"}
		}
	}
	if req.RadiusKm != 0 && !capability.ValidRadius(req.RadiusKm) {
		return &ValidationError{Field: "radius", Reason: "must be one of 5, 10, or 15"}
	}
	if req.Count < 0 || req.Count > capability.MaxResults {
		return &ValidationError{Field: "count", Reason: fmt.Sprintf("must be between %d and %d", capability.MinResults, capability.MaxResults)}
	}
	if req.Intent != "" {
		if _, ok := model.ParseIntent(req.Intent); !ok {
			return &ValidationError{Field: "intent", Reason: "must be one of chat, product, store, promotion"}
		}
	}
	return nil
}

// resolveIntent picks the final intent: the caller's explicit choice wins,
// then whichever result set is non-empty in products, stores, promotions
// order, else plain chat.
func resolveIntent(explicit model.Intent, acc *accumulator) model.Intent {
	if explicit != "" {
		return explicit
	}
	switch {
	case !acc.products.empty():
		return model.IntentProduct
	case !acc.stores.empty():
		return model.IntentStore
	case !acc.promotions.empty():
		return model.IntentPromotion
	}
	return model.IntentChat
}

func originOf(req *model.ChatRequest) *geo.Point {
	if req.Latitude == nil || req.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
}

// effectiveRadius is the radius the final ranking re-validates against:
// the caller's radius, or the default when coordinates were given without
// one. Zero when there are no coordinates.
func effectiveRadius(req *model.ChatRequest) int {
	if req.Latitude == nil || req.Longitude == nil {
		return 0
	}
	if req.RadiusKm != 0 {
		return req.RadiusKm
	}
	return capability.DefaultRadiusKm
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/merqado/concierge/pkg/logger"
	"github.com/merqado/concierge/pkg/metrics"
)

const (
	baseTemperature = 0.2
	temperatureStep = 0.2
	maxTemperature  = 1.0
)

// RetryClient decorates a Client with retry-on-rejection. A 400-class
// rejection usually means the model produced tool calls the service would
// not accept, so each retry raises the temperature to nudge it toward a
// syntactically different answer. Other failure classes surface immediately.
type RetryClient struct {
	base       Client
	maxRetries int
	logger     *logger.Logger
}

// NewRetryClient wraps base with up to maxRetries retries.
func NewRetryClient(base Client, maxRetries int, log *logger.Logger) *RetryClient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryClient{
		base:       base,
		maxRetries: maxRetries,
		logger:     log,
	}
}

// Name returns the underlying provider name.
func (c *RetryClient) Name() string { return c.base.Name() }

// Models returns the underlying provider's models.
func (c *RetryClient) Models() []string { return c.base.Models() }

// Complete runs the request through the base client. This layer owns the
// temperature: the first attempt goes out at 0.2 and each retry adds 0.2,
// capped at 1.0.
func (c *RetryClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		attemptReq := *req
		attemptReq.Temperature = temperatureFor(attempt)

		start := time.Now()
		resp, err := c.base.Complete(ctx, &attemptReq)
		if err == nil {
			metrics.RecordCompletion(resp.Model, "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
			return resp, nil
		}
		metrics.RecordCompletion(c.modelLabel(req), "error", time.Since(start).Seconds(), 0, 0)

		var upstream *UpstreamError
		if !errors.As(err, &upstream) || !upstream.Retryable() {
			return nil, err
		}

		lastErr = err
		if attempt < c.maxRetries {
			metrics.LLMRetriesTotal.WithLabelValues(c.modelLabel(req)).Inc()
			c.logger.Warn("completion rejected, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("status", upstream.StatusCode),
				zap.Float64("next_temperature", temperatureFor(attempt+1)),
			)
		}
	}

	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *RetryClient) modelLabel(req *CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.base.Name()
}

func temperatureFor(attempt int) float64 {
	t := baseTemperature + temperatureStep*float64(attempt)
	if t > maxTemperature {
		return maxTemperature
	}
	return t
}

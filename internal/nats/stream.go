package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/merqado/concierge/pkg/metrics"
)

const (
	// DefaultStreamName is the catalog event stream.
	DefaultStreamName = "CATALOG"

	// SubjectFilter matches every catalog entity event.
	SubjectFilter = "catalog.>"
)

// StreamManager owns the catalog stream: it creates the stream when the
// deployment is fresh and feeds stream depth into the metrics gauges.
type StreamManager struct {
	client  *Client
	stream  string
	durable string
}

// NewStreamManager creates a stream manager for the named catalog stream.
func NewStreamManager(client *Client, stream, durable string) *StreamManager {
	if stream == "" {
		stream = DefaultStreamName
	}
	return &StreamManager{client: client, stream: stream, durable: durable}
}

// EnsureStream ensures the catalog stream exists with proper configuration.
// An existing stream is left untouched so operators can tune retention.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, m.stream); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        m.stream,
		Subjects:    []string{SubjectFilter},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Catalog entity change feed",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Monitor polls stream and consumer state into the Prometheus gauges until
// the context ends. Poll failures are logged and retried on the next tick;
// the stream may legitimately lag behind EnsureStream on a fresh cluster.
func (m *StreamManager) Monitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.observe(ctx)
		}
	}
}

func (m *StreamManager) observe(ctx context.Context) {
	s, err := m.client.JetStream().Stream(ctx, m.stream)
	if err != nil {
		m.client.logger.Warn("catalog stream lookup failed",
			zap.String("stream", m.stream),
			zap.Error(err),
		)
		return
	}

	info, err := s.Info(ctx)
	if err != nil {
		m.client.logger.Warn("catalog stream info failed", zap.Error(err))
		return
	}
	metrics.NATSStreamMessages.WithLabelValues(m.stream).Set(float64(info.State.Msgs))
	metrics.NATSStreamBytes.WithLabelValues(m.stream).Set(float64(info.State.Bytes))

	if m.durable == "" {
		return
	}
	cons, err := s.Consumer(ctx, m.durable)
	if err != nil {
		return
	}
	ci, err := cons.Info(ctx)
	if err != nil {
		return
	}
	metrics.NATSConsumerPending.WithLabelValues(m.stream, m.durable).Set(float64(ci.NumPending))
}

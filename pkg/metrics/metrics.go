// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMRequestDuration tracks LLM completion round-trip duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion request duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// LLMRetriesTotal tracks completion retries after retryable failures.
	LLMRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_retries_total",
			Help: "Total LLM completion retries",
		},
		[]string{"model"},
	)

	// CapabilityCallsTotal tracks capability dispatches requested by the model.
	CapabilityCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capability_calls_total",
			Help: "Total capability dispatches",
		},
		[]string{"capability", "status"},
	)

	// CapabilityCallDuration tracks capability dispatch duration.
	CapabilityCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capability_call_duration_seconds",
			Help:    "Capability dispatch duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"capability"},
	)

	// ConversationIterations tracks tool loop depth per conversation turn.
	ConversationIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conversation_iterations",
			Help:    "LLM round trips per conversation turn",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"intent"},
	)

	// RecommendationsTotal tracks recommendation responses served.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total recommendation responses served",
		},
		[]string{"intent"},
	)

	// CatalogEventsTotal tracks catalog change events applied to the read model.
	CatalogEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_total",
			Help: "Total catalog change events applied",
		},
		[]string{"entity", "op"},
	)

	// CatalogEntities tracks entities held in the catalog read model.
	CatalogEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_entities",
			Help: "Entities in the catalog read model",
		},
		[]string{"entity"},
	)

	// NATSStreamMessages tracks messages in NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)

	// NATSStreamBytes tracks bytes in NATS stream.
	NATSStreamBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_bytes",
			Help: "Bytes in NATS stream",
		},
		[]string{"stream"},
	)

	// NATSConsumerPending tracks pending messages for consumers.
	NATSConsumerPending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_consumer_pending",
			Help: "Pending messages for NATS consumer",
		},
		[]string{"stream", "consumer"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for an LLM completion round trip.
func RecordCompletion(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordCapabilityCall records metrics for one capability dispatch.
func RecordCapabilityCall(capability, status string, duration float64) {
	CapabilityCallsTotal.WithLabelValues(capability, status).Inc()
	CapabilityCallDuration.WithLabelValues(capability).Observe(duration)
}

// RecordCatalogEvent records one applied catalog change event.
func RecordCatalogEvent(entity, op string) {
	CatalogEventsTotal.WithLabelValues(entity, op).Inc()
}

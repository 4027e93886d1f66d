package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/merqado/concierge/pkg/logger"
)

type mockClient struct {
	completeFn func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	calls      int
	temps      []float64
}

func (m *mockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	m.calls++
	m.temps = append(m.temps, req.Temperature)
	return m.completeFn(ctx, req)
}

func (m *mockClient) Name() string { return "mock" }

func (m *mockClient) Models() []string { return []string{"mock-model"} }

func newTestLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func rejection(status int) error {
	return &UpstreamError{Provider: "mock", StatusCode: status, Err: errors.New("rejected")}
}

func sameTemps(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestRetryTemperatureEscalation(t *testing.T) {
	mock := &mockClient{
		completeFn: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
			return nil, rejection(400)
		},
	}
	client := NewRetryClient(mock, 3, newTestLogger())

	_, err := client.Complete(context.Background(), &CompletionRequest{})
	if err == nil {
		t.Fatal("Complete succeeded, want exhaustion error")
	}
	if !strings.Contains(err.Error(), "exhausted retries") {
		t.Errorf("error = %q, want mention of exhausted retries", err)
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Errorf("error does not wrap UpstreamError: %v", err)
	}

	if mock.calls != 4 {
		t.Errorf("calls = %d, want 4", mock.calls)
	}
	if want := []float64{0.2, 0.4, 0.6, 0.8}; !sameTemps(mock.temps, want) {
		t.Errorf("temperatures = %v, want %v", mock.temps, want)
	}
}

func TestRetryTemperatureCapsAtOne(t *testing.T) {
	mock := &mockClient{
		completeFn: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
			return nil, rejection(422)
		},
	}
	client := NewRetryClient(mock, 6, newTestLogger())

	_, err := client.Complete(context.Background(), &CompletionRequest{})
	if err == nil {
		t.Fatal("Complete succeeded, want exhaustion error")
	}

	if want := []float64{0.2, 0.4, 0.6, 0.8, 1.0, 1.0, 1.0}; !sameTemps(mock.temps, want) {
		t.Errorf("temperatures = %v, want %v", mock.temps, want)
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	mock := &mockClient{}
	mock.completeFn = func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		if mock.calls < 3 {
			return nil, rejection(400)
		}
		return &CompletionResponse{Content: "ok", Model: "mock-model"}, nil
	}
	client := NewRetryClient(mock, 3, newTestLogger())

	req := &CompletionRequest{}
	resp, err := client.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q, want %q", resp.Content, "ok")
	}
	if mock.calls != 3 {
		t.Errorf("calls = %d, want 3", mock.calls)
	}
	if want := []float64{0.2, 0.4, 0.6}; !sameTemps(mock.temps, want) {
		t.Errorf("temperatures = %v, want %v", mock.temps, want)
	}
	if req.Temperature != 0 {
		t.Errorf("caller request temperature mutated to %v", req.Temperature)
	}
}

func TestRetryServerErrorNotRetried(t *testing.T) {
	mock := &mockClient{
		completeFn: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
			return nil, rejection(503)
		},
	}
	client := NewRetryClient(mock, 3, newTestLogger())

	_, err := client.Complete(context.Background(), &CompletionRequest{})
	if err == nil {
		t.Fatal("Complete succeeded, want error")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != 503 {
		t.Errorf("error = %v, want upstream 503", err)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestRetryNetworkErrorNotRetried(t *testing.T) {
	netErr := errors.New("connection refused")
	mock := &mockClient{
		completeFn: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
			return nil, netErr
		},
	}
	client := NewRetryClient(mock, 3, newTestLogger())

	_, err := client.Complete(context.Background(), &CompletionRequest{})
	if !errors.Is(err, netErr) {
		t.Errorf("error = %v, want the raw network error", err)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestRetryZeroMeansSingleAttempt(t *testing.T) {
	mock := &mockClient{
		completeFn: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
			return nil, rejection(400)
		},
	}
	client := NewRetryClient(mock, 0, newTestLogger())

	_, err := client.Complete(context.Background(), &CompletionRequest{})
	if err == nil {
		t.Fatal("Complete succeeded, want error")
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

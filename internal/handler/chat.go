// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/merqado/concierge/internal/capability"
	"github.com/merqado/concierge/internal/llm"
	"github.com/merqado/concierge/internal/middleware"
	"github.com/merqado/concierge/internal/model"
	"github.com/merqado/concierge/internal/service"
	"github.com/merqado/concierge/pkg/logger"
)

// Assistant answers one conversational turn.
type Assistant interface {
	Run(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
}

// ChatHandler handles the conversational endpoints.
type ChatHandler struct {
	assistant Assistant
	logger    *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(assistant Assistant, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		logger:    log,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	userID := middleware.GetUserID(ctx)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.assistant.Run(ctx, &req)
	if err != nil {
		h.respondError(w, r, err, tenantID, userID)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Capabilities handles GET /api/v1/capabilities
func (h *ChatHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"capabilities": capability.Definitions(),
	})
}

// respondError maps assistant failures onto HTTP statuses. Caller mistakes
// are 400s, model upstream failures are 502s, everything else is a 500.
func (h *ChatHandler) respondError(w http.ResponseWriter, r *http.Request, err error, tenantID, userID string) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		writeError(w, http.StatusBadRequest, validation.Error())
		return
	}

	log := h.logger.With(
		zap.String("tenant_id", tenantID),
		zap.String("user_id", userID),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Error(err),
	)

	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		log.Error("language model request failed")
		writeError(w, http.StatusBadGateway, "language model unavailable")
		return
	}

	var unknown *capability.UnknownCapabilityError
	if errors.As(err, &unknown) {
		log.Error("model requested an unregistered capability",
			zap.String("capability", unknown.Capability),
		)
		writeError(w, http.StatusInternalServerError, "assistant misconfigured")
		return
	}

	var ceiling *service.MaxIterationsError
	if errors.As(err, &ceiling) {
		log.Error("conversation never converged")
		writeError(w, http.StatusInternalServerError, "conversation did not converge")
		return
	}

	log.Error("chat request failed")
	writeError(w, http.StatusInternalServerError, "failed to answer request")
}

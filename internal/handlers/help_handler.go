package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rewardhub/backend/internal/services"
)

// Asker answers a help question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

type ChatRecorder interface {
	ChatOutcome(outcome string)
}

// HelpHandler serves POST /api/help/chat.
type HelpHandler struct {
	Assistant Asker
	Metrics   ChatRecorder
	Timeout   time.Duration
	Validator *services.Validator
	Logger    *slog.Logger
}

type chatRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat forwards the question to the assistant, bounded by Timeout.
func (h *HelpHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Metrics.ChatOutcome("rejected")
		writeValidation(w, err)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := h.Validator.Struct(req); err != nil {
		h.Metrics.ChatOutcome("rejected")
		writeValidation(w, err)
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	answer, err := h.Assistant.Ask(ctx, req.Question)
	if err != nil {
		h.Metrics.ChatOutcome("upstream_error")
		h.Logger.Error("ai chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, KindUpstreamFailure, "Failed to get AI response")
		return
	}

	h.Metrics.ChatOutcome("ok")
	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubAsker struct {
	answer      string
	err         error
	gotQuestion string
	hadDeadline bool
}

func (s *stubAsker) Ask(ctx context.Context, question string) (string, error) {
	s.gotQuestion = question
	_, s.hadDeadline = ctx.Deadline()
	return s.answer, s.err
}

func TestChat_OK(t *testing.T) {
	asker := &stubAsker{answer: "Complete tasks to earn points."}
	metrics := newRecorder()
	h := &HelpHandler{Assistant: asker, Metrics: metrics, Timeout: time.Second, Validator: newValidator(), Logger: quietLogger()}

	rec := httptest.NewRecorder()
	h.Chat(rec, postJSON("/api/help/chat", `{"question":"  How do I earn points?  "}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[chatResponse](t, rec); got.Response != asker.answer {
		t.Errorf("unexpected response %q", got.Response)
	}
	if asker.gotQuestion != "How do I earn points?" {
		t.Errorf("question not trimmed: %q", asker.gotQuestion)
	}
	if !asker.hadDeadline {
		t.Error("expected the provider call to carry a deadline")
	}
	if metrics.chats["ok"] != 1 {
		t.Errorf("expected ok outcome recorded, got %v", metrics.chats)
	}
}

func TestChat_UpstreamFailure(t *testing.T) {
	asker := &stubAsker{err: errors.New("boom")}
	metrics := newRecorder()
	h := &HelpHandler{Assistant: asker, Metrics: metrics, Timeout: time.Second, Validator: newValidator(), Logger: quietLogger()}

	rec := httptest.NewRecorder()
	h.Chat(rec, postJSON("/api/help/chat", `{"question":"hi"}`))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeError(t, rec)
	if body.Kind != KindUpstreamFailure || body.Message != "Failed to get AI response" {
		t.Errorf("unexpected error body: %+v", body)
	}
	if metrics.chats["upstream_error"] != 1 {
		t.Errorf("expected upstream_error outcome, got %v", metrics.chats)
	}
}

func TestChat_RejectsEmptyQuestion(t *testing.T) {
	asker := &stubAsker{answer: "unused"}
	h := &HelpHandler{Assistant: asker, Metrics: newRecorder(), Validator: newValidator(), Logger: quietLogger()}

	for _, body := range []string{`{"question":"   "}`, `{}`, `not json`} {
		rec := httptest.NewRecorder()
		h.Chat(rec, postJSON("/api/help/chat", body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
	if asker.gotQuestion != "" {
		t.Error("provider must not be called for invalid input")
	}
}

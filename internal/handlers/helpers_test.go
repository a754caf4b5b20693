package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/models"
	"github.com/rewardhub/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// recorder satisfies every metrics interface the handlers take.
type recorder struct {
	mu          sync.Mutex
	completions map[string]int
	withdrawals map[string]int
	chats       map[string]int
}

func newRecorder() *recorder {
	return &recorder{
		completions: make(map[string]int),
		withdrawals: make(map[string]int),
		chats:       make(map[string]int),
	}
}

func (r *recorder) TaskCompleted(taskType string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions[taskType]++
}

func (r *recorder) WithdrawalCreated(method string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.withdrawals[method]++
}

func (r *recorder) ChatOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[outcome]++
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, store *ledger.Store, email string, points int) *models.User {
	t.Helper()
	ctx := context.Background()
	u, err := store.CreateUser(ctx, models.NewUser{Email: email, Name: "Test", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if points != 0 {
		if u, err = store.UpdateUserPoints(ctx, u.ID, points); err != nil {
			t.Fatalf("UpdateUserPoints: %v", err)
		}
	}
	return u
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return v
}

func newValidator() *services.Validator { return services.NewValidator() }

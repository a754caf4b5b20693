package router

import (
	"log/slog"
	"net/http"

	"github.com/rewardhub/backend/internal/handlers"
	"github.com/rewardhub/backend/internal/metrics"
	"github.com/rewardhub/backend/internal/middleware"
)

// Deps collects everything the route table is wired to.
type Deps struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Tasks       *handlers.TaskHandler
	Withdrawals *handlers.WithdrawalHandler
	Help        *handlers.HelpHandler

	Tokens      middleware.TokenValidator
	ChatLimiter *middleware.RateLimiter
	AdminToken  string
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// New returns an http.Handler that serves the API under /api.
// Middleware chain: RequestID -> AccessLog -> OptionalAuth -> Instrument -> route.
// Instrument must sit directly above the mux so it sees the matched pattern.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	base := "/api"

	mux.HandleFunc("POST "+base+"/auth/register", d.Auth.Register)
	mux.HandleFunc("POST "+base+"/auth/login", d.Auth.Login)
	mux.HandleFunc("GET "+base+"/users/me", d.Auth.Me)

	mux.HandleFunc("PATCH "+base+"/users/{id}/payment-info", d.Users.UpdatePaymentInfo)
	mux.HandleFunc("PATCH "+base+"/users/{id}/preferences", d.Users.UpdatePreferences)

	mux.HandleFunc("GET "+base+"/tasks", d.Tasks.ListTasks)
	mux.HandleFunc("POST "+base+"/tasks/{taskId}/start", d.Tasks.StartTask)
	mux.HandleFunc("POST "+base+"/tasks/{taskId}/complete", d.Tasks.CompleteTask)

	mux.HandleFunc("GET "+base+"/withdrawals/quote", d.Withdrawals.Quote)
	mux.HandleFunc("POST "+base+"/withdrawals", d.Withdrawals.CreateWithdrawal)
	mux.HandleFunc("GET "+base+"/withdrawals/{userId}", d.Withdrawals.ListWithdrawals)

	admin := middleware.RequireAdmin(d.AdminToken)
	mux.Handle("PATCH "+base+"/admin/withdrawals/{id}/status", admin(http.HandlerFunc(d.Withdrawals.UpdateStatus)))

	// POST /api/help/chat: rate limit -> Chat
	mux.Handle("POST "+base+"/help/chat", d.ChatLimiter.Handler(http.HandlerFunc(d.Help.Chat)))

	mux.Handle("GET /metrics", d.Metrics.Handler())
	mux.HandleFunc("GET /healthz", handlers.Healthz)

	var h http.Handler = mux
	h = d.Metrics.Instrument(h)
	h = middleware.OptionalAuth(d.Tokens)(h)
	h = middleware.AccessLog(d.Logger)(h)
	h = middleware.RequestID(h)
	return h
}

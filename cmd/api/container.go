package main

import (
	"log/slog"
	"net/http"

	"github.com/samber/do"

	"github.com/rewardhub/backend/internal/assistant"
	"github.com/rewardhub/backend/internal/auth"
	"github.com/rewardhub/backend/internal/config"
	"github.com/rewardhub/backend/internal/handlers"
	"github.com/rewardhub/backend/internal/jobs"
	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/metrics"
	"github.com/rewardhub/backend/internal/middleware"
	"github.com/rewardhub/backend/internal/router"
	"github.com/rewardhub/backend/internal/services"
)

// NewContainer registers every component lazily; nothing is built until the
// router or scheduler is invoked.
func NewContainer(cfg *config.Config, logger *slog.Logger) *do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i *do.Injector) (*ledger.Store, error) {
		return ledger.New(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.Validator, error) {
		return services.NewValidator(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.Guard, error) {
		return services.NewGuard(services.GuardConfig{
			MinTaskDuration:       cfg.MinTaskDuration,
			MinCompletionInterval: cfg.MinCompletionInterval,
			DailyPointCap:         cfg.DailyPointCap,
		}), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.Quoter, error) {
		return services.NewQuoter(cfg.PointValueINR, cfg.WithdrawalFeePercent)
	})

	do.Provide(injector, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*assistant.Client, error) {
		return assistant.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ChatTimeout), nil
	})

	do.Provide(injector, func(i *do.Injector) (auth.Service, error) {
		store := do.MustInvoke[*ledger.Store](i)
		return auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL), nil
	})

	do.Provide(injector, func(i *do.Injector) (*middleware.RateLimiter, error) {
		m := do.MustInvoke[*metrics.Metrics](i)
		rl := middleware.NewRateLimiter(cfg.ChatRatePerMinute, cfg.ChatBurst, logger)
		rl.OnReject = func() { m.ChatOutcome("rate_limited") }
		rl.TrustProxy = cfg.TrustProxy
		return rl, nil
	})

	do.Provide(injector, func(i *do.Injector) (*jobs.Scheduler, error) {
		return jobs.NewScheduler(
			jobs.Config{Interval: cfg.CleanupInterval},
			do.MustInvoke[*services.Guard](i),
			do.MustInvoke[*middleware.RateLimiter](i),
			logger,
		)
	})

	do.Provide(injector, func(i *do.Injector) (http.Handler, error) {
		store := do.MustInvoke[*ledger.Store](i)
		validator := do.MustInvoke[*services.Validator](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		authSvc := do.MustInvoke[auth.Service](i)
		quoter, err := do.Invoke[*services.Quoter](i)
		if err != nil {
			return nil, err
		}

		return router.New(router.Deps{
			Auth:  &handlers.AuthHandler{Auth: authSvc, Users: store, Validator: validator, Logger: logger},
			Users: &handlers.UserHandler{Users: store, Validator: validator, Logger: logger},
			Tasks: &handlers.TaskHandler{
				Tasks:     store,
				Guard:     do.MustInvoke[*services.Guard](i),
				Metrics:   m,
				Validator: validator,
				Logger:    logger,
			},
			Withdrawals: &handlers.WithdrawalHandler{
				Withdrawals: store,
				Quoter:      quoter,
				Metrics:     m,
				Limits:      handlers.WithdrawalLimits{Min: cfg.MinWithdrawalPoints, Max: cfg.MaxWithdrawalPoints},
				Validator:   validator,
				Logger:      logger,
			},
			Help: &handlers.HelpHandler{
				Assistant: do.MustInvoke[*assistant.Client](i),
				Metrics:   m,
				Timeout:   cfg.ChatTimeout,
				Validator: validator,
				Logger:    logger,
			},
			Tokens:      authSvc,
			ChatLimiter: do.MustInvoke[*middleware.RateLimiter](i),
			AdminToken:  cfg.AdminToken,
			Metrics:     m,
			Logger:      logger,
		}), nil
	})

	return injector
}

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// SentryConfig holds configuration for Sentry error tracking.
type SentryConfig struct {
	// DSN is the Sentry Data Source Name. Empty disables error tracking.
	DSN string

	// Environment identifies the deployment environment (dev, prod).
	Environment string

	// Release is the application version.
	Release string

	// SampleRate is the share of errors captured, 0 means 1.0.
	SampleRate float64
}

var sentryEnabled bool

// InitSentry initializes the global Sentry client and returns a flush
// function to call on shutdown. With no DSN it is a no-op.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	if cfg.DSN == "" {
		sentryEnabled = false
		logger.Info("sentry disabled, SENTRY_DSN not set")
		return func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	sentryEnabled = true

	logger.Info("sentry initialized", "environment", cfg.Environment, "sample_rate", sampleRate)

	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}

// SentryEnabled reports whether InitSentry configured a client.
func SentryEnabled() bool {
	return sentryEnabled
}

// SentryMiddleware puts a per-request hub on the context, tagged with the
// request ID and the current user. Panics are reported and re-raised so the
// router's recovery middleware still answers the client.
// It must run after the request ID and user middleware.
func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sentryEnabled {
			next.ServeHTTP(w, r)
			return
		}

		hub := sentry.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetRequest(r)
			if id := domain.RequestIDFromContext(r.Context()); id != "" {
				scope.SetTag("request_id", id)
			}
			if user := domain.UserFromContext(r.Context()); user != nil {
				scope.SetUser(sentry.User{ID: strconv.FormatInt(user.ID, 10), Username: user.Username})
			}
		})
		ctx := sentry.SetHubOnContext(r.Context(), hub)

		defer func() {
			if rec := recover(); rec != nil {
				if rec != http.ErrAbortHandler {
					hub.RecoverWithContext(ctx, rec)
					hub.Flush(sentryFlushTimeout)
				}
				panic(rec)
			}
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CaptureError reports err with the hub from ctx, falling back to the
// global hub. Safe to call when Sentry is disabled.
func CaptureError(ctx context.Context, err error, extras map[string]any) {
	if !sentryEnabled || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if op := domain.ErrorOp(err); op != "" {
			scope.SetTag("op", op)
		}
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}

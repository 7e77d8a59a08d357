package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dukerupert/academy/internal/domain"
)

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

var sentryEnabled bool

// InitSentry initializes the Sentry client.
// Returns a cleanup function that flushes buffered events on shutdown.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	sentryEnabled = false

	if !cfg.Enabled {
		logger.Info("sentry disabled")
		return func() {}, nil
	}
	if cfg.DSN == "" {
		logger.Warn("sentry DSN not configured, disabling error tracking")
		return func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	sentryEnabled = true

	logger.Info("sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// IsEnabled returns whether Sentry is currently enabled
func IsEnabled() bool {
	return sentryEnabled
}

// CaptureError reports err using the hub attached to ctx, falling back to the
// global hub. Safe to call when Sentry is disabled.
func CaptureError(ctx context.Context, err error, extras map[string]any) {
	if !IsEnabled() || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}

// UserInfo represents user information for Sentry context
type UserInfo struct {
	ID    string
	Phone string
}

// UserContextExtractor extracts user info from a request context.
type UserContextExtractor func(ctx context.Context) *UserInfo

// SentryMiddleware clones a hub per request and tags it with the request ID
// and the authenticated user. It must run after the user is resolved. Panics
// are reported and then re-raised for the outer recovery middleware to answer.
func SentryMiddleware(userExtractor UserContextExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.CurrentHub().Clone()
			scope := hub.Scope()
			scope.SetRequest(r)
			if id := domain.RequestIDFromContext(r.Context()); id != "" {
				scope.SetTag("request_id", id)
			}
			if userExtractor != nil {
				if user := userExtractor(r.Context()); user != nil {
					scope.SetUser(sentry.User{ID: user.ID, Username: user.Phone})
				}
			}
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			defer func() {
				if err := recover(); err != nil {
					if err != http.ErrAbortHandler {
						hub.RecoverWithContext(ctx, err)
						hub.Flush(2 * time.Second)
					}
					panic(err)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HTTPTransport wraps an http.RoundTripper to trace outgoing gateway calls
// and record their latency.
type HTTPTransport struct {
	Transport http.RoundTripper
	Gateway   string
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	defer func() {
		if Business != nil {
			Business.GatewayLatency.WithLabelValues(t.Gateway, operationLabel(req)).Observe(time.Since(start).Seconds())
		}
	}()

	if !IsEnabled() {
		return base.RoundTrip(req)
	}

	span := sentry.StartSpan(req.Context(), "http.client")
	span.Description = fmt.Sprintf("%s %s", t.Gateway, operationLabel(req))
	defer span.Finish()

	resp, err := base.RoundTrip(req)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.SetData("http.status_code", resp.StatusCode)
	}
	return resp, err
}

// operationLabel is the method and path with identifier segments collapsed,
// e.g. "GET /v1/checkout/sessions/{id}".
func operationLabel(req *http.Request) string {
	segments := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = "{id}"
		}
	}
	return req.Method + " /" + strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) >= 20 {
		return true
	}
	prefix, _, found := strings.Cut(seg, "_")
	return found && len(prefix) <= 4 && len(seg) > len(prefix)+8
}

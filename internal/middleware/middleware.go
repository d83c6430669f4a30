// Package middleware provides the http.RoundTripper chain every storefront API
// call passes through.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Middleware decorates a transport.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain wraps base so that the first middleware is the outermost.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

type routeKey struct{}
type publicKey struct{}
type tokenKey struct{}
type sentKey struct{}

// sentToken is filled in by Auth with the bearer it attached.
type sentToken struct{ token string }

// WithRoute tags the request context with its route template, e.g. "/products/{id}".
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// Route returns the route template set by WithRoute, or the raw path.
func Route(r *http.Request) string {
	if v, ok := r.Context().Value(routeKey{}).(string); ok && v != "" {
		return v
	}
	return r.URL.Path
}

// WithPublic marks a credential-exchange request (login, register). Public
// requests carry no bearer token and never trigger the unauthorized hook.
func WithPublic(ctx context.Context) context.Context {
	return context.WithValue(ctx, publicKey{}, true)
}

// IsPublic reports whether the request was marked with WithPublic.
func IsPublic(r *http.Request) bool {
	v, _ := r.Context().Value(publicKey{}).(bool)
	return v
}

// WithToken pins the bearer token for one request, overriding the token source.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// RequestID sets X-Request-ID when the caller did not.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("X-Request-ID") == "" {
				r = r.Clone(r.Context())
				r.Header.Set("X-Request-ID", uuid.NewString())
			}
			return next.RoundTrip(r)
		})
	}
}

// Auth injects "Authorization: Bearer <token>" using the current token.
func Auth(token func() string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if IsPublic(r) {
				return next.RoundTrip(r)
			}
			t, pinned := r.Context().Value(tokenKey{}).(string)
			if !pinned {
				t = token()
			}
			if sent, ok := r.Context().Value(sentKey{}).(*sentToken); ok {
				sent.token = t
			}
			if t != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+t)
			}
			return next.RoundTrip(r)
		})
	}
}

// Unauthorized calls onReject for every 401 answered to a non-public request,
// passing the bearer token Auth attached to it ("" when none was sent).
// The response is still returned to the caller unchanged.
func Unauthorized(onReject func(r *http.Request, token string)) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			sent := &sentToken{}
			r = r.WithContext(context.WithValue(r.Context(), sentKey{}, sent))
			resp, err := next.RoundTrip(r)
			if err == nil && resp.StatusCode == http.StatusUnauthorized && !IsPublic(r) {
				onReject(r, sent.token)
			}
			return resp, err
		})
	}
}

// Metrics records outbound request metrics
func Metrics(m *metrics.AppMetrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			duration := time.Since(start).Milliseconds()

			statusCode := 0
			if resp != nil {
				statusCode = resp.StatusCode
			}
			ctx := r.Context()
			attrs := m.WithServiceName([]attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", Route(r)),
				attribute.Int("http.status_code", statusCode),
			})

			m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
			// transport failures and 4xx/5xx
			if err != nil || statusCode >= 400 {
				m.HTTPRequestsErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			m.HTTPRequestDuration.Record(ctx, float64(duration), metric.WithAttributes(attrs...))
			return resp, err
		})
	}
}

// Logging logs each request at debug level and transport failures at warn.
func Logging(logger *zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			elapsed := time.Since(start)
			if err != nil {
				logger.Warn().Err(err).
					Str("method", r.Method).
					Str("route", Route(r)).
					Dur("duration", elapsed).
					Msg("storefront request failed")
				return resp, err
			}
			logger.Debug().
				Str("method", r.Method).
				Str("route", Route(r)).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Int("status", resp.StatusCode).
				Dur("duration", elapsed).
				Msg("storefront request")
			return resp, err
		})
	}
}

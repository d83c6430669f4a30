package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/SigNoz/storefront-client/internal/metrics/metricstest"
)

// stub answers every request with status and records what it saw.
type stub struct {
	status int
	err    error
	seen   []*http.Request
}

func (s *stub) RoundTrip(r *http.Request) (*http.Response, error) {
	s.seen = append(s.seen, r)
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{StatusCode: s.status, Body: io.NopCloser(strings.NewReader("{}")), Request: r}, nil
}

func newRequest(t *testing.T, ctx context.Context) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://storefront.test/api/orders/7", nil)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	rt := Chain(&stub{status: 200}, mark("outer"), mark("inner"))
	if _, err := rt.RoundTrip(newRequest(t, context.Background())); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("order = %v", order)
	}
}

func TestAuth(t *testing.T) {
	base := &stub{status: 200}
	token := "abc"
	rt := Chain(base, Auth(func() string { return token }))
	ctx := context.Background()

	_, _ = rt.RoundTrip(newRequest(t, ctx))
	_, _ = rt.RoundTrip(newRequest(t, WithPublic(ctx)))
	_, _ = rt.RoundTrip(newRequest(t, WithToken(ctx, "pinned")))
	token = ""
	_, _ = rt.RoundTrip(newRequest(t, ctx))

	want := []string{"Bearer abc", "", "Bearer pinned", ""}
	for i, r := range base.seen {
		if got := r.Header.Get("Authorization"); got != want[i] {
			t.Errorf("request %d Authorization = %q, want %q", i, got, want[i])
		}
	}
}

func TestUnauthorized(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		status int
		ctx    context.Context
		want   int
	}{
		{"401", http.StatusUnauthorized, ctx, 1},
		{"401 public", http.StatusUnauthorized, WithPublic(ctx), 0},
		{"403", http.StatusForbidden, ctx, 0},
		{"200", http.StatusOK, ctx, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			rt := Chain(&stub{status: tc.status}, Unauthorized(func(*http.Request, string) { calls++ }))
			resp, err := rt.RoundTrip(newRequest(t, tc.ctx))
			if err != nil || resp.StatusCode != tc.status {
				t.Fatalf("RoundTrip = %v, %v", resp, err)
			}
			if calls != tc.want {
				t.Fatalf("hook calls = %d, want %d", calls, tc.want)
			}
		})
	}
}

func TestUnauthorizedReportsSentToken(t *testing.T) {
	current := "tok-1"
	var rejected []string
	rt := Chain(&stub{status: http.StatusUnauthorized},
		Unauthorized(func(_ *http.Request, token string) { rejected = append(rejected, token) }),
		Auth(func() string { return current }),
	)

	if _, err := rt.RoundTrip(newRequest(t, context.Background())); err != nil {
		t.Fatal(err)
	}
	current = "tok-2"
	if _, err := rt.RoundTrip(newRequest(t, WithToken(context.Background(), "tok-1"))); err != nil {
		t.Fatal(err)
	}
	current = ""
	if _, err := rt.RoundTrip(newRequest(t, context.Background())); err != nil {
		t.Fatal(err)
	}

	want := []string{"tok-1", "tok-1", ""}
	if len(rejected) != len(want) {
		t.Fatalf("rejected = %q, want %q", rejected, want)
	}
	for i := range want {
		if rejected[i] != want[i] {
			t.Errorf("rejection %d token = %q, want %q", i, rejected[i], want[i])
		}
	}
}

func TestRequestID(t *testing.T) {
	base := &stub{status: 200}
	rt := Chain(base, RequestID())

	_, _ = rt.RoundTrip(newRequest(t, context.Background()))
	preset := newRequest(t, context.Background())
	preset.Header.Set("X-Request-ID", "fixed")
	_, _ = rt.RoundTrip(preset)

	if id := base.seen[0].Header.Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("generated id = %q", id)
	}
	if id := base.seen[1].Header.Get("X-Request-ID"); id != "fixed" {
		t.Errorf("caller id replaced: %q", id)
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	rec := metricstest.New(t)
	ctx := WithRoute(context.Background(), "/orders/{id}")

	ok := Chain(&stub{status: 200}, Metrics(rec.Metrics))
	failing := Chain(&stub{err: errors.New("connection refused")}, Metrics(rec.Metrics))
	_, _ = ok.RoundTrip(newRequest(t, ctx))
	_, _ = failing.RoundTrip(newRequest(t, ctx))

	if got := rec.Int64Sum(t, "http.client.request.count"); got != 2 {
		t.Errorf("request count = %d", got)
	}
	if got := rec.Int64Sum(t, "http.client.request.error.count"); got != 1 {
		t.Errorf("error count = %d", got)
	}
}

func TestRoute(t *testing.T) {
	if got := Route(newRequest(t, context.Background())); got != "/api/orders/7" {
		t.Errorf("Route without template = %q", got)
	}
	if got := Route(newRequest(t, WithRoute(context.Background(), "/orders/{id}"))); got != "/orders/{id}" {
		t.Errorf("Route = %q", got)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	rt := Chain(&stub{status: 204}, Logging(&logger))
	_, _ = rt.RoundTrip(newRequest(t, WithRoute(context.Background(), "/orders/{id}")))
	failing := Chain(&stub{err: errors.New("boom")}, Logging(&logger))
	_, _ = failing.RoundTrip(newRequest(t, context.Background()))

	out := buf.String()
	if !strings.Contains(out, `"route":"/orders/{id}"`) || !strings.Contains(out, `"status":204`) {
		t.Errorf("request log missing fields: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "boom") {
		t.Errorf("failure not logged at warn: %s", out)
	}
}

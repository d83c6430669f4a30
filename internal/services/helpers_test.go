package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/api/apitest"
	"github.com/SigNoz/storefront-client/internal/metrics/metricstest"
	"github.com/SigNoz/storefront-client/internal/storage"
)

type fixture struct {
	srv     *apitest.Server
	client  *api.Client
	store   *storage.Memory
	session *SessionStore
	rec     *metricstest.Recorder
	logger  *zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	rec := metricstest.New(t)
	client := api.New(srv.BaseURL(), api.WithMetrics(rec.Metrics), api.WithLogger(&logger))
	store := storage.NewMemory()

	return &fixture{
		srv:     srv,
		client:  client,
		store:   store,
		session: NewSessionStore(client, store, rec.Metrics, &logger),
		rec:     rec,
		logger:  &logger,
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if err := f.session.Login(context.Background(), apitest.SeedUsername, apitest.SeedPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func (f *fixture) chat(t *testing.T, opts ...ChatOption) *ChatManager {
	t.Helper()
	m := NewChatManager(f.client, f.rec.Metrics, f.logger, opts...)
	t.Cleanup(m.Close)
	return m
}

// drain collects whatever events are buffered on ch without blocking.
func drain(ch <-chan SessionEvent) []SessionEvent {
	var out []SessionEvent
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, within time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/SigNoz/storefront-client/internal/db"
	"github.com/SigNoz/storefront-client/internal/metrics/metricstest"
	"github.com/SigNoz/storefront-client/pkg/config"
)

// exerciseStore runs the shared slot contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, SlotToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, SlotToken, "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, SlotUser, `{"id":1}`); err != nil {
		t.Fatalf("Set user: %v", err)
	}
	if err := s.Set(ctx, SlotToken, "tok-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, err := s.Get(ctx, SlotToken); err != nil || v != "tok-2" {
		t.Fatalf("Get token = %q, %v; want tok-2", v, err)
	}
	if v, err := s.Get(ctx, SlotUser); err != nil || v != `{"id":1}` {
		t.Fatalf("Get user = %q, %v", v, err)
	}

	if err := s.Delete(ctx, SlotToken, SlotUser, "never-set"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, k := range []string{SlotToken, SlotUser} {
		if _, err := s.Get(ctx, k); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get %s after delete: err = %v, want ErrNotFound", k, err)
		}
	}
	if err := s.Delete(ctx, SlotToken); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile")
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	exerciseStore(t, s)
}

func TestFileSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := s.Set(ctx, SlotToken, "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, sessionFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}

	reopened, _ := NewFile(dir)
	if v, err := reopened.Get(ctx, SlotToken); err != nil || v != "persisted" {
		t.Fatalf("Get after reopen = %q, %v", v, err)
	}
}

func TestFileCorruptIsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, sessionFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFile(dir)
	if _, err := s.Get(context.Background(), SlotToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on corrupt file: err = %v, want ErrNotFound", err)
	}
	exerciseStore(t, s)
}

func TestSQLOnSQLite(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	database, err := db.NewDB(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "slots.db"), "test", &logger)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	s, err := NewSQL(ctx, database)
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)

	// schema creation is idempotent
	if _, err := NewSQL(ctx, database); err != nil {
		t.Fatalf("second NewSQL: %v", err)
	}
}

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedis(t *testing.T) {
	fake := newFakeRedis()
	s := NewRedisWithClient(fake, "storefront:")
	exerciseStore(t, s)

	if err := s.Set(context.Background(), SlotToken, "abc"); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.data["storefront:token"]; !ok {
		t.Fatalf("key not prefixed: %v", fake.data)
	}
	s.Close()
	if !fake.closed {
		t.Error("Close did not reach the client")
	}
}

func TestInstrumentedRecordsOperations(t *testing.T) {
	rec := metricstest.New(t)
	s := Instrument(NewMemory(), BackendMemory, rec.Metrics)
	ctx := context.Background()

	_ = s.Set(ctx, SlotToken, "x")
	_, _ = s.Get(ctx, SlotToken)
	_ = s.Delete(ctx, SlotToken)

	if got := rec.Int64Sum(t, "storage.operations.count"); got != 3 {
		t.Fatalf("storage.operations.count = %d, want 3", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	rec := metricstest.New(t)

	for _, backend := range []string{BackendFile, BackendMemory, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := &config.Config{StorageBackend: backend, ProfileDir: t.TempDir(), OTELServiceName: "test"}
			s, err := Open(ctx, cfg, rec.Metrics, &logger)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			exerciseStore(t, s)
		})
	}

	if _, err := Open(ctx, &config.Config{StorageBackend: "floppy"}, rec.Metrics, &logger); err == nil {
		t.Fatal("Open with unknown backend succeeded")
	}
}

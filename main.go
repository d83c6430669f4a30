package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/fakeapi"
	"github.com/SigNoz/storefront-client/internal/logging"
	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/internal/services"
	"github.com/SigNoz/storefront-client/internal/storage"
	"github.com/SigNoz/storefront-client/pkg/config"
)

// app bundles the components every command works with.
type app struct {
	cfg      *config.Config
	logger   *zerolog.Logger
	metrics  *metrics.AppMetrics
	store    storage.Store
	client   *api.Client
	session  *services.SessionStore
	cart     *services.Cart
	chat     *services.ChatManager
	products *services.ProductService
	orders   *services.OrderService
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// Load configuration
	cfg := config.LoadConfig()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "serve-fake" {
		if err := serveFake(ctx, logger, args); err != nil {
			logger.Fatal().Err(err).Msg("fake storefront failed")
		}
		return
	}

	a, shutdown, err := bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer shutdown()

	if err := a.run(ctx, cmd, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		shutdown()
		os.Exit(1)
	}
}

// bootstrap wires configuration, metrics, storage and the state managers.
// The returned function releases everything and is safe to call twice.
func bootstrap(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*app, func(), error) {
	// Initialize OpenTelemetry metrics
	appMetrics, metricsShutdown, err := metrics.InitMetrics(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize metrics: %w", err)
	}

	store, err := storage.Open(ctx, cfg, appMetrics, logger)
	if err != nil {
		_ = metricsShutdown(context.Background())
		return nil, nil, fmt.Errorf("open session storage: %w", err)
	}

	client := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithMetrics(appMetrics),
		api.WithLogger(logging.Component(logger, "http")),
	)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  appMetrics,
		store:    store,
		client:   client,
		session:  services.NewSessionStore(client, store, appMetrics, logger),
		cart:     services.NewCart(appMetrics, logger),
		chat:     services.NewChatManager(client, appMetrics, logger),
		products: services.NewProductService(client, appMetrics, logger),
		orders:   services.NewOrderService(client, appMetrics, logger),
	}

	done := false
	shutdown := func() {
		if done {
			return
		}
		done = true
		a.chat.Close()
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing session storage")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("error shutting down meter provider")
		}
	}
	return a, shutdown, nil
}

// serveFake runs the in-memory storefront API on a real address until ctx ends.
func serveFake(ctx context.Context, logger *zerolog.Logger, args []string) error {
	addr := ":5000"
	if len(args) > 0 {
		addr = args[0]
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      fakeapi.NewServer().Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msgf("fake storefront listening, sign in as %s/%s", fakeapi.SeedUsername, fakeapi.SeedPassword)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down fake storefront")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/kalshi-live/internal/api"
	"github.com/rickgao/kalshi-live/internal/auth"
	"github.com/rickgao/kalshi-live/internal/book"
	"github.com/rickgao/kalshi-live/internal/config"
	"github.com/rickgao/kalshi-live/internal/database"
	"github.com/rickgao/kalshi-live/internal/feed"
	"github.com/rickgao/kalshi-live/internal/hub"
	"github.com/rickgao/kalshi-live/internal/metadata"
	"github.com/rickgao/kalshi-live/internal/publish"
	"github.com/rickgao/kalshi-live/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/live.local.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting live dissemination",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Instance.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"metadata_source", cfg.Metadata.Source,
		"ws_url", cfg.API.WSURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	var creds *auth.Credentials
	if cfg.API.APIKey != "" && cfg.API.PrivateKeyPath != "" {
		creds, err = auth.LoadCredentials(cfg.API.APIKey, cfg.API.PrivateKeyPath)
		if err != nil {
			logger.Error("failed to load credentials", "error", err)
			os.Exit(1)
		}
		logger.Info("credentials loaded", "key_id", cfg.API.APIKey)
	} else {
		logger.Warn("no credentials configured, feed handshake will be unsigned")
	}

	markets, err := loadMetadata(ctx, cfg, creds, logger)
	if err != nil {
		logger.Error("failed to load market metadata", "error", err)
		os.Exit(1)
	}
	if markets.Len() == 0 {
		logger.Warn("metadata store is empty, updates will have nothing to join against")
	}

	tickers := cfg.Feed.Tickers
	if len(tickers) == 0 {
		tickers = markets.Tickers()
	}
	logger.Info("subscribing", "tickers", len(tickers), "channels", cfg.Feed.Channels)

	books := book.NewRegistry()

	h := hub.NewHub(hub.Config{
		SendBuffer:   cfg.Server.SendBuffer,
		WriteTimeout: cfg.Server.WriteTimeout,
		PongTimeout:  cfg.Server.PongTimeout,
	}, logger)

	processor := feed.NewProcessor(feed.ProcessorConfig{
		Client: feed.ClientConfig{
			URL:          cfg.API.WSURL,
			Credentials:  creds,
			PingInterval: cfg.Feed.PingInterval,
			PingTimeout:  cfg.Feed.PingTimeout,
			WriteTimeout: cfg.Feed.WriteTimeout,
			BufferSize:   cfg.Feed.BufferSize,
		},
		Channels:           cfg.Feed.Channels,
		Tickers:            tickers,
		ReconnectBaseDelay: cfg.Feed.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Feed.ReconnectMaxDelay,
		ChangeBufferSize:   cfg.Feed.ChangeBufferSize,
	}, books, logger)

	publisher := publish.NewPublisher(books, markets, h, processor.Changes(), logger)

	if err := h.Start(ctx); err != nil {
		logger.Error("failed to start hub", "error", err)
		os.Exit(1)
	}
	if err := publisher.Start(ctx); err != nil {
		logger.Error("failed to start publisher", "error", err)
		os.Exit(1)
	}
	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start feed processor", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler: newRouter(h, books, markets, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("live dissemination running",
		"instance_id", cfg.Instance.ID,
		"ws_endpoint", fmt.Sprintf("ws://%s/ws", server.Addr),
	)

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		cancel()
	}

	// Stop in reverse dependency order: feed first so the change channel
	// drains, then the publisher, then the hub.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stopCancel()
	processor.Stop(stopCtx)
	publisher.Stop(stopCtx)
	h.Stop(stopCtx)

	logger.Info("live dissemination stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadMetadata populates the market store from the configured source.
func loadMetadata(ctx context.Context, cfg *config.LiveConfig, creds *auth.Credentials, logger *slog.Logger) (*metadata.Store, error) {
	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var loader metadata.Loader
	switch cfg.Metadata.Source {
	case "postgres":
		logger.Info("connecting to database",
			"host", cfg.Metadata.Database.Host,
			"database", cfg.Metadata.Database.Name,
		)
		pool, err := database.Connect(loadCtx, cfg.Metadata.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		loader = metadata.NewPostgresLoader(pool, cfg.Metadata.Lookahead, logger)

	default: // "api", enforced by config validation
		opts := []api.ClientOption{
			api.WithLogger(logger),
			api.WithTimeout(cfg.API.Timeout),
			api.WithRetries(cfg.API.MaxRetries, time.Second),
		}
		if creds != nil {
			opts = append(opts, api.WithCredentials(creds))
		}
		client := api.NewClient(cfg.API.RestURL, opts...)
		loader = metadata.NewAPILoader(client, cfg.Metadata.SeriesTicker, cfg.Metadata.Status, logger)
	}

	loaded, err := loader.Load(loadCtx)
	if err != nil {
		return nil, err
	}

	store := metadata.NewStore()
	store.Replace(loaded)
	return store, nil
}

// newRouter builds the subscriber-facing HTTP surface.
func newRouter(h *hub.Hub, books *book.Registry, markets *metadata.Store, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ws", h.ServeWS)

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "healthy",
			"markets":     markets.Len(),
			"books":       len(books.ListTickers()),
			"subscribers": h.Count(),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/debug/books", func(w http.ResponseWriter, req *http.Request) {
		tickers := books.ListTickers()
		tops := make([]any, 0, len(tickers))
		for _, ticker := range tickers {
			if b, ok := books.Get(ticker); ok {
				tops = append(tops, b.TopOfBook())
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count": len(tops),
			"books": tops,
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/debug/books/{ticker}/depth", func(w http.ResponseWriter, req *http.Request) {
		ticker := mux.Vars(req)["ticker"]
		b, ok := books.Get(ticker)
		if !ok {
			http.Error(w, "unknown ticker", http.StatusNotFound)
			return
		}

		levels := 10
		if v := req.URL.Query().Get("levels"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				levels = n
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ticker": ticker,
			"depth":  b.Depth(levels),
		})
	}).Methods(http.MethodGet)

	return r
}

// Command voxpedido is the voice-order ingestion server: it accepts recorded
// audio orders, transcribes them, extracts a structured order, matches it
// against the product catalog, and commits it to PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/barriocredito/voxpedido/internal/catalog"
	"github.com/barriocredito/voxpedido/internal/config"
	"github.com/barriocredito/voxpedido/internal/events"
	"github.com/barriocredito/voxpedido/internal/extract"
	"github.com/barriocredito/voxpedido/internal/health"
	"github.com/barriocredito/voxpedido/internal/logging"
	"github.com/barriocredito/voxpedido/internal/observe"
	"github.com/barriocredito/voxpedido/internal/order"
	"github.com/barriocredito/voxpedido/internal/pipeline"
	"github.com/barriocredito/voxpedido/internal/server"
	"github.com/barriocredito/voxpedido/internal/store/postgres"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxpedido: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxpedido: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger, logLevel := logging.Setup(logging.FromConfig(cfg.Logging))

	logger.Info("voxpedido starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Logging.Level,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxpedido",
		ServiceVersion: version,
	})
	if err != nil {
		logger.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Store ─────────────────────────────────────────────────────────────────
	pool, err := postgres.Connect(ctx, cfg.Store.PostgresDSN)
	if err != nil {
		logger.Error("failed to connect to postgres", "err", err)
		return 1
	}
	defer pool.Close()

	pgStore := postgres.New(pool)
	if cfg.Store.Migrate {
		if err := pgStore.Migrate(ctx); err != nil {
			logger.Error("failed to apply schema", "err", err)
			return 1
		}
		logger.Info("schema applied")
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.DefaultRegistry()

	sttProvider, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		logger.Error("failed to create stt provider", "name", cfg.Providers.STT.Name, "err", err)
		return 1
	}
	logger.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	llmProvider, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		logger.Error("failed to create llm provider", "name", cfg.Providers.LLM.Name, "err", err)
		return 1
	}
	logger.Info("provider created", "kind", "llm",
		"name", cfg.Providers.LLM.Name, "model", cfg.Providers.LLM.Model)

	// ── Pipeline stages ───────────────────────────────────────────────────────
	var extractOpts []extract.Option
	if cfg.Extraction.Temperature > 0 {
		extractOpts = append(extractOpts, extract.WithTemperature(cfg.Extraction.Temperature))
	}
	if cfg.Extraction.MaxTokens > 0 {
		extractOpts = append(extractOpts, extract.WithMaxTokens(cfg.Extraction.MaxTokens))
	}
	extractor, err := extract.New(llmProvider, extractOpts...)
	if err != nil {
		logger.Error("failed to create extractor", "err", err)
		return 1
	}

	matcher := catalog.New(catalog.WithMinSharedTokens(cfg.Matcher.MinSharedTokens))
	suggester := catalog.NewSuggester(catalog.WithSuggestionThreshold(cfg.Matcher.SuggestionThreshold))
	assembler := order.NewAssembler(matcher, suggester)

	committer, err := order.NewCommitter(pgStore, cfg.Order.Status)
	if err != nil {
		logger.Error("failed to create committer", "err", err)
		return 1
	}

	// ── Events (optional) ─────────────────────────────────────────────────────
	var publisher events.Publisher = events.Noop{}
	if len(cfg.Events.Brokers) > 0 {
		producer, err := events.NewProducer(cfg.Events.Brokers, cfg.Events.Topic, logger)
		if err != nil {
			logger.Error("failed to create event producer", "err", err)
			return 1
		}
		producer.Start(ctx)
		defer producer.WaitClosed()
		defer producer.Close()
		publisher = producer
		logger.Info("event producer started", "brokers", cfg.Events.Brokers, "topic", cfg.Events.Topic)
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	pipe, err := pipeline.New(sttProvider, extractor, pgStore, assembler, committer,
		pipeline.Config{
			BuyerID:     cfg.Order.BuyerID,
			Currency:    cfg.Order.Currency,
			Locale:      cfg.Order.Locale,
			OwnerFilter: cfg.Order.OwnerFilter,
		},
		pipeline.WithPublisher(publisher),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create pipeline", "err", err)
		return 1
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	healthHandler := health.New(
		health.Database(pool),
		health.Providers(sttProvider != nil, llmProvider != nil),
	)

	srv, err := server.New(pipe, healthHandler, server.Config{
		Addr:           cfg.Server.ListenAddr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(logging.ParseLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.OrderChanged || d.ExtractionChanged || d.MatcherChanged || d.EventsChanged {
			slog.Warn("config changes beyond log level require a restart to take effect")
		}
	})
	if err != nil {
		logger.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	logger.Info("server ready — press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run error", "err", err)
		return 1
	}

	logger.Info("goodbye")
	return 0
}

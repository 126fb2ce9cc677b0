package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/log/global"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/callscribe/internal/calls"
	"github.com/fyrsmithlabs/callscribe/internal/config"
	"github.com/fyrsmithlabs/callscribe/internal/elevenlabs"
	"github.com/fyrsmithlabs/callscribe/internal/extraction"
	"github.com/fyrsmithlabs/callscribe/internal/logging"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
	"github.com/fyrsmithlabs/callscribe/internal/telemetry"
)

// app holds every dependency a long-running command needs.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	natsConn  *nats.Conn
	store     calls.Store
	catalog   *prompt.Catalog
	engine    *extraction.Engine
	service   *calls.Service
	temporal  client.Client
}

// newApp wires the dependencies described by cfg. The caller must Close it.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	if err := a.init(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) (err error) {
	cfg := a.cfg

	if a.logger, err = initLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	zl := a.logger.Underlying()

	a.telemetry, err = telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version), zl)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if a.engine, err = extraction.NewEngine(extraction.Config{
		DisableFallback: cfg.Extraction.DisableFallback,
		Logger:          zl,
	}); err != nil {
		return fmt.Errorf("failed to build extraction engine: %w", err)
	}

	if a.catalog, err = prompt.NewCatalog(cfg.Templates.Path, zl); err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	provider, err := elevenlabs.New(elevenlabs.FromConfig(cfg.ElevenLabs, zl))
	if err != nil {
		return fmt.Errorf("failed to create provider client: %w", err)
	}
	if !provider.Configured() {
		zl.Warn("provider API key not configured, calls will fail until ELEVENLABS_API_KEY is set")
	}

	if cfg.Store.Backend == config.StoreNATS || cfg.NATS.Events {
		if a.natsConn, err = connectNATS(cfg.NATS.URL, zl); err != nil {
			return err
		}
	}

	switch cfg.Store.Backend {
	case config.StoreNATS:
		a.store, err = calls.NewKVStore(ctx, a.natsConn, calls.KVConfig{
			Bucket:    cfg.NATS.Bucket,
			Retention: cfg.Store.Retention,
		})
		if err != nil {
			return fmt.Errorf("failed to open call store: %w", err)
		}
	default:
		a.store = calls.NewMemoryStore()
	}

	var events calls.EventPublisher = calls.NopPublisher{}
	if cfg.NATS.Events {
		events = calls.NewNATSPublisher(a.natsConn, cfg.NATS.SubjectPrefix)
	}

	a.service, err = calls.NewService(calls.Options{
		Provider:        provider,
		Store:           a.store,
		Extractor:       a.engine,
		Events:          events,
		Templates:       a.catalog,
		Logger:          zl,
		DefaultVoiceID:  cfg.ElevenLabs.DefaultVoiceID,
		DefaultLanguage: cfg.ElevenLabs.DefaultLang,
	})
	if err != nil {
		return fmt.Errorf("failed to create call service: %w", err)
	}

	zl.Info("dependencies initialized",
		zap.String("store", cfg.Store.Backend),
		zap.Bool("nats_connected", a.natsConn != nil),
		zap.Bool("events", cfg.NATS.Events),
		zap.Bool("telemetry", a.telemetry.IsEnabled()),
		zap.Strings("telemetry_failed", a.telemetry.Health().Failed),
		zap.Int("templates", len(a.catalog.Keys())),
	)
	return nil
}

// dialTemporal connects the Temporal client used by the starter and worker.
func (a *app) dialTemporal() (client.Client, error) {
	if a.temporal != nil {
		return a.temporal, nil
	}
	c, err := client.Dial(client.Options{
		HostPort:  a.cfg.Temporal.HostPort,
		Namespace: a.cfg.Temporal.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	a.temporal = c
	a.logger.Underlying().Info("temporal client connected",
		zap.String("host", a.cfg.Temporal.HostPort),
		zap.String("namespace", a.cfg.Temporal.Namespace),
	)
	return c, nil
}

// Close releases all resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	if a.temporal != nil {
		a.temporal.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
	}
	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = a.telemetry.Shutdown(shutdownCtx)
	}
	if a.logger != nil {
		_ = a.logger.Sync() // Best-effort sync
	}
}

// initLogger builds the structured logger. OTEL output is enabled with
// telemetry.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	lc, err := logging.NewConfig(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	if !cfg.Observability.EnableTelemetry {
		return logging.NewLogger(lc, nil)
	}
	lc.Output.OTEL = true
	return logging.NewLogger(lc, global.GetLoggerProvider())
}

func connectNATS(url string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("callscribe"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

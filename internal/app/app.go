// Package app assembles the certificate service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/audit"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/auth"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/certificate"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/config"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/handler"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/httpmiddleware"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/metrics"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/queue"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/render"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/store"
)

const issueInFlightMessage = "Certificate generation already in progress."

// App is the wired set of components shared by the binaries.
type App struct {
	Config   config.App
	Logger   *zap.Logger
	Service  *certificate.Service
	Renderer *render.Renderer
	Queue    queue.Queue
	Registry *prometheus.Registry
	DB       *store.DB
	Redis    *store.Redis
}

// New connects the configured backends and builds the service.
func New(ctx context.Context, cfg config.App, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.UsesRedis() {
		a.Redis = store.NewRedis(cfg.RedisAddr)
		if !a.Redis.Healthy(ctx) {
			logger.Warn("redis not reachable", zap.String("addr", cfg.RedisAddr))
		}
	}

	certStore, err := a.buildStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	switch cfg.QueueBackend {
	case config.BackendMemory:
		a.Queue = queue.NewInMemory(256)
	default:
		a.Queue = queue.NewRedisQueue(a.Redis.Client, cfg.QueueKey)
	}

	client := render.NewHTTPClient(cfg.AssetTimeout)
	a.Renderer = render.New(render.Options{
		Template:  render.NewSource(cfg.TemplateURL, client),
		Font:      render.NewSource(cfg.FontURL, client),
		VerifyURL: cfg.VerifyURL,
		Logger:    logger,
	})

	a.Service = certificate.NewService(certificate.Options{
		Store:        certStore,
		Renderer:     a.Renderer,
		Events:       audit.NewPublisher(a.Queue),
		Metrics:      metrics.New(a.Registry),
		Logger:       logger,
		WriteTimeout: cfg.StoreWriteTimeout,
		Enabled:      cfg.CertificatesEnabled,
	})
	return a, nil
}

func (a *App) buildStore(ctx context.Context) (certificate.Store, error) {
	switch a.Config.StoreBackend {
	case config.BackendMemory:
		a.Logger.Warn("using in-memory certificate store, records are lost on restart")
		return certificate.NewMemoryStore(), nil
	case config.BackendPostgres:
		db, err := a.OpenDB(ctx)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, db.Client); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return certificate.NewPostgresStore(db.Client), nil
	default:
		return certificate.NewRedisStore(a.Redis.Client, a.Config.StoreKeyPrefix), nil
	}
}

// OpenDB connects to Postgres once and reuses the pool afterwards.
func (a *App) OpenDB(ctx context.Context) (*store.DB, error) {
	if a.DB != nil {
		return a.DB, nil
	}
	db, err := store.NewDB(ctx, a.Config.DatabaseURL)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	a.DB = db
	return db, nil
}

// Sink returns where audit events end up: the events table when Postgres is
// reachable, the log otherwise.
func (a *App) Sink(ctx context.Context) audit.Sink {
	db, err := a.OpenDB(ctx)
	if err != nil {
		a.Logger.Warn("audit events will only be logged", zap.Error(err))
		return audit.NewLogSink(a.Logger)
	}
	if err := store.Migrate(ctx, db.Client); err != nil {
		a.Logger.Warn("audit events will only be logged", zap.Error(err))
		return audit.NewLogSink(a.Logger)
	}
	return audit.NewRepository(db.Client)
}

// Consume drains audit events from the queue into sink until ctx ends.
func (a *App) Consume(ctx context.Context, sink audit.Sink) error {
	return audit.NewConsumer(a.Queue, sink, a.Logger).Run(ctx)
}

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	cfg := a.Config
	r := gin.New()
	r.Use(httpmiddleware.Recovery(a.Logger))
	r.Use(httpmiddleware.RequestLogger(a.Logger, "/healthz", "/metrics"))
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	health := map[string]handler.HealthCheck{
		"store": func(ctx context.Context) bool { return a.Service.Ping(ctx) == nil },
	}
	if a.Redis != nil {
		health["redis"] = a.Redis.Healthy
	}

	h := handler.New(handler.Options{
		Service:  a.Service,
		Assets:   a.Renderer,
		Filename: cfg.CertificateFilename,
		Health:   health,
		Gatherer: a.Registry,
		Logger:   a.Logger,
	})
	h.Register(r,
		auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleAdmin),
		httpmiddleware.NewInFlight(issueInFlightMessage).GinMiddleware(),
	)
	return r
}

// LogAssetCheck probes the template and font and warns when either is missing.
func (a *App) LogAssetCheck(ctx context.Context) []render.AssetStatus {
	statuses := a.Renderer.CheckAssets(ctx)
	if missing := render.Inaccessible(statuses); len(missing) > 0 {
		for _, st := range missing {
			a.Logger.Warn("required file not accessible",
				zap.String("name", st.Name), zap.String("location", st.Location), zap.String("error", st.Error))
		}
		a.Logger.Warn("certificate generation may use fallback mode")
	} else {
		a.Logger.Info("all required files are accessible")
	}
	return statuses
}

// Close waits for pending record writes and releases connections.
func (a *App) Close() error {
	if a.Service != nil {
		a.Service.Wait()
	}
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

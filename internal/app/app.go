package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/dashlink/internal/auth"
	"github.com/MrSnakeDoc/dashlink/internal/config"
	"github.com/MrSnakeDoc/dashlink/internal/groups"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
	"github.com/MrSnakeDoc/dashlink/internal/redis"
	"github.com/MrSnakeDoc/dashlink/internal/scheduler"
	"github.com/MrSnakeDoc/dashlink/internal/sources/seed"
	redisstore "github.com/MrSnakeDoc/dashlink/internal/store/redis"
	"github.com/MrSnakeDoc/dashlink/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	core         *Core
	server       *httpserver.Server
	redisClient  *goredis.Client
	seedReloader *scheduler.SeedReloader
	iconGC       *scheduler.IconCollector
	sweeper      *scheduler.CounterSweeper
}

// JWTService builds the token service from the configuration.
func JWTService(cfg *config.Config) *auth.JWTService {
	return auth.NewJWTService(&auth.JWTConfig{
		SecretKey:     []byte(cfg.JWTSecret),
		TokenDuration: cfg.TokenTTL,
		Issuer:        cfg.JWTIssuer,
	})
}

func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	core, err := NewCore(cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: loggerClient, core: core}

	dir, err := groups.Parse(cfg.GroupSource)
	if err != nil {
		_ = core.Close()
		return nil, fmt.Errorf("invalid DASHLINK_GROUPS: %w", err)
	}
	loggerClient.Info("groups loaded", logger.Int("count", len(dir.List())))

	// Rate-limit counters go to Redis when configured so that several
	// replicas share them.
	var counter ratelimit.Counter
	if cfg.RedisEnabled() {
		client, err := redis.Connect(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			_ = core.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redisClient = client
		counter = redisstore.NewStore(client)
		loggerClient.Info("rate-limit counters stored in redis")
	} else {
		mem := ratelimit.NewMemoryCounter()
		a.sweeper = scheduler.NewCounterSweeper(mem,
			loggerClient.With(logger.String("component", "ratelimit")), cfg.CounterSweep)
		counter = mem
		loggerClient.Info("redis not configured, rate-limit counters kept in memory")
	}

	var seedTrigger chan struct{}
	if cfg.SeedFile != "" {
		seedTrigger = make(chan struct{}, 1)
		a.seedReloader = scheduler.NewSeedReloader(
			seed.NewLoader(cfg.SeedFile),
			core.Links,
			loggerClient.With(logger.String("component", "seed")),
			cfg.SeedInterval,
			seedTrigger,
		)
	} else {
		loggerClient.Info("seed file not configured, seeding disabled")
	}

	a.iconGC = scheduler.NewIconCollector(
		core.Store,
		core.Blobs,
		loggerClient.With(logger.String("component", "icon-gc")),
		cfg.IconGCInterval,
		cfg.IconGCGrace,
	)

	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		BaseURL:           cfg.BaseURL,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		Links:             core.Links,
		UserLinks:         core.UserLinks,
		Icons:             core.Icons,
		Settings:          core.Settings,
		Groups:            dir,
		Auth:              auth.NewMiddleware(JWTService(cfg), loggerClient),
		Limiter:           ratelimit.New(counter),
		Validate:          handlers.NewValidator(),
		DB:                core.DB,
		RedisClient:       a.redisClient,
		SeedReloadTrigger: seedTrigger,
	}

	a.server = httpserver.New(cfg, loggerClient, d)
	return a, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting DashLink v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("DashLink %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	if a.seedReloader != nil {
		if err := a.seedReloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.String("file", a.cfg.SeedFile),
			logger.Duration("interval", a.cfg.SeedInterval))
	}

	if err := a.iconGC.Start(ctx); err != nil {
		return fmt.Errorf("failed to start icon collector: %w", err)
	}
	a.logger.Info("icon collector started",
		logger.Duration("interval", a.cfg.IconGCInterval))

	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start counter sweeper: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.seedReloader != nil {
		a.seedReloader.Stop()
	}
	a.iconGC.Stop()
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ DashLink stopped cleanly")
	return nil
}

func (a *App) close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}
	if err := a.core.Close(); err != nil {
		a.logger.Warnf("failed to close database: %v", err)
	} else {
		a.logger.Info("✅ Database closed cleanly")
	}
}

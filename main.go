package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meinhoongagan/home-services/config"
	"github.com/meinhoongagan/home-services/cron"
	"github.com/meinhoongagan/home-services/db"
	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/mailer"
	"github.com/meinhoongagan/home-services/middleware"
	"github.com/meinhoongagan/home-services/redis"
	"github.com/meinhoongagan/home-services/routes"
	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	migrate := flag.Bool("migrate", false, "apply database migrations and exit")
	seed := flag.Bool("seed", false, "seed the default service categories and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.InitLogger(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := run(cfg, *migrate, *seed); err != nil {
		logger.Log.Error("server stopped", zap.Error(err))
		logger.SyncLogger()
		os.Exit(1)
	}
	logger.SyncLogger()
}

func run(cfg config.Config, migrate, seed bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(cfg, migrate, seed)
	if err != nil {
		return err
	}
	defer closeStore()
	if migrate || seed {
		return nil
	}

	deps := routes.Deps{
		Store:       st,
		Revoker:     redis.NewMemoryRevoker(),
		JWTSecret:   cfg.JWTSecret,
		JWTTTL:      cfg.JWTTTL,
		CORSOrigins: cfg.Origins(),
	}

	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer closeRedis(client)

		limiter, err := redis.NewFixedWindowLimiter(client, "", cfg.LoginRateLimitPerMinute, time.Minute)
		if err != nil {
			return err
		}
		deps.Revoker = redis.NewRedisRevoker(client)
		deps.Limiter = limiter
		logger.Log.Info("redis enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Log.Warn("REDIS_ADDR not set; token revocation is process-local and login is not rate limited")
	}

	if cfg.SMTP.Host != "" {
		deps.Notifier = mailer.New(utils.NewEmailSender(cfg.SMTP), st)
		scheduler, err := cron.StartCronJobs(st, deps.Notifier, cfg.ReminderSchedule)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	} else {
		logger.Log.Warn("SMTP_HOST not set; booking emails are disabled")
	}
	defer deps.Notifier.Wait()

	app := routes.NewApp(deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.Store))
		if err := app.Listen(":" + cfg.Port); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Log.Info("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStore returns the configured store and a func releasing its resources.
// With migrate or seed set it only prepares the database.
func openStore(cfg config.Config, migrate, seed bool) (store.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		if migrate || seed {
			return nil, nil, errors.New("-migrate and -seed need the postgres store")
		}
		logger.Log.Warn("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	gdb, err := db.Init(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("db handle: %w", err)
	}
	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Log.Warn("close db", zap.Error(err))
		}
	}

	if migrate {
		if err := db.Migrate(gdb); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	if seed {
		if err := db.SeedCategories(gdb); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	if !migrate && !seed {
		if err := middleware.RegisterDBStats(sqlDB); err != nil {
			logger.Log.Warn("register db metrics", zap.Error(err))
		}
	}
	return store.NewGormStore(gdb), closeDB, nil
}

func closeRedis(client *goredis.Client) {
	if err := client.Close(); err != nil {
		logger.Log.Warn("close redis", zap.Error(err))
	}
}

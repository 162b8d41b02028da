package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"signal-net/internal/config"
	"signal-net/internal/db"
	"signal-net/internal/events"
	apihttp "signal-net/internal/http"
	"signal-net/internal/metrics"
	"signal-net/internal/repository"
	"signal-net/internal/repository/memstore"
	"signal-net/internal/service"
	"signal-net/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	clock := clockwork.NewRealClock()

	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(logger, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Warn("kafka publisher init failed", zap.Error(err))
		} else {
			defer kp.Close()
			publisher = kp
		}
	}

	rateLimit := service.ConvictionRateLimit{
		Window:    cfg.ConvictionRateWindow,
		PerUser:   cfg.ConvictionRateMax,
		PerSignal: cfg.ConvictionSignalMax,
	}
	var (
		limiter     service.ConvictionRateLimiter
		locker      gocron.Locker
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisConvictionRateLimiter(redisClient, rateLimit)
			locker = worker.NewRedisLocker(redisClient, cfg.MomentumInterval)
		}
		cancel()
	}
	switch {
	case !rateLimit.Enabled():
		logger.Info("conviction rate limit disabled")
	case limiter == nil:
		logger.Info("conviction rate limit is per process, redis unavailable")
		limiter = service.NewMemoryRateLimiter(rateLimit, clock)
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL, clock)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, store, clock)
	credSvc := service.NewCredibilityService(logger, store, clock)
	signalSvc := service.NewSignalService(logger, store, clock, publisher, cfg.MinSignalCredibility)
	convictionSvc := service.NewConvictionService(logger, store, clock, publisher, recorder, limiter)
	challengeSvc := service.NewChallengeService(logger, store, clock, publisher, recorder)
	momentumSvc := service.NewMomentumService(logger, store, clock, recorder, service.MomentumConfig{
		Window:     time.Duration(cfg.MomentumWindowHours * float64(time.Hour)),
		DecayHours: cfg.MomentumDecayHours,
		Scale:      cfg.MomentumScale,
	})

	if cfg.MomentumSchedulerEnabled {
		scheduler, err := worker.NewMomentumScheduler(logger, momentumSvc, cfg.MomentumInterval, locker, clock)
		if err != nil {
			logger.Fatal("momentum scheduler init", zap.Error(err))
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				logger.Warn("momentum scheduler shutdown", zap.Error(err))
			}
		}()
	}

	router := apihttp.NewRouter(logger, apihttp.RouterDeps{
		JWT:            jwtSvc,
		Users:          apihttp.NewUserHandler(logger, userSvc, jwtSvc, recorder),
		Credibility:    apihttp.NewCredibilityHandler(logger, credSvc, recorder),
		Signals:        apihttp.NewSignalHandler(logger, signalSvc, convictionSvc, recorder),
		Challenges:     apihttp.NewChallengeHandler(logger, challengeSvc, recorder),
		MetricsPath:    cfg.MetricsPath,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:         health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreDriver))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openStore elige el backend segun STORE_DRIVER. El memstore no persiste entre reinicios.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, apihttp.HealthCheck, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil, func() {}, nil
	}
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	health := func(ctx context.Context) error { return db.Ping(ctx, pool) }
	return repository.NewPgStore(pool), health, pool.Close, nil
}

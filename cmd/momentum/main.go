// Command momentum corre un barrido de momentum y termina. Pensado para cron externo
// cuando el scheduler embebido de la API esta deshabilitado.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"signal-net/internal/config"
	"signal-net/internal/db"
	"signal-net/internal/repository"
	"signal-net/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Fatalf("momentum sweep requires STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MomentumInterval)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	svc := service.NewMomentumService(logger, repository.NewPgStore(pool), clockwork.NewRealClock(), nil, service.MomentumConfig{
		Window:     time.Duration(cfg.MomentumWindowHours * float64(time.Hour)),
		DecayHours: cfg.MomentumDecayHours,
		Scale:      cfg.MomentumScale,
	})
	n, err := svc.RecomputeActive(ctx)
	if err != nil {
		logger.Error("momentum sweep finished with errors", zap.Int("updated", n), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

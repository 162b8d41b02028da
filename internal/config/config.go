package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort     string        `env:"HTTP_PORT" envDefault:"8080"`
	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTAccessTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"24h"`
	MetricsPath  string        `env:"METRICS_PATH" envDefault:"/metrics"`

	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"2"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"signalnet.events"`

	MomentumSchedulerEnabled bool          `env:"MOMENTUM_SCHEDULER_ENABLED" envDefault:"true"`
	MomentumInterval         time.Duration `env:"MOMENTUM_INTERVAL" envDefault:"5m"`
	MomentumWindowHours      float64       `env:"MOMENTUM_WINDOW_HOURS" envDefault:"24"`
	MomentumDecayHours       float64       `env:"MOMENTUM_DECAY_HOURS" envDefault:"12"`
	MomentumScale            float64       `env:"MOMENTUM_SCALE" envDefault:"10"`

	ConvictionRateWindow time.Duration `env:"CONVICTION_RATE_WINDOW" envDefault:"1m"`
	ConvictionRateMax    int           `env:"CONVICTION_RATE_MAX" envDefault:"30"`
	ConvictionSignalMax  int           `env:"CONVICTION_RATE_SIGNAL_MAX" envDefault:"5"`

	MinSignalCredibility float64 `env:"MIN_SIGNAL_CREDIBILITY" envDefault:"25"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if c.MomentumInterval <= 0 {
		return errors.New("MOMENTUM_INTERVAL must be positive")
	}
	if c.MomentumWindowHours <= 0 || c.MomentumDecayHours <= 0 || c.MomentumScale <= 0 {
		return errors.New("momentum window, decay and scale must be positive")
	}
	return nil
}

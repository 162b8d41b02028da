package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.MomentumWindowHours != 24 || cfg.MomentumDecayHours != 12 || cfg.MomentumScale != 10 {
		t.Fatalf("unexpected momentum defaults: %+v", cfg)
	}
	if !cfg.MomentumSchedulerEnabled || cfg.JWTAccessTTL.Hours() != 24 {
		t.Fatalf("unexpected scheduler/jwt defaults: %+v", cfg)
	}
	if cfg.MinSignalCredibility != 25 {
		t.Fatalf("expected min signal credibility 25, got %v", cfg.MinSignalCredibility)
	}
}

func TestLoadConfigRequiresDatabaseForPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadConfigParsesBrokers(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %+v", cfg.KafkaBrokers)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadConfigRejectsInvertedPoolBounds(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_MIN_CONNS", "8")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DB_MIN_CONNS exceeds DB_MAX_CONNS")
	}
}

func TestLoadConfigAllowsDisabledConvictionLimit(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CONVICTION_RATE_MAX", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ConvictionRateMax != 0 {
		t.Fatalf("expected rate max 0, got %d", cfg.ConvictionRateMax)
	}
	if cfg.ConvictionSignalMax != 5 {
		t.Fatalf("expected default per-signal max 5, got %d", cfg.ConvictionSignalMax)
	}
}

package app

import (
	"strings"
	"time"

	"github.com/yungbote/agencyledger-backend/internal/data/db"
	"github.com/yungbote/agencyledger-backend/internal/observability"
	"github.com/yungbote/agencyledger-backend/internal/pkg/envutil"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
	"github.com/yungbote/agencyledger-backend/internal/realtime/bus"
)

type Config struct {
	Port     string
	DBDriver string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	AggLockTimeout       time.Duration
	AggTxTimeout         time.Duration
	ReconcileConcurrency int

	RedisAddr    string
	RedisChannel string

	CORSOrigins []string
	MetricsAddr string

	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	lockMS := envutil.GetEnvAsInt("AGG_LOCK_TIMEOUT_MS", 2000, log)
	txMS := envutil.GetEnvAsInt("AGG_TX_TIMEOUT_MS", 10000, log)
	ttlSeconds := envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	return Config{
		Port:                 envutil.GetEnv("PORT", "8080", log),
		DBDriver:             strings.ToLower(strings.TrimSpace(envutil.GetEnv("DB_DRIVER", db.DriverPostgres, log))),
		JWTSecretKey:         envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:       time.Duration(ttlSeconds) * time.Second,
		AggLockTimeout:       time.Duration(lockMS) * time.Millisecond,
		AggTxTimeout:         time.Duration(txMS) * time.Millisecond,
		ReconcileConcurrency: envutil.GetEnvAsInt("RECONCILE_CONCURRENCY", 4, log),
		RedisAddr:            strings.TrimSpace(envutil.GetEnv("REDIS_ADDR", "", log)),
		RedisChannel:         envutil.GetEnv("REDIS_CHANNEL", bus.DefaultChannel, log),
		CORSOrigins:          splitList(envutil.GetEnv("CORS_ALLOWED_ORIGINS", "", log)),
		MetricsAddr:          strings.TrimSpace(envutil.GetEnv("METRICS_ADDR", "", log)),
		Otel:                 observability.OtelConfigFromEnv(),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

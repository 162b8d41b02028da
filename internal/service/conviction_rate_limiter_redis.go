package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Devuelve 0 si se admite, 1 si se agoto el tope del usuario y 2 si el de la pareja usuario/senal.
// El contador de la pareja solo avanza cuando el del usuario no rechazo.
const convictionWindowScript = `
local user = redis.call("INCR", KEYS[1])
if user == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if user > tonumber(ARGV[2]) then
  return 1
end
if tonumber(ARGV[3]) > 0 then
  local pair = redis.call("INCR", KEYS[2])
  if pair == 1 then
    redis.call("PEXPIRE", KEYS[2], ARGV[1])
  end
  if pair > tonumber(ARGV[3]) then
    return 2
  end
end
return 0
`

const (
	convictionAllowed       = 0
	convictionUserExhausted = 1
	convictionPairExhausted = 2

	redisLimiterTimeout = 500 * time.Millisecond
)

type scriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// redisConvictionRateLimiter usa ventana fija compartida entre replicas.
type redisConvictionRateLimiter struct {
	client scriptRunner
	limit  ConvictionRateLimit
}

// NewRedisConvictionRateLimiter devuelve nil sin cliente o con el limite desactivado.
// Si redis falla en una consulta, deja pasar.
func NewRedisConvictionRateLimiter(client *redis.Client, limit ConvictionRateLimit) ConvictionRateLimiter {
	if client == nil || !limit.Enabled() {
		return nil
	}
	return &redisConvictionRateLimiter{client: client, limit: limit}
}

// Las llaves comparten hash tag para que el script funcione en redis cluster.
func convictionLimitKeys(userID, signalID string) []string {
	return []string{
		fmt.Sprintf("conviction:rl:{%s}", userID),
		fmt.Sprintf("conviction:rl:{%s}:%s", userID, signalID),
	}
}

func (l *redisConvictionRateLimiter) Allow(ctx context.Context, userID, signalID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	if userID == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, redisLimiterTimeout)
	defer cancel()

	code, err := l.client.Eval(ctx, convictionWindowScript, convictionLimitKeys(userID, signalID),
		l.limit.window().Milliseconds(),
		l.limit.PerUser,
		l.limit.PerSignal,
	).Int()
	if err != nil {
		return true
	}
	return code == convictionAllowed
}

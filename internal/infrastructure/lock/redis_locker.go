package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ inventory.KeyLocker = (*RedisLocker)(nil)

// RedisLocker candado entre procesos sobre Redis (bsm/redislock).
// Los nombres llegan ordenados desde el Guard; se toman en ese orden y se liberan al revés.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    *logger.Logger
}

// NewRedisClient abre el cliente y verifica la conexión con PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisLocker construye el locker. ttl acota cuánto vive un candado huérfano;
// wait es el máximo que se reintenta obtener cada nombre.
func NewRedisLocker(rdb redis.UniversalClient, ttl, wait time.Duration, log *logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, wait: wait, log: log.Component("redislock")}
}

// Lock obtiene todos los nombres o ninguno. ErrNotObtained se reporta como ErrConflict.
func (l *RedisLocker) Lock(ctx context.Context, names []string) (func(), error) {
	held := make([]*redislock.Lock, 0, len(names))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.log.Warn().Err(err).Str("lock", held[i].Key()).Msg("no se pudo liberar candado redis")
			}
		}
	}

	opts := &redislock.Options{RetryStrategy: l.retryStrategy()}
	for _, name := range names {
		lk, err := l.client.Obtain(ctx, name, l.ttl, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: candado %s ocupado", domain.ErrConflict, name)
			}
			return nil, fmt.Errorf("obtain %s: %w", name, err)
		}
		held = append(held, lk)
	}
	return release, nil
}

func (l *RedisLocker) retryStrategy() redislock.RetryStrategy {
	const step = 20 * time.Millisecond
	if l.wait <= 0 {
		return redislock.NoRetry()
	}
	return redislock.LimitRetry(redislock.LinearBackoff(step), int(l.wait/step))
}

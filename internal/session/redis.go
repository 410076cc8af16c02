package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"prompt-enhancer/internal/seed"
)

const (
	redisKeyPrefix  = "prompt-enhancer:seed:"
	redisSeedTTL    = 30 * 24 * time.Hour
	redisMaxRetries = 5
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Rand     *rand.Rand
}

// RedisSeeds keeps seed continuity in Redis so several hosts share it.
type RedisSeeds struct {
	rdb *redis.Client
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRedisSeeds(ctx context.Context, opts RedisOptions) (*RedisSeeds, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	rng := opts.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	return &RedisSeeds{rdb: rdb, rng: rng}, nil
}

func (r *RedisSeeds) Close() error {
	return r.rdb.Close()
}

// Advance reads and writes the scope's seed inside a WATCH transaction and
// retries when another writer got there first.
func (r *RedisSeeds) Advance(ctx context.Context, scope string, requested int64, mode seed.Mode) (seed.Resolved, error) {
	if scope == "" {
		return seed.Resolved{}, seed.ErrNoScope
	}
	key := redisKeyPrefix + scope

	var out seed.Resolved
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		prev, err := decodeState(raw)
		if err != nil {
			return err
		}

		out = seed.Next(prev, requested, mode, r.random())

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encodeState(out), redisSeedTTL)
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return seed.Resolved{}, fmt.Errorf("advance seed %s: %w", scope, err)
	}
	return seed.Resolved{}, fmt.Errorf("advance seed %s: too much contention", scope)
}

// random forks a private generator; the shared one is not safe for
// concurrent use.
func (r *RedisSeeds) random() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewPCG(r.rng.Uint64(), r.rng.Uint64()))
}

func encodeState(res seed.Resolved) string {
	return strconv.FormatInt(res.Seed, 10) + "|" + res.Mode.String()
}

func decodeState(raw string) (seed.State, error) {
	if raw == "" {
		return seed.State{}, nil
	}
	num, mode, _ := strings.Cut(raw, "|")
	last, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return seed.State{}, fmt.Errorf("decode seed state %q: %w", raw, err)
	}
	return seed.State{Last: last, Mode: seed.ParseMode(mode), Set: true}, nil
}

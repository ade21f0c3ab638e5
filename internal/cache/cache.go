package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	localCacheSize = 1000
	defaultTTL     = 10 * time.Minute

	// fillWindow bounds how long a read may take before its result is no
	// longer cached.
	fillWindow = time.Minute
)

// ErrMiss is returned by Load when the key is not cached.
var ErrMiss = cache.ErrCacheMiss

type Config struct {
	Host string
	Pass string
	Port int
	TTL  time.Duration
}

type Redis struct {
	Client   *redis.Ring
	Balances *cache.Cache
	ttl      time.Duration

	mu      sync.Mutex
	evicted map[string]time.Time
}

func NewConnection(cfg Config) (*Redis, error) {
	log.Info("connecting to redis")

	r := redis.NewRing(&redis.RingOptions{
		Addrs: map[string]string{
			"server1": fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		},
		HeartbeatFrequency: 10 * time.Second,
		Password:           cfg.Pass,
		MaxRetries:         3,
		MaxRetryBackoff:    3 * time.Second,
		ReadTimeout:        1 * time.Second,
		WriteTimeout:       1 * time.Second,
		PoolSize:           10,
		MinIdleConns:       1,
	})

	log.Info("verifying redis connection")

	if err := r.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}

	log.Info("verified redis connection")

	b := cache.New(&cache.Options{
		Redis:      r,
		LocalCache: cache.NewTinyLFU(localCacheSize, time.Minute),
	})

	log.Info("created balances cache")

	return &Redis{
		Client:   r,
		Balances: b,
		ttl:      ttlOrDefault(cfg.TTL),
		evicted:  make(map[string]time.Time),
	}, nil
}

// NewLocal returns a process local cache, used when redis is not configured.
func NewLocal(ttl time.Duration) *Redis {
	return &Redis{
		Balances: cache.New(&cache.Options{
			LocalCache: cache.NewTinyLFU(localCacheSize, ttlOrDefault(ttl)),
		}),
		ttl:     ttlOrDefault(ttl),
		evicted: make(map[string]time.Time),
	}
}

// Load decodes the cached JSON stored under key into v.
func (r *Redis) Load(ctx context.Context, key string, v interface{}) error {
	var b []byte
	if err := r.Balances.Get(ctx, key, &b); err != nil {
		return err
	}

	return errors.Wrap(json.Unmarshal(b, v), "decode cached value")
}

// Store caches the JSON encoding of v under key.
func (r *Redis) Store(ctx context.Context, key string, v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.set(ctx, key, v)
}

// Fill caches v, read from storage at readAt, unless key was evicted since
// the read started or the read took longer than fillWindow. A skipped fill
// is not an error.
func (r *Redis) Fill(ctx context.Context, key string, v interface{}, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(readAt) >= fillWindow {
		return nil
	}
	if at, ok := r.evicted[key]; ok && !at.Before(readAt) {
		log.WithField("key", key).Debug("skipped cache fill of value read before eviction")
		return nil
	}

	return r.set(ctx, key, v)
}

func (r *Redis) set(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode cache value")
	}

	return r.Balances.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: b,
		TTL:   r.ttl,
	})
}

// Evict removes keys, a missing key is not an error.
func (r *Redis) Evict(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for k, at := range r.evicted {
		if now.Sub(at) > fillWindow {
			delete(r.evicted, k)
		}
	}

	for _, k := range keys {
		r.evicted[k] = now
		if err := r.Balances.Delete(ctx, k); err != nil && err != cache.ErrCacheMiss {
			return errors.Wrapf(err, "evict %s", k)
		}
	}
	return nil
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultTTL
	}
	return ttl
}

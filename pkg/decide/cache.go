package decide

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"sbarisk/pkg/logit"
)

// Cache stores serialized decisions keyed by feature vector, for callers
// that score the same application repeatedly.
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// MemoryCache is a process-local Cache, safe for concurrent use.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]string)}
}

func (m *MemoryCache) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryCache) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// RedisCache backs the decision cache with redis, for sharing across
// processes.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ctx:    context.Background(),
	}
}

func (r *RedisCache) Get(key string) (string, bool) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(key, value string) error {
	return r.client.Set(r.ctx, key, value, 0).Err()
}

// Engine binds a model and cutoff, with an optional decision cache.
type Engine struct {
	model  *logit.Model
	cutoff float64
	cache  Cache
}

// NewEngine wires the engine; cache may be nil to disable caching.
func NewEngine(m *logit.Model, cutoff float64, cache Cache) *Engine {
	return &Engine{model: m, cutoff: cutoff, cache: cache}
}

// Decide scores a feature vector, consulting the cache first. Cache
// write failures are ignored: the decision itself is already computed.
func (e *Engine) Decide(features []float64) (Decision, error) {
	key := cacheKey(features)
	if e.cache != nil {
		if raw, ok := e.cache.Get(key); ok {
			var d Decision
			if err := json.Unmarshal([]byte(raw), &d); err == nil {
				return d, nil
			}
		}
	}

	d, err := Decide(e.model, e.cutoff, features)
	if err != nil {
		return Decision{}, err
	}

	if e.cache != nil {
		if b, err := json.Marshal(d); err == nil {
			_ = e.cache.Set(key, string(b))
		}
	}
	return d, nil
}

func cacheKey(features []float64) string {
	var sb strings.Builder
	for i, v := range features {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}

package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPool struct{ stats redis.PoolStats }

func (f fixedPool) PoolStats() *redis.PoolStats { return &f.stats }

func TestPoolCollectorReportsStats(t *testing.T) {
	pool := fixedPool{stats: redis.PoolStats{Hits: 40, Misses: 3, Timeouts: 1, TotalConns: 5, IdleConns: 2, StaleConns: 4}}
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(newPoolCollector(pool)))

	expected := `
# HELP kycgate_redis_pool_hits_total Connections found free in the pool
# TYPE kycgate_redis_pool_hits_total counter
kycgate_redis_pool_hits_total 40
# HELP kycgate_redis_pool_idle_conns Idle connections currently in the pool
# TYPE kycgate_redis_pool_idle_conns gauge
kycgate_redis_pool_idle_conns 2
# HELP kycgate_redis_pool_timeouts_total Waits for a free connection that timed out
# TYPE kycgate_redis_pool_timeouts_total counter
kycgate_redis_pool_timeouts_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"kycgate_redis_pool_hits_total", "kycgate_redis_pool_idle_conns", "kycgate_redis_pool_timeouts_total"))
	assert.Equal(t, 6, testutil.CollectAndCount(newPoolCollector(pool)))
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig("redis://:pw@cache.internal:6380/2")
	cfg.MinIdleConns = 0

	opts, err := cfg.options()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Zero(t, opts.MinIdleConns, "zero keeps the go-redis default")
	assert.Equal(t, cfg.ReadTimeout, opts.ReadTimeout)

	_, err = Config{URL: "http://not-redis"}.options()
	assert.Error(t, err)
}

func TestNewWithoutURL(t *testing.T) {
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

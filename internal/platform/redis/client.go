// Package redis opens the go-redis client that backs idempotency replays.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Config holds connection settings. Zero pool values keep go-redis defaults.
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig suits single-key GET/SET replays on the request path.
func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func (c Config) options() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	setIf(&opts.PoolSize, c.PoolSize)
	setIf(&opts.MinIdleConns, c.MinIdleConns)
	setIf(&opts.DialTimeout, c.DialTimeout)
	setIf(&opts.ReadTimeout, c.ReadTimeout)
	setIf(&opts.WriteTimeout, c.WriteTimeout)
	return opts, nil
}

func setIf[T int | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

type Client struct {
	*redis.Client
}

// New dials and pings. It returns a nil client and no error when URL is
// empty, which selects the in-memory idempotency store.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("redis ping: %w", err), client.Close())
	}
	return &Client{Client: client}, nil
}

// Health is the readiness check for redis.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RegisterMetrics exports pool statistics, read at scrape time.
func (c *Client) RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(newPoolCollector(c.Client))
}

type poolCollector struct {
	pool interface{ PoolStats() *redis.PoolStats }

	hits, misses, timeouts, stale *prometheus.Desc
	total, idle                   *prometheus.Desc
}

func newPoolCollector(pool interface{ PoolStats() *redis.PoolStats }) *poolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("kycgate_redis_pool_"+name, help, nil, nil)
	}
	return &poolCollector{
		pool:     pool,
		hits:     desc("hits_total", "Connections found free in the pool"),
		misses:   desc("misses_total", "Connections that had to be dialled"),
		timeouts: desc("timeouts_total", "Waits for a free connection that timed out"),
		stale:    desc("stale_conns_total", "Stale connections removed from the pool"),
		total:    desc("total_conns", "Connections currently in the pool"),
		idle:     desc("idle_conns", "Idle connections currently in the pool"),
	}
}

func (p *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{p.hits, p.misses, p.timeouts, p.stale, p.total, p.idle} {
		ch <- d
	}
}

func (p *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := p.pool.PoolStats()
	ch <- prometheus.MustNewConstMetric(p.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(p.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(p.timeouts, prometheus.CounterValue, float64(s.Timeouts))
	ch <- prometheus.MustNewConstMetric(p.stale, prometheus.CounterValue, float64(s.StaleConns))
	ch <- prometheus.MustNewConstMetric(p.total, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(p.idle, prometheus.GaugeValue, float64(s.IdleConns))
}

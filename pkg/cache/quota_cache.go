package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/roleguard/roleguard/pkg/config"
	infraCache "github.com/roleguard/roleguard/pkg/infra/cache"
	"github.com/roleguard/roleguard/pkg/infra/metrics"
)

const (
	entryKeyPattern   = "lookup:cache:%s"
	dailyKeyPattern   = "lookup:quota:daily:%s"
	monthlyKeyPattern = "lookup:quota:monthly:%s"

	dailyKeyFormat   = "2006-01-02"
	monthlyKeyFormat = "2006-01"
)

// QuotaCache is the gate for all outbound lookup traffic: a TTL'd cache of
// past lookup results plus daily/monthly usage counters. Counters live in
// memory under one mutex so admission-check-then-increment is a single
// critical section; redis carries both entries and counters across restarts.
type QuotaCache struct {
	client *redis.Client
	local  *infraCache.TTLMap[*Entry]
	ttl    time.Duration
	limits config.QuotaConfig
	logger *logrus.Logger

	mu      sync.Mutex
	daily   map[string]int
	monthly map[string]int

	timeProvider func() time.Time
}

type QuotaCacheOpts struct {
	TimeProvider func() time.Time
	// Client overrides the redis client built from config; tests pass a
	// redismock client here.
	Client *redis.Client
}

func NewQuotaCache(
	redisCfg config.RedisConfig,
	quotaCfg config.QuotaConfig,
	logger *logrus.Logger,
	opts *QuotaCacheOpts,
) *QuotaCache {
	timeProvider := time.Now
	var client *redis.Client
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	if opts != nil && opts.Client != nil {
		client = opts.Client
	} else {
		options := &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		}
		if redisCfg.TLS {
			options.TLSConfig = &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			}
		}
		client = redis.NewClient(options)
	}

	return &QuotaCache{
		client:       client,
		local:        infraCache.NewTTLMap[*Entry](quotaCfg.CacheTTL, timeProvider),
		ttl:          quotaCfg.CacheTTL,
		limits:       quotaCfg,
		logger:       logger,
		daily:        make(map[string]int),
		monthly:      make(map[string]int),
		timeProvider: timeProvider,
	}
}

// Restore loads the current day's and month's counters from redis so budgets
// survive a restart. Missing keys count as zero.
func (c *QuotaCache) Restore(ctx context.Context) error {
	now := c.timeProvider()
	day := now.Format(dailyKeyFormat)
	month := now.Format(monthlyKeyFormat)

	dailyCount, err := c.client.Get(ctx, fmt.Sprintf(dailyKeyPattern, day)).Int()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to restore daily counter: %w", err)
	}
	monthlyCount, err := c.client.Get(ctx, fmt.Sprintf(monthlyKeyPattern, month)).Int()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to restore monthly counter: %w", err)
	}

	c.mu.Lock()
	c.daily[day] = dailyCount
	c.monthly[month] = monthlyCount
	c.mu.Unlock()

	return nil
}

// denyReserveLabel distinguishes reserve-tail denials in metrics; callers
// still see DenyDailyLimit as the reason.
const denyReserveLabel = "daily_reserve"

// TryAdmit decides whether one external lookup may be attempted now and, if
// so, consumes one unit of both budgets. The check and the increment happen
// under one lock; concurrent callers can never jointly exceed a limit.
// Counter persistence runs after the lock is released so a stalled redis
// never serializes admission.
func (c *QuotaCache) TryAdmit(ctx context.Context, priority Priority) (bool, string) {
	ok, reason, snap := c.admit(priority)
	if !ok {
		metrics.LookupAdmissions.WithLabelValues("denied", snap.metricLabel).Inc()
		return false, reason
	}

	c.persistCounters(ctx, snap)
	metrics.LookupAdmissions.WithLabelValues("admitted", "").Inc()
	return true, ""
}

// counterSnapshot carries the values taken inside the admission critical
// section out to persistence and metrics.
type counterSnapshot struct {
	day, month     string
	daily, monthly int
	metricLabel    string
}

func (c *QuotaCache) admit(priority Priority) (bool, string, counterSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.timeProvider()
	snap := counterSnapshot{
		day:   now.Format(dailyKeyFormat),
		month: now.Format(monthlyKeyFormat),
	}

	dailyCount := c.daily[snap.day]
	if dailyCount >= c.limits.DailyLimit {
		snap.metricLabel = DenyDailyLimit
		return false, DenyDailyLimit, snap
	}

	// A denial inside the reserved tail is still a daily-budget denial as
	// far as this priority is concerned; the reserve shows up only in the
	// metric label.
	remaining := c.limits.DailyLimit - dailyCount
	if priority == PriorityLow && remaining <= c.limits.LowReserve {
		snap.metricLabel = denyReserveLabel
		return false, DenyDailyLimit, snap
	}
	if priority == PriorityNormal && remaining <= c.limits.NormalReserve {
		snap.metricLabel = denyReserveLabel
		return false, DenyDailyLimit, snap
	}

	if c.monthly[snap.month] >= c.limits.MonthlyLimit {
		snap.metricLabel = DenyMonthlyLimit
		return false, DenyMonthlyLimit, snap
	}

	c.daily[snap.day]++
	c.monthly[snap.month]++
	snap.daily = c.daily[snap.day]
	snap.monthly = c.monthly[snap.month]
	return true, "", snap
}

// Get returns the cached result for a query. Expired entries are deleted and
// reported as misses; hits bump HitCount without extending the deadline.
func (c *QuotaCache) Get(ctx context.Context, query string) (string, bool) {
	key := QueryKey(query)

	entry, ok := c.local.Get(key)
	if !ok {
		entry = c.fetchRemote(ctx, key)
		if entry == nil {
			return "", false
		}
	}

	if c.timeProvider().After(entry.ExpiresAt) {
		c.local.Delete(key)
		if err := c.client.Del(ctx, fmt.Sprintf(entryKeyPattern, key)).Err(); err != nil {
			c.logger.WithError(err).Debug("failed to delete stale lookup entry")
		}
		return "", false
	}

	// The shared entry's HitCount may be bumped by concurrent Gets on the
	// same key; marshal a private copy so persistEntry never reads a field
	// mid-write.
	snapshot := Entry{
		QueryHash: entry.QueryHash,
		RawQuery:  entry.RawQuery,
		Result:    entry.Result,
		CreatedAt: entry.CreatedAt,
		ExpiresAt: entry.ExpiresAt,
		HitCount:  atomic.AddInt64(&entry.HitCount, 1),
	}
	c.persistEntry(ctx, &snapshot)

	return entry.Result, true
}

// Put stores a lookup result under the query's normalized key.
func (c *QuotaCache) Put(ctx context.Context, query, result string) {
	now := c.timeProvider()
	entry := &Entry{
		QueryHash: QueryKey(query),
		RawQuery:  query,
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
		HitCount:  0,
	}
	// An overwrite is a new creation: drop the old row first so the local
	// mirror's deadline matches the fresh ExpiresAt.
	c.local.Delete(entry.QueryHash)
	c.local.Set(entry.QueryHash, entry)
	c.persistEntry(ctx, entry)
}

func (c *QuotaCache) fetchRemote(ctx context.Context, key string) *Entry {
	raw, err := c.client.Get(ctx, fmt.Sprintf(entryKeyPattern, key)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("lookup cache read failed")
		}
		return nil
	}
	entry := new(Entry)
	if err := json.Unmarshal([]byte(raw), entry); err != nil {
		c.logger.WithError(err).Warn("corrupt lookup cache entry, dropping")
		if delErr := c.client.Del(ctx, fmt.Sprintf(entryKeyPattern, key)).Err(); delErr != nil {
			c.logger.WithError(delErr).Debug("failed to delete corrupt lookup entry")
		}
		return nil
	}
	c.local.Set(key, entry)
	return entry
}

// persistEntry writes through to redis with the entry's remaining TTL.
// Failures degrade to local-only caching.
func (c *QuotaCache) persistEntry(ctx context.Context, entry *Entry) {
	remaining := entry.ExpiresAt.Sub(c.timeProvider())
	if remaining <= 0 {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).Error("failed to marshal lookup cache entry")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, fmt.Sprintf(entryKeyPattern, entry.QueryHash), string(raw), remaining).Err(); err != nil {
		c.logger.WithError(err).Debug("lookup cache write failed")
	}
}

func (c *QuotaCache) persistCounters(ctx context.Context, snap counterSnapshot) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(dailyKeyPattern, snap.day), snap.daily, 48*time.Hour)
	pipe.Set(ctx, fmt.Sprintf(monthlyKeyPattern, snap.month), snap.monthly, 40*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WithError(err).Debug("quota counter persistence failed")
	}
}

// Usage reports the consumed units for the current day and month.
func (c *QuotaCache) Usage() (daily int, monthly int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.timeProvider()
	return c.daily[now.Format(dailyKeyFormat)], c.monthly[now.Format(monthlyKeyFormat)]
}

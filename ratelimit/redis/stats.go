package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* StatsStore records limiter decisions in Redis hashes
 * Only aggregate counters are written, never caller addresses
 * Key naming: {prefix}:{limiter}:total and {prefix}:{limiter}:minute:{yyyymmddhhmm}
 * Decisions observed on the request path are queued and written by Run
 */

const (
	defaultPrefix = "ratelimit:stats"
	defaultTTL    = 24 * time.Hour
	defaultBuffer = 1024
	recordTimeout = 500 * time.Millisecond
)

type decision struct {
	limiter string
	allowed bool
}

type StatsStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	buffer int
	queue  chan decision
	now    func() time.Time
	logger zerolog.Logger
}

// StatsOption configures a StatsStore
type StatsOption func(*StatsStore)

// WithPrefix replaces the key prefix
func WithPrefix(prefix string) StatsOption {
	return func(s *StatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithTTL sets the expiry of per-minute buckets
func WithTTL(d time.Duration) StatsOption {
	return func(s *StatsStore) { s.ttl = d }
}

// WithBuffer sets how many decisions may wait for Run before new ones are dropped
func WithBuffer(n int) StatsOption {
	return func(s *StatsStore) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithLogger sets the logger used when recording fails
func WithLogger(l zerolog.Logger) StatsOption {
	return func(s *StatsStore) { s.logger = l }
}

// Connect opens a client and verifies the connection
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return client, nil
}

// NewStatsStore creates a stats store on an existing client
func NewStatsStore(client *redis.Client, opts ...StatsOption) *StatsStore {
	s := &StatsStore{
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		buffer: defaultBuffer,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = make(chan decision, s.buffer)
	return s
}

// Record increments the allowed or denied counter for the limiter
func (s *StatsStore) Record(ctx context.Context, limiter string, allowed bool) error {
	if s == nil || s.client == nil {
		return nil
	}

	field := "denied"
	if allowed {
		field = "allowed"
	}

	minuteKey := s.minuteKey(limiter, s.now())

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(limiter), field, 1)
	pipe.HIncrBy(ctx, minuteKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, minuteKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording decision: %w", err)
	}
	return nil
}

// ObserveDecision implements ratelimit.Observer. It only enqueues; a full queue drops the decision.
func (s *StatsStore) ObserveDecision(_ context.Context, limiter string, allowed bool) {
	if s == nil {
		return
	}
	select {
	case s.queue <- decision{limiter: limiter, allowed: allowed}:
	default:
		s.logger.Warn().Str("limiter", limiter).Msg("rate limit stats queue full, decision dropped")
	}
}

// Run writes queued decisions until ctx is done, then flushes what is already queued
func (s *StatsStore) Run(ctx context.Context) {
	for {
		select {
		case d := <-s.queue:
			s.write(ctx, d)
		case <-ctx.Done():
			for {
				select {
				case d := <-s.queue:
					s.write(context.WithoutCancel(ctx), d)
				default:
					return
				}
			}
		}
	}
}

// Pending returns the number of decisions waiting to be written
func (s *StatsStore) Pending() int {
	return len(s.queue)
}

func (s *StatsStore) write(ctx context.Context, d decision) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := s.Record(ctx, d.limiter, d.allowed); err != nil {
		s.logger.Warn().Err(err).Str("limiter", d.limiter).Msg("rate limit stats not recorded")
	}
}

// Totals returns the cumulative allowed and denied counts for the limiter
func (s *StatsStore) Totals(ctx context.Context, limiter string) (allowed, denied int64, err error) {
	data, err := s.client.HGetAll(ctx, s.totalKey(limiter)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("reading totals: %w", err)
	}
	return parseInt64(data["allowed"]), parseInt64(data["denied"]), nil
}

func (s *StatsStore) totalKey(limiter string) string {
	return fmt.Sprintf("%s:%s:total", s.prefix, limiter)
}

func (s *StatsStore) minuteKey(limiter string, at time.Time) string {
	return fmt.Sprintf("%s:%s:minute:%s", s.prefix, limiter, at.UTC().Format("200601021504"))
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

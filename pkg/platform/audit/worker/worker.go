// Package worker relays audit outbox rows to Kafka.
//
// Only one relay instance publishes at a time: each tick takes a short Redis lock
// and skips the tick when another instance holds it. Rows are marked published
// only after the broker acknowledged them, so delivery is at-least-once.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"

	"caseflow/internal/platform/kafka"
	"caseflow/pkg/platform/audit/store/postgres"
)

const lockKey = "caseflow:audit:outbox-relay"

type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

type Producer interface {
	PublishSync(ctx context.Context, msgs ...kafka.Message) error
}

// Locker is satisfied by *redislock.Client.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

type Relay struct {
	source    OutboxSource
	producer  Producer
	locker    Locker
	topic     string
	batchSize int
	interval  time.Duration
	lockTTL   time.Duration
	logger    *slog.Logger
}

type Option func(*Relay)

func WithLocker(l Locker) Option {
	return func(r *Relay) {
		r.locker = l
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(source OutboxSource, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		producer:  producer,
		topic:     topic,
		batchSize: 100,
		interval:  2 * time.Second,
		lockTTL:   30 * time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.WarnContext(ctx, "outbox relay tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessOnce publishes one batch and returns how many rows were relayed.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	if r.locker != nil {
		lock, err := r.locker.Obtain(ctx, lockKey, r.lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		defer func() {
			if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
				r.logger.WarnContext(ctx, "failed to release outbox relay lock", "error", releaseErr)
			}
		}()
	}

	entries, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, len(entries))
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		msgs[i] = kafka.Message{
			Topic: r.topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_type":     e.EventType,
				"aggregate_type": e.AggregateType,
			},
		}
		ids[i] = e.ID
	}
	if err := r.producer.PublishSync(ctx, msgs...); err != nil {
		return 0, err
	}
	if err := r.source.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "outbox batch relayed", "count", len(entries))
	return len(entries), nil
}

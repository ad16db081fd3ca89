package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"caseflow/pkg/platform/circuit"
	"caseflow/pkg/requestcontext"
)

// ErrDropped is returned when the breaker is open and the event was not persisted.
var ErrDropped = errors.New("audit event dropped: circuit open")

// Publisher emits audit events with best-effort semantics. Callers decide
// whether a returned error matters; the transfer workflow logs and moves on.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	breaker *circuit.Breaker
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		logger:  slog.Default(),
		breaker: circuit.New("audit", circuit.WithFailureThreshold(5), circuit.WithCooldown(time.Minute)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills defaults, then persists unless the breaker is open.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	event.Category = AuditEvent(event.Action).Category()

	if !p.breaker.Allow() {
		p.metrics.IncCircuitBreakerDropped()
		return ErrDropped
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.metrics.SetCircuitBreakerState(true)
			p.logger.WarnContext(ctx, "audit circuit breaker opened", "error", err)
		}
		return err
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.metrics.SetCircuitBreakerState(false)
		p.logger.InfoContext(ctx, "audit circuit breaker closed")
	}
	p.metrics.IncEmitted(event.Category)
	return nil
}

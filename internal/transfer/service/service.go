// Package service is the transfer workflow engine: the state machine, access
// rules and the transactional side effects on learners and the timeline.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/transfer/metrics"
	"caseflow/internal/transfer/models"
	"caseflow/internal/transfer/ports"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/requestcontext"
)

// Store persists transfers. Implementations return sentinel errors and reject
// a second active transfer for a learner with sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, t *models.Transfer) error
	FindByID(ctx context.Context, transferID id.TransferID) (*models.Transfer, error)
	FindByIDIncludingDeleted(ctx context.Context, transferID id.TransferID) (*models.Transfer, error)
	Save(ctx context.Context, t *models.Transfer) error
	SoftDelete(ctx context.Context, transferID id.TransferID, at time.Time) error
	HasActiveForLearner(ctx context.Context, learnerID id.LearnerID) (bool, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Transfer, int, error)
	Statistics(ctx context.Context, scope *id.InstitutionID) (models.Statistics, error)
}

// TimelineStore is append-only.
type TimelineStore interface {
	Append(ctx context.Context, e *models.TimelineEvent) error
	ListByTransfer(ctx context.Context, transferID id.TransferID) ([]*models.TimelineEvent, error)
}

// TxRunner runs fn as one unit of work. Stores called with the ctx passed to
// fn take part in it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NumberGenerator produces transfer numbers for the year of now.
type NumberGenerator func(now time.Time) (string, error)

const entityType = "transfer"

type Service struct {
	transfers    Store
	timeline     TimelineStore
	tx           TxRunner
	learners     ports.LearnerDirectory
	institutions ports.InstitutionDirectory
	audit        ports.AuditSink
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	numbers      NumberGenerator
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditSink(sink ports.AuditSink) Option {
	return func(s *Service) {
		s.audit = sink
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithNumberGenerator(gen NumberGenerator) Option {
	return func(s *Service) {
		s.numbers = gen
	}
}

func New(
	transfers Store,
	timeline TimelineStore,
	tx TxRunner,
	learners ports.LearnerDirectory,
	institutions ports.InstitutionDirectory,
	opts ...Option,
) *Service {
	s := &Service{
		transfers:    transfers,
		timeline:     timeline,
		tx:           tx,
		learners:     learners,
		institutions: institutions,
		logger:       slog.Default(),
		tracer:       otel.Tracer("caseflow/internal/transfer"),
		numbers:      GenerateTransferNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe opens a span for one engine call and returns the function that
// closes it and records the outcome.
func (s *Service) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "transfer."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		s.metrics.ObserveOperation(op, outcome, time.Since(start))
	}
}

func transferAttr(transferID id.TransferID) attribute.KeyValue {
	return attribute.String("transfer.id", transferID.String())
}

// recordAudit runs after commit. It logs the event and hands it to the audit
// sink, which never fails the caller.
func (s *Service) recordAudit(ctx context.Context, caller id.Identity, action audit.AuditEvent, t *models.Transfer, extra map[string]any) {
	metadata := map[string]any{
		"transfer_number":     t.TransferNumber,
		"learner_id":          t.LearnerID.String(),
		"from_institution_id": t.FromInstitutionID.String(),
		"to_institution_id":   t.ToInstitutionID.String(),
		"status":              string(t.Status),
	}
	for k, v := range extra {
		metadata[k] = v
	}
	args := []any{
		"event", string(action),
		"log_type", "audit",
		"transfer_id", t.ID.String(),
		"user_id", caller.UserID.String(),
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, string(action), args...)
	if s.audit != nil {
		s.audit.RecordEvent(ctx, string(action), entityType, t.ID.String(), caller.UserID, metadata)
	}
}

// internal wraps uncoded errors so every engine error carries a code.
func internal(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

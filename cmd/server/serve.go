package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	instservice "caseflow/internal/institution/service"
	inststore "caseflow/internal/institution/store"
	jwttoken "caseflow/internal/jwt_token"
	learnerservice "caseflow/internal/learner/service"
	learnerstore "caseflow/internal/learner/store"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/database"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/kafka"
	"caseflow/internal/platform/logger"
	"caseflow/internal/platform/metrics"
	"caseflow/internal/platform/redis"
	"caseflow/internal/transfer/adapters"
	transferhandler "caseflow/internal/transfer/handler"
	transfermetrics "caseflow/internal/transfer/metrics"
	transferservice "caseflow/internal/transfer/service"
	timelinestore "caseflow/internal/transfer/store/timeline"
	transferstore "caseflow/internal/transfer/store/transfer"
	httptransport "caseflow/internal/transport/http"
	"caseflow/pkg/platform/audit"
	auditmemory "caseflow/pkg/platform/audit/store/memory"
	auditpostgres "caseflow/pkg/platform/audit/store/postgres"
	"caseflow/pkg/platform/audit/worker"
	"caseflow/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var (
		addr     string
		seedDemo bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("seed-demo") {
				cfg.SeedDemoData = seedDemo
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides CASEFLOW_ADDR)")
	cmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "seed demo institutions and learners into in-memory stores")
	return cmd
}

// infra holds the optional external dependencies. Each field is nil when the
// matching configuration is absent.
type infra struct {
	db       *sql.DB
	redis    *redis.Client
	producer *kafka.Producer
}

func (in *infra) close() {
	if in.producer != nil {
		in.producer.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

func (in *infra) healthChecks() map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if in.db != nil {
		checks["postgres"] = in.db.PingContext
	}
	if in.redis != nil {
		checks["redis"] = in.redis.Health
	}
	if in.producer != nil {
		checks["kafka"] = in.producer.Health
	}
	return checks
}

func connect(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}
	var err error
	if cfg.UsesPostgres() {
		if in.db, err = database.Open(ctx, cfg.DatabaseURL, log); err != nil {
			return nil, err
		}
		if err = database.Migrate(in.db, log); err != nil {
			in.close()
			return nil, err
		}
	}
	if in.redis, err = redis.New(ctx, cfg.Redis, log); err != nil {
		in.close()
		return nil, err
	}
	in.producer, err = kafka.NewProducer(kafka.Config{
		Brokers:           cfg.Kafka.Brokers,
		ClientID:          cfg.Kafka.ClientID,
		Partitions:        3,
		ReplicationFactor: 1,
	}, log)
	if err != nil {
		in.close()
		return nil, err
	}
	if in.producer != nil {
		if err = in.producer.EnsureTopics(ctx, cfg.Kafka.AuditTopic); err != nil {
			in.close()
			return nil, err
		}
	}
	return in, nil
}

// stores picks the Postgres or in-memory implementation of every store plus
// the matching transaction runner.
type stores struct {
	institutions instservice.Store
	learners     learnerservice.Store
	transfers    transferservice.Store
	timeline     transferservice.TimelineStore
	audit        audit.Store
	outbox       *auditpostgres.Store
	tx           transferservice.TxRunner
}

func buildStores(cfg config.Server, db *sql.DB) stores {
	if db != nil {
		outbox := auditpostgres.New(db)
		return stores{
			institutions: inststore.NewPostgres(db),
			learners:     learnerstore.NewPostgres(db),
			transfers:    transferstore.NewPostgres(db),
			timeline:     timelinestore.NewPostgres(db),
			audit:        outbox,
			outbox:       outbox,
			tx:           newTransferPostgresTx(db, cfg.TxTimeout),
		}
	}
	learners := learnerstore.NewInMemory()
	transfers := transferstore.NewInMemory()
	timeline := timelinestore.NewInMemory()
	return stores{
		institutions: inststore.NewInMemory(),
		learners:     learners,
		transfers:    transfers,
		timeline:     timeline,
		audit:        auditmemory.NewInMemoryStore(),
		tx:           transferservice.NewInMemoryTx(transfers, timeline, learners),
	}
}

func serve(ctx context.Context, cfg config.Server) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	in, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close()

	st := buildStores(cfg, in.db)

	instOpts := []instservice.Option{instservice.WithLogger(log)}
	if in.redis != nil {
		instOpts = append(instOpts, instservice.WithReadCache(
			inststore.NewCached(st.institutions, in.redis.Client, cfg.InstitutionCacheTTL, log),
		))
	}
	institutions := instservice.New(st.institutions, instOpts...)
	learners := learnerservice.New(st.learners, learnerservice.WithLogger(log))

	if cfg.SeedDemoData && in.db == nil {
		if err := seedDemoData(ctx, institutions, learners, log); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	publisher := audit.NewPublisher(st.audit,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics()),
		audit.WithBreaker(circuit.New("audit-store")),
	)

	transfers := transferservice.New(
		st.transfers,
		st.timeline,
		st.tx,
		adapters.NewLearnerAdapter(learners),
		adapters.NewInstitutionAdapter(institutions),
		transferservice.WithLogger(log),
		transferservice.WithAuditSink(adapters.NewAuditAdapter(publisher, log)),
		transferservice.WithMetrics(transfermetrics.New()),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, tokenIssuer, tokenAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      metrics.New(),
		Gatherer:     prometheus.DefaultGatherer,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		Transfers:    transferhandler.New(transfers, log),
		HealthChecks: in.healthChecks(),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting caseflow", "addr", cfg.Addr, "version", config.Version, "postgres", in.db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if st.outbox != nil && in.producer != nil {
		relayOpts := []worker.Option{
			worker.WithBatchSize(cfg.OutboxBatchSize),
			worker.WithInterval(cfg.OutboxPollInterval),
			worker.WithLogger(log),
		}
		if in.redis != nil {
			relayOpts = append(relayOpts, worker.WithLocker(in.redis.Locker()))
		}
		relay := worker.NewRelay(st.outbox, in.producer, cfg.Kafka.AuditTopic, relayOpts...)
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	return g.Wait()
}

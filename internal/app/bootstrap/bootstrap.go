package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	electionservice "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service"
	electionpostgres "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/adapters/postgres"
	electionworkers "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/application/workers"
	electionports "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/ports"
	tallyservice "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service"
	tallypostgres "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/adapters/postgres"
	votingengine "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine"
	votingpostgres "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/adapters/postgres"
	votingworkers "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/workers"
	votingports "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
	"github.com/amiparadis250/kpdu-sub001/internal/platform/config"
	"github.com/amiparadis250/kpdu-sub001/internal/platform/db"
	"github.com/amiparadis250/kpdu-sub001/internal/platform/httpserver"
	"github.com/amiparadis250/kpdu-sub001/internal/platform/messaging"
	"github.com/amiparadis250/kpdu-sub001/internal/shared/events"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	electionRelay   electionworkers.OutboxRelay
	votingRelay     votingworkers.OutboxRelay
	stateConsumer   votingworkers.ElectionStateConsumer
	verifier        votingworkers.VoteVerifier
	verifierEnabled bool
	pollInterval    time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	electionModule := electionservice.NewModule(electionservice.Dependencies{
		Elections: electionRepo,
		Votes:     electionRepo,
		Admins:    electionRepo,
		Outbox:    electionRepo,
		OutboxLog: electionRepo,
		Clock:     electionpostgres.SystemClock{},
		IDGen:     electionpostgres.UUIDGenerator{},
		BatchSize: 100,
		Logger:    logger,
	})

	votingRepo := votingpostgres.NewRepository(pg.DB, logger)
	votingModule := votingengine.NewModule(votingengine.Dependencies{
		Votes:           votingRepo,
		Directory:       votingRepo,
		DirectoryWriter: votingRepo,
		Outbox:          votingRepo,
		OutboxLog:       votingRepo,
		Dedup:           votingRepo,
		Clock:           votingpostgres.SystemClock{},
		IDGen:           votingpostgres.UUIDGenerator{},
		BatchSize:       100,
		Logger:          logger,
	})

	tallyRepo := tallypostgres.NewRepository(pg.DB, logger)
	tallyModule := tallyservice.NewModule(tallyservice.Dependencies{
		Votes:     tallyRepo,
		Directory: tallyRepo,
		Overrides: tallyRepo,
		Clock:     tallypostgres.SystemClock{},
		Logger:    logger,
	})

	server := httpserver.New(electionModule, votingModule, tallyModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	votingRepo := votingpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		electionRelay: electionworkers.OutboxRelay{
			Outbox:    electionRepo,
			Publisher: electionPublisher{bus: kafka},
			Clock:     electionpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		votingRelay: votingworkers.OutboxRelay{
			Outbox:    votingRepo,
			Publisher: votingPublisher{bus: kafka},
			Clock:     votingpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		stateConsumer: votingworkers.ElectionStateConsumer{
			Subscriber:    votingSubscriber{bus: kafka},
			Dedup:         votingRepo,
			Directory:     votingRepo,
			Clock:         votingpostgres.SystemClock{},
			ConsumerGroup: "voting-engine-election-cg",
			DedupTTL:      7 * 24 * time.Hour,
			Disabled:      !cfg.EnableElectionConsumer,
			Logger:        logger,
		},
		verifier: votingworkers.VoteVerifier{
			Votes:     votingRepo,
			Outbox:    votingRepo,
			Clock:     votingpostgres.SystemClock{},
			IDGen:     votingpostgres.UUIDGenerator{},
			BatchSize: 100,
			Logger:    logger,
		},
		verifierEnabled: cfg.EnableVoteVerifier,
		pollInterval:    2 * time.Second,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.stateConsumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.electionRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.votingRelay.RunOnce(ctx); err != nil {
			return err
		}
		if w.verifierEnabled {
			if err := w.verifier.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

// The bus carries the shared envelope; each service speaks its own port type.
// These adapters convert at the boundary so the contexts stay decoupled.

type electionPublisher struct {
	bus *messaging.Kafka
}

func (p electionPublisher) Publish(ctx context.Context, topic string, event electionports.EventEnvelope) error {
	return p.bus.Publish(ctx, topic, toSharedEnvelope(
		event.EventID, event.EventType, event.SourceService, event.TraceID,
		event.PartitionKeyPath, event.PartitionKey, event.SchemaVersion,
		event.OccurredAt, event.Data,
	))
}

type votingPublisher struct {
	bus *messaging.Kafka
}

func (p votingPublisher) Publish(ctx context.Context, topic string, event votingports.EventEnvelope) error {
	return p.bus.Publish(ctx, topic, toSharedEnvelope(
		event.EventID, event.EventType, event.SourceService, event.TraceID,
		event.PartitionKeyPath, event.PartitionKey, event.SchemaVersion,
		event.OccurredAt, event.Data,
	))
}

type votingSubscriber struct {
	bus *messaging.Kafka
}

func (s votingSubscriber) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler votingports.EventHandler,
) error {
	return s.bus.Subscribe(ctx, topic, consumerGroup, func(ctx context.Context, event events.Envelope) error {
		return handler(ctx, votingports.EventEnvelope{
			EventID:          event.EventID,
			EventType:        event.EventType,
			OccurredAt:       event.OccurredAt,
			SourceService:    event.SourceService,
			TraceID:          event.TraceID,
			SchemaVersion:    event.SchemaVersion,
			PartitionKeyPath: event.PartitionKeyPath,
			PartitionKey:     event.PartitionKey,
			Data:             event.Data,
		})
	})
}

func toSharedEnvelope(
	eventID string,
	eventType string,
	sourceService string,
	traceID string,
	partitionKeyPath string,
	partitionKey string,
	schemaVersion int,
	occurredAt time.Time,
	data []byte,
) events.Envelope {
	return events.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt,
		SourceService:    sourceService,
		TraceID:          traceID,
		SchemaVersion:    schemaVersion,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             data,
	}
}

package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
)

const (
	electionCreatedTopic       = "election.created"
	electionStatusChangedTopic = "election.status_changed"
	defaultElectionCG          = "voting-engine-election-cg"
)

// ElectionStateConsumer keeps the local election projection in sync with
// lifecycle events so casting never calls back into the lifecycle manager.
type ElectionStateConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Directory     ports.ElectionDirectoryWriter
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

// Start subscribes the voting engine to election lifecycle topics. The
// consumer group can be overridden for environment-specific deployment.
func (c ElectionStateConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("election state consumer disabled by feature flag",
			"event", "voting_election_consumer_disabled",
			"module", "election-operations/voting-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultElectionCG
	}
	for _, topic := range []string{electionCreatedTopic, electionStatusChangedTopic} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handleElectionEvent); err != nil {
			logger.Error("election consumer subscribe failed",
				"event", "voting_election_consumer_subscribe_failed",
				"module", "election-operations/voting-engine",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("election consumer subscriptions active",
		"event", "voting_election_consumer_started",
		"module", "election-operations/voting-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c ElectionStateConsumer) handleElectionEvent(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if alreadyProcessed, err := c.reserveEvent(ctx, event); err != nil {
		return err
	} else if alreadyProcessed {
		logger.Debug("election event replay skipped",
			"event", "voting_election_event_replayed",
			"module", "election-operations/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		ElectionID string `json:"election_id"`
		Status     string `json:"status"`
		StartAt    string `json:"start_at"`
		EndAt      string `json:"end_at"`
		Positions  []struct {
			PositionID   string   `json:"position_id"`
			CandidateIDs []string `json:"candidate_ids"`
		} `json:"positions"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("election event payload decode failed",
			"event", "voting_election_event_decode_failed",
			"module", "election-operations/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	startAt, err := time.Parse(time.RFC3339, payload.StartAt)
	if err != nil {
		return err
	}
	endAt, err := time.Parse(time.RFC3339, payload.EndAt)
	if err != nil {
		return err
	}

	projection := entities.ElectionProjection{
		ElectionID: strings.TrimSpace(payload.ElectionID),
		Status:     strings.TrimSpace(payload.Status),
		StartAt:    startAt.UTC(),
		EndAt:      endAt.UTC(),
		UpdatedAt:  c.now(),
	}
	if err := c.Directory.UpsertElectionProjection(ctx, projection); err != nil {
		logger.Error("election projection upsert failed",
			"event", "voting_election_projection_upsert_failed",
			"module", "election-operations/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"election_id", projection.ElectionID,
			"error", err.Error(),
		)
		return err
	}
	// The ballot shape rides on the same event; without it the engine would
	// reject every cast with an unknown position.
	for _, position := range payload.Positions {
		err := c.Directory.UpsertPositionProjection(ctx, entities.PositionProjection{
			PositionID:   strings.TrimSpace(position.PositionID),
			ElectionID:   projection.ElectionID,
			CandidateIDs: position.CandidateIDs,
		})
		if err != nil {
			logger.Error("position projection upsert failed",
				"event", "voting_position_projection_upsert_failed",
				"module", "election-operations/voting-engine",
				"layer", "worker",
				"event_id", event.EventID,
				"election_id", projection.ElectionID,
				"position_id", strings.TrimSpace(position.PositionID),
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("election event consumed",
		"event", "voting_election_event_consumed",
		"module", "election-operations/voting-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"election_id", projection.ElectionID,
		"status", projection.Status,
		"position_count", len(payload.Positions),
	)
	return nil
}

func (c ElectionStateConsumer) reserveEvent(ctx context.Context, event ports.EventEnvelope) (bool, error) {
	// ReserveEvent is used as dedupe gate for at-least-once delivery semantics.
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("election event dedupe failed",
			"event", "voting_election_event_dedupe_failed",
			"module", "election-operations/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return false, err
	}
	return alreadyProcessed, nil
}

func (c ElectionStateConsumer) now() time.Time {
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	return now
}

func (c ElectionStateConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

package unit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	votingmemory "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/adapters/memory"
	votingworkers "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/workers"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now.UTC()
}

type votingStubSubscriber struct {
	handlers map[string]ports.EventHandler
}

func (s *votingStubSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler ports.EventHandler,
) error {
	if s.handlers == nil {
		s.handlers = map[string]ports.EventHandler{}
	}
	s.handlers[topic] = handler
	return nil
}

type capturingPublisher struct {
	topics []string
	events []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestElectionStateConsumerUpsertsProjectionAndDedupes(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	store := votingmemory.NewStore(nil)
	store.SetNow(func() time.Time { return now })
	sub := &votingStubSubscriber{}
	consumer := votingworkers.ElectionStateConsumer{
		Subscriber: sub,
		Dedup:      store,
		Directory:  store,
		Clock:      fixedClock{now: now},
	}

	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start election state consumer failed: %v", err)
	}
	for _, topic := range []string{"election.created", "election.status_changed"} {
		if sub.handlers[topic] == nil {
			t.Fatalf("expected %s handler registration", topic)
		}
	}

	payload, _ := json.Marshal(map[string]any{
		"election_id": "election-7",
		"status":      "active",
		"start_at":    now.Add(-time.Hour).Format(time.RFC3339),
		"end_at":      now.Add(time.Hour).Format(time.RFC3339),
		"positions": []map[string]any{
			{"position_id": "position-7", "candidate_ids": []string{"candidate-1", "candidate-2"}},
		},
	})
	handler := sub.handlers["election.status_changed"]
	if err := handler(context.Background(), ports.EventEnvelope{
		EventID:   "event-election-7-activated",
		EventType: "election.status_changed",
		Data:      payload,
	}); err != nil {
		t.Fatalf("status_changed handler failed: %v", err)
	}

	projection, err := store.GetElectionProjection(context.Background(), "election-7")
	if err != nil {
		t.Fatalf("load projection failed: %v", err)
	}
	if projection.Status != "active" {
		t.Fatalf("expected active projection, got %s", projection.Status)
	}
	position, err := store.GetPositionProjection(context.Background(), "position-7")
	if err != nil {
		t.Fatalf("load position projection failed: %v", err)
	}
	if position.ElectionID != "election-7" || len(position.CandidateIDs) != 2 {
		t.Fatalf("unexpected position projection %+v", position)
	}

	// Replaying the same event ID with a different payload must be skipped by
	// the dedupe gate.
	replay, _ := json.Marshal(map[string]any{
		"election_id": "election-7",
		"status":      "cancelled",
		"start_at":    now.Add(-time.Hour).Format(time.RFC3339),
		"end_at":      now.Add(time.Hour).Format(time.RFC3339),
	})
	if err := handler(context.Background(), ports.EventEnvelope{
		EventID:   "event-election-7-activated",
		EventType: "election.status_changed",
		Data:      replay,
	}); err != nil {
		t.Fatalf("replayed handler failed: %v", err)
	}
	projection, err = store.GetElectionProjection(context.Background(), "election-7")
	if err != nil {
		t.Fatalf("reload projection failed: %v", err)
	}
	if projection.Status != "active" {
		t.Fatalf("expected replay to be skipped, projection now %s", projection.Status)
	}
}

func TestElectionStateConsumerDisabledSkipsSubscription(t *testing.T) {
	sub := &votingStubSubscriber{}
	consumer := votingworkers.ElectionStateConsumer{
		Subscriber: sub,
		Disabled:   true,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("disabled consumer start failed: %v", err)
	}
	if len(sub.handlers) != 0 {
		t.Fatalf("expected no subscriptions when disabled, got %d", len(sub.handlers))
	}
}

func TestVoteVerifierMarksAndEmits(t *testing.T) {
	now := time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)
	store := votingmemory.NewStore([]entities.Vote{
		{
			VoteID:      "vote-1",
			ElectionID:  "election-1",
			PositionID:  "position-1",
			CandidateID: "candidate-1",
			VoterHash:   "aaaa1111bbbb2222",
			CastAt:      now.Add(-time.Minute),
		},
	})
	verifier := votingworkers.VoteVerifier{
		Votes:  store,
		Outbox: store,
		Clock:  fixedClock{now: now},
		IDGen:  store,
	}

	if err := verifier.RunOnce(context.Background()); err != nil {
		t.Fatalf("verifier run failed: %v", err)
	}
	vote, err := store.GetVote(context.Background(), "vote-1")
	if err != nil {
		t.Fatalf("load vote failed: %v", err)
	}
	if !vote.Verified || vote.VerifiedAt == nil {
		t.Fatalf("expected vote to be marked verified")
	}

	outbox, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	foundVerified := false
	for _, message := range outbox {
		var envelope struct {
			EventType string `json:"event_type"`
			Data      struct {
				VoteID string `json:"vote_id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode outbox envelope failed: %v", err)
		}
		if envelope.EventType == "vote.verified" && envelope.Data.VoteID == "vote-1" {
			foundVerified = true
		}
	}
	if !foundVerified {
		t.Fatalf("expected vote.verified event in outbox")
	}

	// A second sweep has nothing left to verify and emits nothing new.
	before := len(outbox)
	if err := verifier.RunOnce(context.Background()); err != nil {
		t.Fatalf("second verifier run failed: %v", err)
	}
	outbox, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("relist outbox failed: %v", err)
	}
	if len(outbox) != before {
		t.Fatalf("expected no new events on idle sweep, got %d -> %d", before, len(outbox))
	}
}

func TestVotingOutboxRelayPublishesAndMarks(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	store := votingmemory.NewStore(nil)
	payload, _ := json.Marshal(map[string]any{"vote_id": "vote-1"})
	if err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:      "event-vote-cast-1",
		EventType:    "vote.cast",
		OccurredAt:   now.Add(-time.Minute),
		PartitionKey: "election-1",
		Data:         payload,
	}); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := votingworkers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     fixedClock{now: now},
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "vote.cast" {
		t.Fatalf("expected one publish on vote.cast, got %v", publisher.topics)
	}
	if publisher.events[0].EventID != "event-vote-cast-1" {
		t.Fatalf("unexpected published event id %s", publisher.events[0].EventID)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained after relay, got %d pending", len(pending))
	}
}

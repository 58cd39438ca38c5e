package unit

import (
	"context"
	"testing"
	"time"

	electionservice "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service"
	electionports "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/ports"
	httptransport "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/transport/http"
	votingmemory "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/adapters/memory"
	votingcommands "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/commands"
	votingworkers "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/workers"
	votingports "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
)

// lifecycleBridgePublisher stands in for the broker: lifecycle events leave
// the election outbox and are delivered straight to the voting engine's
// subscribed handlers.
type lifecycleBridgePublisher struct {
	handlers map[string]votingports.EventHandler
}

func (p *lifecycleBridgePublisher) Publish(ctx context.Context, topic string, event electionports.EventEnvelope) error {
	handler, ok := p.handlers[topic]
	if !ok {
		return nil
	}
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
}

func TestLifecycleEventsProvisionBallotForCasting(t *testing.T) {
	ctx := context.Background()

	bridge := &lifecycleBridgePublisher{}
	electionModule := electionservice.NewInMemoryModule(nil, bridge, nil)

	votingStore := votingmemory.NewStore(nil)
	sub := &votingStubSubscriber{}
	consumer := votingworkers.ElectionStateConsumer{
		Subscriber: sub,
		Dedup:      votingStore,
		Directory:  votingStore,
		Clock:      votingStore,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer failed: %v", err)
	}
	bridge.handlers = sub.handlers

	req := validCreateElectionRequest()
	req.StartAt = time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	req.EndAt = time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	created, err := electionModule.Handler.CreateElectionHandler(ctx, req)
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if _, err := electionModule.Handler.UpdateElectionStatusHandler(ctx, created.ElectionID, httptransport.UpdateElectionStatusRequest{
		Status:  "active",
		ActorID: "chairperson-1",
	}); err != nil {
		t.Fatalf("activate election failed: %v", err)
	}

	// Drain the lifecycle outbox through the relay; the bridge delivers each
	// event to the voting engine's consumer.
	if err := electionModule.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("outbox relay failed: %v", err)
	}

	config, err := electionModule.Handler.ElectionConfigHandler(ctx, created.ElectionID)
	if err != nil {
		t.Fatalf("load election config failed: %v", err)
	}
	positionID := config.Positions[0].PositionID
	candidateID := config.Positions[0].CandidateIDs[0]

	position, err := votingStore.GetPositionProjection(ctx, positionID)
	if err != nil {
		t.Fatalf("expected ballot projection after lifecycle events: %v", err)
	}
	if position.ElectionID != created.ElectionID || !position.HasCandidate(candidateID) {
		t.Fatalf("unexpected ballot projection %+v", position)
	}

	// With the projection in place, a cast on the freshly activated election
	// succeeds without any manual seeding.
	cast := votingcommands.CastVoteUseCase{
		Votes:     votingStore,
		Directory: votingStore,
		Outbox:    votingStore,
		Clock:     votingStore,
		IDGen:     votingStore,
	}
	vote, err := cast.CastVote(ctx, votingcommands.CastVoteCommand{
		ElectionID:  created.ElectionID,
		PositionID:  positionID,
		CandidateID: candidateID,
		VoterHash:   "aaaa1111bbbb2222",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if vote.ElectionID != created.ElectionID || vote.PositionID != positionID {
		t.Fatalf("unexpected vote coordinates %+v", vote)
	}
}

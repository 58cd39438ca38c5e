package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
)

// VoteRepository owns the append-mostly vote ledger and the voter records that
// enforce one vote per voter per position.
type VoteRepository interface {
	// AppendVote atomically persists the vote and folds it into the voter's
	// record. Implementations return ErrDuplicateVote when the voter already
	// holds the position, and ErrContention on concurrent write collisions
	// that the caller may retry. The voter record is derived inside the
	// adapter; callers never supply it, so a stale read cannot overwrite
	// concurrent appends.
	AppendVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	GetVoterRecord(ctx context.Context, voterHash string) (entities.VoterRecord, bool, error)
	ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error)
	ListVotesByPosition(ctx context.Context, positionID string) ([]entities.Vote, error)
	ListUnverifiedVotes(ctx context.Context, limit int) ([]entities.Vote, error)
	MarkVoteVerified(ctx context.Context, voteID string, verifiedAt time.Time) error
}

// ElectionDirectory serves the projected ballot shape used to validate casts.
type ElectionDirectory interface {
	GetElectionProjection(ctx context.Context, electionID string) (entities.ElectionProjection, error)
	GetPositionProjection(ctx context.Context, positionID string) (entities.PositionProjection, error)
}

// ElectionDirectoryWriter is the consumer-facing side of the projection.
type ElectionDirectoryWriter interface {
	UpsertElectionProjection(ctx context.Context, projection entities.ElectionProjection) error
	UpsertPositionProjection(ctx context.Context, projection entities.PositionProjection) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventHandler func(ctx context.Context, event EventEnvelope) error

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler EventHandler) error
}

// EventDedupStore provides the at-least-once dedupe gate for consumers.
// ReserveEvent returns true when the event was already processed.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

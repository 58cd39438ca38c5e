package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
)

type ElectionRepository interface {
	// CreateElection inserts a new election and fails with ErrAlreadyExists
	// when the ID is taken, including under concurrent initialization.
	// SaveElection upserts and is reserved for mutations of an existing row.
	CreateElection(ctx context.Context, election entities.Election) error
	SaveElection(ctx context.Context, election entities.Election) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	ListElectionsByStatus(ctx context.Context, status entities.ElectionStatus) ([]entities.Election, error)

	SavePosition(ctx context.Context, position entities.Position) error
	GetPosition(ctx context.Context, positionID string) (entities.Position, error)
	ListPositionsByElection(ctx context.Context, electionID string) ([]entities.Position, error)

	SaveCandidate(ctx context.Context, candidate entities.Candidate) error
	ListCandidatesByPosition(ctx context.Context, positionID string) ([]entities.Candidate, error)
	ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error)

	AppendStatusTransition(ctx context.Context, transition entities.StatusTransition) error
	ListStatusTransitions(ctx context.Context, electionID string) ([]entities.StatusTransition, error)
}

// VoteScanner reads aggregate vote figures from the vote ledger's secondary
// indexes. The lifecycle side holds no vote entities, only counts.
type VoteScanner interface {
	CountVotesByElection(ctx context.Context, electionID string) (int, error)
	CountDistinctVotersByElection(ctx context.Context, electionID string) (int, error)
}

type AdminRegistry interface {
	AddAdmin(ctx context.Context, admin entities.Admin) error
	ListAdmins(ctx context.Context) ([]entities.Admin, error)
	IsAdmin(ctx context.Context, principal string) (bool, error)
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

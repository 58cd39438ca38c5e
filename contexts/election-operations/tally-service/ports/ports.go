package ports

import (
	"context"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
)

// VoteReader scans the vote ledger. The contract is O(votes) per read;
// implementations may swap in running counters without changing callers.
type VoteReader interface {
	ListVotesByElection(ctx context.Context, electionID string) ([]entities.BallotEntry, error)
	ListVotesByPosition(ctx context.Context, positionID string) ([]entities.BallotEntry, error)
}

// CandidateDirectory resolves ballot shape and display names for reports.
type CandidateDirectory interface {
	GetElection(ctx context.Context, electionID string) (entities.ElectionSummary, error)
	GetPosition(ctx context.Context, positionID string) (entities.PositionSummary, error)
	ListPositionsByElection(ctx context.Context, electionID string) ([]entities.PositionSummary, error)
}

type OverrideRepository interface {
	SaveOverride(ctx context.Context, override entities.ResultOverride) error
	GetOverride(ctx context.Context, positionID string) (entities.ResultOverride, bool, error)
	DeleteOverride(ctx context.Context, positionID string) error
}

type Clock interface {
	Now() time.Time
}

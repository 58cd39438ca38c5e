package entities

import "time"

// BallotEntry is the tally-side view of one ledger vote. The voter hash is
// deliberately absent; tallies only need ballot coordinates.
type BallotEntry struct {
	VoteID      string
	ElectionID  string
	PositionID  string
	CandidateID string
	CastAt      time.Time
}

type ElectionSummary struct {
	ElectionID string
	Status     string
}

type CandidateSummary struct {
	CandidateID string
	Name        string
}

type PositionSummary struct {
	PositionID string
	ElectionID string
	Title      string
	Candidates []CandidateSummary
}

type CandidateTally struct {
	CandidateID string
	Name        string
	Votes       int
}

// PositionResult is a computed report. Tallies are ordered by vote count
// descending, then candidate ID ascending, and include zero-vote candidates.
type PositionResult struct {
	PositionID string
	ElectionID string
	Title      string
	TotalVotes int
	Tallies    []CandidateTally
	WinnerID   string
	Tie        bool
	Overridden bool
}

type ElectionResult struct {
	ElectionID string
	Status     string
	TotalVotes int
	Positions  []PositionResult
	ComputedAt time.Time
}

// ResultOverride adjusts how a position result is reported. The vote ledger
// is never mutated; overrides resolve at read time.
type ResultOverride struct {
	PositionID            string
	ForcedWinnerID        *string
	CollectRemainingVotes bool
	EligibleTurnout       int
	VoteLimit             *int
	SetBy                 string
	UpdatedAt             time.Time
}

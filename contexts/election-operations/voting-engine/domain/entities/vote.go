package entities

import "time"

// Vote is one immutable ledger entry. Votes are never updated after casting
// except for the verification mark set by the integrity worker.
type Vote struct {
	VoteID      string
	ElectionID  string
	PositionID  string
	CandidateID string
	VoterHash   string
	Verified    bool
	VerifiedAt  *time.Time
	CastAt      time.Time
}

// VoterRecord tracks which positions a voter hash has already voted on. It is
// the enforcement index for one vote per voter per position.
type VoterRecord struct {
	VoterHash      string
	VotedPositions map[string]string
	TotalVotes     int
	LastVoteAt     time.Time
}

// HasVoted reports whether this voter already holds a ledger entry for the
// position.
func (r VoterRecord) HasVoted(positionID string) bool {
	_, ok := r.VotedPositions[positionID]
	return ok
}

// ElectionProjection is the local read model kept in sync from election
// lifecycle events. The voting engine never calls back into the lifecycle
// manager on the hot path.
type ElectionProjection struct {
	ElectionID string
	Status     string
	StartAt    time.Time
	EndAt      time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the projected election accepts votes at the given
// instant. The window is inclusive of start and exclusive of end.
func (p ElectionProjection) IsActive(at time.Time) bool {
	if p.Status != "active" {
		return false
	}
	return !at.Before(p.StartAt) && at.Before(p.EndAt)
}

// PositionProjection mirrors the ballot shape for a single position.
type PositionProjection struct {
	PositionID   string
	ElectionID   string
	CandidateIDs []string
}

// HasCandidate reports whether the candidate stands for this position.
func (p PositionProjection) HasCandidate(candidateID string) bool {
	for _, id := range p.CandidateIDs {
		if id == candidateID {
			return true
		}
	}
	return false
}

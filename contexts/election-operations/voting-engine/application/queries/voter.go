package queries

import (
	"context"
	"errors"
	"strings"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
)

// VoteVerification is the receipt-check result for a single vote ID.
type VoteVerification struct {
	Vote  entities.Vote
	Found bool
}

// VoterUseCase serves the read side of the ledger: receipt verification and
// per-voter participation lookups.
type VoterUseCase struct {
	Votes ports.VoteRepository
}

// VerifyVote resolves a vote by its ID so a voter can confirm their ballot
// was recorded. An unknown ID is reported as not found rather than an error.
func (uc VoterUseCase) VerifyVote(ctx context.Context, voteID string) (VoteVerification, error) {
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoteNotFound) {
			return VoteVerification{}, nil
		}
		return VoteVerification{}, err
	}
	return VoteVerification{Vote: vote, Found: true}, nil
}

// GetVoterRecord returns the participation index for a voter hash. A voter
// that never cast a vote gets an empty record, not an error.
func (uc VoterUseCase) GetVoterRecord(ctx context.Context, voterHash string) (entities.VoterRecord, error) {
	hash := strings.ToLower(strings.TrimSpace(voterHash))
	record, found, err := uc.Votes.GetVoterRecord(ctx, hash)
	if err != nil {
		return entities.VoterRecord{}, err
	}
	if !found {
		return entities.VoterRecord{
			VoterHash:      hash,
			VotedPositions: map[string]string{},
		}, nil
	}
	return record, nil
}

// ListElectionVotes returns the ledger slice for an election in cast order.
func (uc VoterUseCase) ListElectionVotes(ctx context.Context, electionID string) ([]entities.Vote, error) {
	return uc.Votes.ListVotesByElection(ctx, strings.TrimSpace(electionID))
}

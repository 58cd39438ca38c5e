package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/commands"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/queries"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	httptransport "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/transport/http"
)

type Handler struct {
	Casts  commands.CastVoteUseCase
	Voters queries.VoterUseCase
	Logger *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	voterHash string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Casts.CastVote(ctx, commands.CastVoteCommand{
		ElectionID:  req.ElectionID,
		PositionID:  req.PositionID,
		CandidateID: req.CandidateID,
		VoterHash:   voterHash,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) VerifyVoteHandler(ctx context.Context, voteID string) (httptransport.VoteVerificationResponse, error) {
	verification, err := h.Voters.VerifyVote(ctx, voteID)
	if err != nil {
		return httptransport.VoteVerificationResponse{}, err
	}
	response := httptransport.VoteVerificationResponse{
		VoteID: voteID,
		Found:  verification.Found,
	}
	if verification.Found {
		vote := mapVote(verification.Vote)
		response.Vote = &vote
	}
	return response, nil
}

func (h Handler) VoterRecordHandler(ctx context.Context, voterHash string) (httptransport.VoterRecordResponse, error) {
	record, err := h.Voters.GetVoterRecord(ctx, voterHash)
	if err != nil {
		return httptransport.VoterRecordResponse{}, err
	}
	response := httptransport.VoterRecordResponse{
		VoterHash:      record.VoterHash,
		VotedPositions: record.VotedPositions,
		TotalVotes:     record.TotalVotes,
	}
	if !record.LastVoteAt.IsZero() {
		lastVoteAt := record.LastVoteAt.UTC().Format(time.RFC3339)
		response.LastVoteAt = &lastVoteAt
	}
	return response, nil
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	response := httptransport.VoteResponse{
		VoteID:      vote.VoteID,
		ElectionID:  vote.ElectionID,
		PositionID:  vote.PositionID,
		CandidateID: vote.CandidateID,
		Verified:    vote.Verified,
		CastAt:      vote.CastAt.UTC().Format(time.RFC3339),
	}
	if vote.VerifiedAt != nil {
		verifiedAt := vote.VerifiedAt.UTC().Format(time.RFC3339)
		response.VerifiedAt = &verifiedAt
	}
	return response
}

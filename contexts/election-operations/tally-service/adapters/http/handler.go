package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/application/commands"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/application/queries"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
	httptransport "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/transport/http"
)

type Handler struct {
	Results   queries.ResultsUseCase
	Overrides commands.OverrideUseCase
	Logger    *slog.Logger
}

func (h Handler) ElectionResultsHandler(ctx context.Context, electionID string) (httptransport.ElectionResultResponse, error) {
	result, err := h.Results.ElectionResults(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResultResponse{}, err
	}
	positions := make([]httptransport.PositionResultResponse, 0, len(result.Positions))
	for _, position := range result.Positions {
		positions = append(positions, mapPositionResult(position))
	}
	return httptransport.ElectionResultResponse{
		ElectionID: result.ElectionID,
		Status:     result.Status,
		TotalVotes: result.TotalVotes,
		Positions:  positions,
		ComputedAt: result.ComputedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h Handler) PositionResultsHandler(ctx context.Context, positionID string) (httptransport.PositionResultResponse, error) {
	result, err := h.Results.PositionResults(ctx, positionID)
	if err != nil {
		return httptransport.PositionResultResponse{}, err
	}
	return mapPositionResult(result), nil
}

func (h Handler) SetOverrideHandler(
	ctx context.Context,
	positionID string,
	req httptransport.SetOverrideRequest,
) (httptransport.OverrideResponse, error) {
	override, err := h.Overrides.SetOverride(ctx, commands.SetOverrideCommand{
		PositionID:            positionID,
		ForcedWinnerID:        req.ForcedWinnerID,
		CollectRemainingVotes: req.CollectRemainingVotes,
		EligibleTurnout:       req.EligibleTurnout,
		VoteLimit:             req.VoteLimit,
		SetBy:                 req.SetBy,
	})
	if err != nil {
		return httptransport.OverrideResponse{}, err
	}
	return httptransport.OverrideResponse{
		PositionID:            override.PositionID,
		ForcedWinnerID:        override.ForcedWinnerID,
		CollectRemainingVotes: override.CollectRemainingVotes,
		EligibleTurnout:       override.EligibleTurnout,
		VoteLimit:             override.VoteLimit,
		SetBy:                 override.SetBy,
		UpdatedAt:             override.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h Handler) ClearOverrideHandler(ctx context.Context, positionID string) error {
	return h.Overrides.ClearOverride(ctx, positionID)
}

func mapPositionResult(result entities.PositionResult) httptransport.PositionResultResponse {
	tallies := make([]httptransport.CandidateTallyResponse, 0, len(result.Tallies))
	for _, tally := range result.Tallies {
		tallies = append(tallies, httptransport.CandidateTallyResponse{
			CandidateID: tally.CandidateID,
			Name:        tally.Name,
			Votes:       tally.Votes,
		})
	}
	return httptransport.PositionResultResponse{
		PositionID: result.PositionID,
		ElectionID: result.ElectionID,
		Title:      result.Title,
		TotalVotes: result.TotalVotes,
		Tallies:    tallies,
		WinnerID:   result.WinnerID,
		Tie:        result.Tie,
		Overridden: result.Overridden,
	}
}

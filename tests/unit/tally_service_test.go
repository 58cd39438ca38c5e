package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	tallyservice "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/errors"
	httptransport "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/transport/http"
)

func seedTallyFixture(module tallyservice.Module) {
	module.Store.SetElection(entities.ElectionSummary{
		ElectionID: "election-1",
		Status:     "completed",
	})
	module.Store.SetPosition(entities.PositionSummary{
		PositionID: "position-1",
		ElectionID: "election-1",
		Title:      "Chairperson",
		Candidates: []entities.CandidateSummary{
			{CandidateID: "candidate-a", Name: "Alice Wanjiru"},
			{CandidateID: "candidate-b", Name: "Brian Otieno"},
			{CandidateID: "candidate-c", Name: "Carol Njeri"},
		},
	})
	cast := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	ballots := []struct {
		voteID      string
		candidateID string
	}{
		{"vote-1", "candidate-b"},
		{"vote-2", "candidate-b"},
		{"vote-3", "candidate-b"},
		{"vote-4", "candidate-a"},
		{"vote-5", "candidate-a"},
	}
	for i, ballot := range ballots {
		module.Store.AppendBallot(entities.BallotEntry{
			VoteID:      ballot.voteID,
			ElectionID:  "election-1",
			PositionID:  "position-1",
			CandidateID: ballot.candidateID,
			CastAt:      cast.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestPositionResultsOrderingAndZeroVoteCandidates(t *testing.T) {
	module := tallyservice.NewInMemoryModule(nil, nil)
	seedTallyFixture(module)

	result, err := module.Handler.PositionResultsHandler(context.Background(), "position-1")
	if err != nil {
		t.Fatalf("position results failed: %v", err)
	}
	if result.TotalVotes != 5 {
		t.Fatalf("expected 5 total votes, got %d", result.TotalVotes)
	}
	if len(result.Tallies) != 3 {
		t.Fatalf("expected all 3 ballot candidates in tallies, got %d", len(result.Tallies))
	}
	if result.Tallies[0].CandidateID != "candidate-b" || result.Tallies[0].Votes != 3 {
		t.Fatalf("expected candidate-b on top with 3 votes, got %+v", result.Tallies[0])
	}
	if result.Tallies[2].CandidateID != "candidate-c" || result.Tallies[2].Votes != 0 {
		t.Fatalf("expected zero-vote candidate-c last, got %+v", result.Tallies[2])
	}
	if result.WinnerID != "candidate-b" || result.Tie {
		t.Fatalf("expected candidate-b winner without tie, got winner=%s tie=%v", result.WinnerID, result.Tie)
	}
}

func TestPositionResultsTieAndEmptyBallot(t *testing.T) {
	module := tallyservice.NewInMemoryModule(nil, nil)
	module.Store.SetPosition(entities.PositionSummary{
		PositionID: "position-tied",
		ElectionID: "election-1",
		Title:      "Treasurer",
		Candidates: []entities.CandidateSummary{
			{CandidateID: "candidate-x", Name: "Xavier"},
			{CandidateID: "candidate-y", Name: "Yvonne"},
		},
	})
	module.Store.AppendBallot(entities.BallotEntry{VoteID: "vote-1", ElectionID: "election-1", PositionID: "position-tied", CandidateID: "candidate-x"})
	module.Store.AppendBallot(entities.BallotEntry{VoteID: "vote-2", ElectionID: "election-1", PositionID: "position-tied", CandidateID: "candidate-y"})

	result, err := module.Handler.PositionResultsHandler(context.Background(), "position-tied")
	if err != nil {
		t.Fatalf("position results failed: %v", err)
	}
	if !result.Tie || result.WinnerID != "" {
		t.Fatalf("expected tie with no winner, got winner=%s tie=%v", result.WinnerID, result.Tie)
	}

	module.Store.SetPosition(entities.PositionSummary{
		PositionID: "position-empty",
		ElectionID: "election-1",
		Title:      "Auditor",
		Candidates: []entities.CandidateSummary{
			{CandidateID: "candidate-z", Name: "Zack"},
		},
	})
	empty, err := module.Handler.PositionResultsHandler(context.Background(), "position-empty")
	if err != nil {
		t.Fatalf("empty position results failed: %v", err)
	}
	if empty.WinnerID != "" || empty.Tie {
		t.Fatalf("expected no winner on empty ballot, got winner=%s tie=%v", empty.WinnerID, empty.Tie)
	}
}

func TestElectionResultsAggregatePositions(t *testing.T) {
	module := tallyservice.NewInMemoryModule(nil, nil)
	seedTallyFixture(module)
	module.Store.SetPosition(entities.PositionSummary{
		PositionID: "position-2",
		ElectionID: "election-1",
		Title:      "Secretary",
		Candidates: []entities.CandidateSummary{
			{CandidateID: "candidate-d", Name: "David"},
		},
	})
	module.Store.AppendBallot(entities.BallotEntry{VoteID: "vote-6", ElectionID: "election-1", PositionID: "position-2", CandidateID: "candidate-d"})

	result, err := module.Handler.ElectionResultsHandler(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("election results failed: %v", err)
	}
	if result.Status != "completed" {
		t.Fatalf("expected completed status echo, got %s", result.Status)
	}
	if result.TotalVotes != 6 {
		t.Fatalf("expected 6 total votes across positions, got %d", result.TotalVotes)
	}
	if len(result.Positions) != 2 {
		t.Fatalf("expected 2 position results, got %d", len(result.Positions))
	}
	if result.Positions[0].PositionID != "position-1" {
		t.Fatalf("expected positions ordered by id, got %s first", result.Positions[0].PositionID)
	}
}

func TestOverrideForcedWinnerCollectsRemainingWithoutTouchingLedger(t *testing.T) {
	module := tallyservice.NewInMemoryModule(nil, nil)
	seedTallyFixture(module)

	forced := "candidate-a"
	override, err := module.Handler.SetOverrideHandler(context.Background(), "position-1", httptransport.SetOverrideRequest{
		ForcedWinnerID:        &forced,
		CollectRemainingVotes: true,
		EligibleTurnout:       20,
		SetBy:                 "returning-officer",
	})
	if err != nil {
		t.Fatalf("set override failed: %v", err)
	}
	if override.UpdatedAt == "" {
		t.Fatalf("expected override timestamp")
	}

	result, err := module.Handler.PositionResultsHandler(context.Background(), "position-1")
	if err != nil {
		t.Fatalf("overridden results failed: %v", err)
	}
	if !result.Overridden {
		t.Fatalf("expected overridden flag")
	}
	if result.WinnerID != "candidate-a" || result.Tie {
		t.Fatalf("expected forced winner candidate-a, got winner=%s tie=%v", result.WinnerID, result.Tie)
	}
	// 5 counted votes, 20 eligible: the forced winner absorbs the 15 remaining
	// in the report only.
	if result.Tallies[0].CandidateID != "candidate-a" || result.Tallies[0].Votes != 17 {
		t.Fatalf("expected candidate-a with 17 report votes, got %+v", result.Tallies[0])
	}

	ballots, err := module.Store.ListVotesByPosition(context.Background(), "position-1")
	if err != nil {
		t.Fatalf("list ballots failed: %v", err)
	}
	if len(ballots) != 5 {
		t.Fatalf("expected ledger untouched with 5 ballots, got %d", len(ballots))
	}

	if err := module.Handler.ClearOverrideHandler(context.Background(), "position-1"); err != nil {
		t.Fatalf("clear override failed: %v", err)
	}
	raw, err := module.Handler.PositionResultsHandler(context.Background(), "position-1")
	if err != nil {
		t.Fatalf("raw results after clear failed: %v", err)
	}
	if raw.Overridden || raw.WinnerID != "candidate-b" {
		t.Fatalf("expected raw tally restored after clear, got %+v", raw)
	}
}

func TestOverrideVoteLimitCapsReportedTallies(t *testing.T) {
	module := tallyservice.NewInMemoryModule(nil, nil)
	seedTallyFixture(module)

	limit := 2
	if _, err := module.Handler.SetOverrideHandler(context.Background(), "position-1", httptransport.SetOverrideRequest{
		VoteLimit: &limit,
		SetBy:     "returning-officer",
	}); err != nil {
		t.Fatalf("set vote limit override failed: %v", err)
	}

	result, err := module.Handler.PositionResultsHandler(context.Background(), "position-1")
	if err != nil {
		t.Fatalf("capped results failed: %v", err)
	}
	for _, tally := range result.Tallies {
		if tally.Votes > limit {
			t.Fatalf("expected all tallies capped at %d, got %+v", limit, tally)
		}
	}
	// candidate-a and candidate-b both cap at 2, which reads as a tie.
	if !result.Tie {
		t.Fatalf("expected capped tallies to produce a tie")
	}
}

func TestOverrideValidation(t *testing.T) {
	module := tallyservice.NewInMemoryModule(nil, nil)
	seedTallyFixture(module)

	_, err := module.Handler.SetOverrideHandler(context.Background(), "position-1", httptransport.SetOverrideRequest{
		SetBy: "returning-officer",
	})
	if !errors.Is(err, domainerrors.ErrInvalidOverride) {
		t.Fatalf("expected empty override rejection, got %v", err)
	}

	zero := 0
	_, err = module.Handler.SetOverrideHandler(context.Background(), "position-1", httptransport.SetOverrideRequest{
		VoteLimit: &zero,
	})
	if !errors.Is(err, domainerrors.ErrInvalidOverride) {
		t.Fatalf("expected zero vote limit rejection, got %v", err)
	}

	outsider := "candidate-outsider"
	_, err = module.Handler.SetOverrideHandler(context.Background(), "position-1", httptransport.SetOverrideRequest{
		ForcedWinnerID: &outsider,
	})
	if !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected unknown forced winner rejection, got %v", err)
	}

	limit := 3
	_, err = module.Handler.SetOverrideHandler(context.Background(), "position-missing", httptransport.SetOverrideRequest{
		VoteLimit: &limit,
	})
	if !errors.Is(err, domainerrors.ErrPositionNotFound) {
		t.Fatalf("expected missing position rejection, got %v", err)
	}

	if err := module.Handler.ClearOverrideHandler(context.Background(), "position-1"); !errors.Is(err, domainerrors.ErrOverrideNotFound) {
		t.Fatalf("expected clear without override to fail, got %v", err)
	}
}

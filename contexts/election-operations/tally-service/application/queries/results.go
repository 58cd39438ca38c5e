package queries

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/ports"
)

// ResultsUseCase computes position and election reports by scanning the vote
// ledger and resolving any persisted overrides on top of the raw tally.
type ResultsUseCase struct {
	Votes     ports.VoteReader
	Directory ports.CandidateDirectory
	Overrides ports.OverrideRepository
	Clock     ports.Clock
}

func (uc ResultsUseCase) PositionResults(ctx context.Context, positionID string) (entities.PositionResult, error) {
	position, err := uc.Directory.GetPosition(ctx, strings.TrimSpace(positionID))
	if err != nil {
		return entities.PositionResult{}, err
	}
	ballots, err := uc.Votes.ListVotesByPosition(ctx, position.PositionID)
	if err != nil {
		return entities.PositionResult{}, err
	}
	result := tallyPosition(position, ballots)

	override, found, err := uc.Overrides.GetOverride(ctx, position.PositionID)
	if err != nil {
		return entities.PositionResult{}, err
	}
	if found {
		applyOverride(&result, override)
	}
	return result, nil
}

func (uc ResultsUseCase) ElectionResults(ctx context.Context, electionID string) (entities.ElectionResult, error) {
	election, err := uc.Directory.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.ElectionResult{}, err
	}
	positions, err := uc.Directory.ListPositionsByElection(ctx, election.ElectionID)
	if err != nil {
		return entities.ElectionResult{}, err
	}

	result := entities.ElectionResult{
		ElectionID: election.ElectionID,
		Status:     election.Status,
		ComputedAt: uc.now(),
	}
	for _, position := range positions {
		positionResult, err := uc.PositionResults(ctx, position.PositionID)
		if err != nil {
			return entities.ElectionResult{}, err
		}
		result.TotalVotes += positionResult.TotalVotes
		result.Positions = append(result.Positions, positionResult)
	}
	sort.Slice(result.Positions, func(i, j int) bool {
		return result.Positions[i].PositionID < result.Positions[j].PositionID
	})
	return result, nil
}

func (uc ResultsUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// tallyPosition groups ballots by candidate. Candidates without votes appear
// with a zero count so reports always show the full ballot.
func tallyPosition(position entities.PositionSummary, ballots []entities.BallotEntry) entities.PositionResult {
	counts := make(map[string]int, len(position.Candidates))
	names := make(map[string]string, len(position.Candidates))
	for _, candidate := range position.Candidates {
		counts[candidate.CandidateID] = 0
		names[candidate.CandidateID] = candidate.Name
	}
	total := 0
	for _, ballot := range ballots {
		if _, ok := counts[ballot.CandidateID]; !ok {
			// Ballots for withdrawn candidates stay counted in the total but
			// get no tally row.
			total++
			continue
		}
		counts[ballot.CandidateID]++
		total++
	}

	tallies := make([]entities.CandidateTally, 0, len(counts))
	for candidateID, votes := range counts {
		tallies = append(tallies, entities.CandidateTally{
			CandidateID: candidateID,
			Name:        names[candidateID],
			Votes:       votes,
		})
	}
	result := entities.PositionResult{
		PositionID: position.PositionID,
		ElectionID: position.ElectionID,
		Title:      position.Title,
		TotalVotes: total,
		Tallies:    tallies,
	}
	finalizeResult(&result)
	return result
}

// applyOverride resolves a persisted override on the computed result. The
// underlying tally inputs are untouched; only the report changes.
func applyOverride(result *entities.PositionResult, override entities.ResultOverride) {
	result.Overridden = true
	if override.VoteLimit != nil && *override.VoteLimit >= 1 {
		for i := range result.Tallies {
			if result.Tallies[i].Votes > *override.VoteLimit {
				result.Tallies[i].Votes = *override.VoteLimit
			}
		}
	}
	if override.ForcedWinnerID != nil {
		winnerID := strings.TrimSpace(*override.ForcedWinnerID)
		if override.CollectRemainingVotes {
			counted := 0
			for _, tally := range result.Tallies {
				counted += tally.Votes
			}
			remaining := override.EligibleTurnout - counted
			if remaining > 0 {
				for i := range result.Tallies {
					if result.Tallies[i].CandidateID == winnerID {
						result.Tallies[i].Votes += remaining
						break
					}
				}
			}
		}
		finalizeResult(result)
		result.WinnerID = winnerID
		result.Tie = false
		return
	}
	finalizeResult(result)
}

// finalizeResult orders tallies and derives winner/tie from the current rows.
func finalizeResult(result *entities.PositionResult) {
	sort.Slice(result.Tallies, func(i, j int) bool {
		if result.Tallies[i].Votes == result.Tallies[j].Votes {
			return result.Tallies[i].CandidateID < result.Tallies[j].CandidateID
		}
		return result.Tallies[i].Votes > result.Tallies[j].Votes
	})
	result.WinnerID = ""
	result.Tie = false
	if len(result.Tallies) == 0 || result.Tallies[0].Votes == 0 {
		return
	}
	if len(result.Tallies) > 1 && result.Tallies[1].Votes == result.Tallies[0].Votes {
		result.Tie = true
		return
	}
	result.WinnerID = result.Tallies[0].CandidateID
}

package queries

import (
	"context"
	"sort"
	"strings"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/ports"
)

// ConfigUseCase serves the pure reads of the lifecycle manager and registry.
// All reads run unsynchronized against the store snapshot; totals are
// advisory until an election is completed.
type ConfigUseCase struct {
	Elections ports.ElectionRepository
	Votes     ports.VoteScanner
	Admins    ports.AdminRegistry
}

func (uc ConfigUseCase) GetElectionConfig(ctx context.Context, electionID string) (entities.ElectionConfig, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.ElectionConfig{}, err
	}
	positions, err := uc.Elections.ListPositionsByElection(ctx, election.ElectionID)
	if err != nil {
		return entities.ElectionConfig{}, err
	}
	candidates, err := uc.Elections.ListCandidatesByElection(ctx, election.ElectionID)
	if err != nil {
		return entities.ElectionConfig{}, err
	}
	return entities.ElectionConfig{
		Election:   election,
		Positions:  positions,
		Candidates: candidates,
	}, nil
}

func (uc ConfigUseCase) GetElectionStats(ctx context.Context, electionID string) (entities.ElectionStats, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.ElectionStats{}, err
	}
	positions, err := uc.Elections.ListPositionsByElection(ctx, election.ElectionID)
	if err != nil {
		return entities.ElectionStats{}, err
	}
	candidates, err := uc.Elections.ListCandidatesByElection(ctx, election.ElectionID)
	if err != nil {
		return entities.ElectionStats{}, err
	}
	totalVotes, err := uc.Votes.CountVotesByElection(ctx, election.ElectionID)
	if err != nil {
		return entities.ElectionStats{}, err
	}
	totalVoters, err := uc.Votes.CountDistinctVotersByElection(ctx, election.ElectionID)
	if err != nil {
		return entities.ElectionStats{}, err
	}
	return entities.ElectionStats{
		ElectionID:     election.ElectionID,
		Status:         election.Status,
		TotalVoters:    totalVoters,
		TotalVotes:     totalVotes,
		PositionCount:  len(positions),
		CandidateCount: len(candidates),
	}, nil
}

// GetActiveElections returns active elections ordered by start time ascending.
func (uc ConfigUseCase) GetActiveElections(ctx context.Context) ([]entities.Election, error) {
	items, err := uc.Elections.ListElectionsByStatus(ctx, entities.ElectionStatusActive)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartAt.Equal(items[j].StartAt) {
			return items[i].ElectionID < items[j].ElectionID
		}
		return items[i].StartAt.Before(items[j].StartAt)
	})
	return items, nil
}

func (uc ConfigUseCase) GetRegistryStats(ctx context.Context) (entities.RegistryStats, error) {
	items, err := uc.Elections.ListElections(ctx)
	if err != nil {
		return entities.RegistryStats{}, err
	}
	stats := entities.RegistryStats{TotalElections: len(items)}
	for _, election := range items {
		switch election.Status {
		case entities.ElectionStatusDraft:
			stats.DraftElections++
		case entities.ElectionStatusActive:
			stats.ActiveElections++
		case entities.ElectionStatusCompleted:
			stats.CompletedElections++
		case entities.ElectionStatusCancelled:
			stats.CancelledElections++
		}
		switch election.Type {
		case entities.ElectionTypeNational:
			stats.NationalElections++
		case entities.ElectionTypeBranch:
			stats.BranchElections++
		}
	}
	return stats, nil
}

func (uc ConfigUseCase) ListStatusTransitions(ctx context.Context, electionID string) ([]entities.StatusTransition, error) {
	if _, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID)); err != nil {
		return nil, err
	}
	return uc.Elections.ListStatusTransitions(ctx, strings.TrimSpace(electionID))
}

func (uc ConfigUseCase) ListAdmins(ctx context.Context) ([]entities.Admin, error) {
	return uc.Admins.ListAdmins(ctx)
}

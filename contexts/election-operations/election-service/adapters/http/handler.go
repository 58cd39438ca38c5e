package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/application/commands"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/application/queries"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	httptransport "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/transport/http"
)

type Handler struct {
	Registry  commands.RegistryUseCase
	Lifecycle commands.LifecycleUseCase
	Config    queries.ConfigUseCase
	Logger    *slog.Logger
}

func (h Handler) CreateElectionHandler(ctx context.Context, req httptransport.CreateElectionRequest) (httptransport.ElectionResponse, error) {
	positions := make([]commands.PositionInput, 0, len(req.Positions))
	for _, position := range req.Positions {
		candidates := make([]commands.CandidateInput, 0, len(position.Candidates))
		for _, candidate := range position.Candidates {
			candidates = append(candidates, commands.CandidateInput{
				Name:     candidate.Name,
				Bio:      candidate.Bio,
				PhotoURL: candidate.PhotoURL,
			})
		}
		positions = append(positions, commands.PositionInput{
			Title:            position.Title,
			Description:      position.Description,
			MaxVotesPerVoter: position.MaxVotesPerVoter,
			Candidates:       candidates,
		})
	}
	election, err := h.Registry.CreateElection(ctx, commands.CreateElectionCommand{
		Title:       req.Title,
		Description: req.Description,
		Owner:       req.Owner,
		Type:        entities.ElectionType(req.Type),
		BranchScope: req.BranchScope,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Positions:   positions,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) UpdateElectionStatusHandler(
	ctx context.Context,
	electionID string,
	req httptransport.UpdateElectionStatusRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Lifecycle.UpdateElectionStatus(ctx, electionID, entities.ElectionStatus(req.Status), req.ActorID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) ElectionConfigHandler(ctx context.Context, electionID string) (httptransport.ElectionConfigResponse, error) {
	config, err := h.Config.GetElectionConfig(ctx, electionID)
	if err != nil {
		return httptransport.ElectionConfigResponse{}, err
	}
	positions := make([]httptransport.PositionResponse, 0, len(config.Positions))
	for _, position := range config.Positions {
		positions = append(positions, httptransport.PositionResponse{
			PositionID:       position.PositionID,
			ElectionID:       position.ElectionID,
			Title:            position.Title,
			Description:      position.Description,
			MaxVotesPerVoter: position.MaxVotesPerVoter,
			CandidateIDs:     position.CandidateIDs,
		})
	}
	candidates := make([]httptransport.CandidateResponse, 0, len(config.Candidates))
	for _, candidate := range config.Candidates {
		candidates = append(candidates, httptransport.CandidateResponse{
			CandidateID: candidate.CandidateID,
			PositionID:  candidate.PositionID,
			Name:        candidate.Name,
			Bio:         candidate.Bio,
			PhotoURL:    candidate.PhotoURL,
		})
	}
	return httptransport.ElectionConfigResponse{
		Election:   mapElection(config.Election),
		Positions:  positions,
		Candidates: candidates,
	}, nil
}

func (h Handler) ElectionStatsHandler(ctx context.Context, electionID string) (httptransport.ElectionStatsResponse, error) {
	stats, err := h.Config.GetElectionStats(ctx, electionID)
	if err != nil {
		return httptransport.ElectionStatsResponse{}, err
	}
	return httptransport.ElectionStatsResponse{
		ElectionID:     stats.ElectionID,
		Status:         string(stats.Status),
		TotalVoters:    stats.TotalVoters,
		TotalVotes:     stats.TotalVotes,
		PositionCount:  stats.PositionCount,
		CandidateCount: stats.CandidateCount,
	}, nil
}

func (h Handler) ActiveElectionsHandler(ctx context.Context) (httptransport.ActiveElectionsResponse, error) {
	items, err := h.Config.GetActiveElections(ctx)
	if err != nil {
		return httptransport.ActiveElectionsResponse{}, err
	}
	mapped := make([]httptransport.ElectionResponse, 0, len(items))
	for _, election := range items {
		mapped = append(mapped, mapElection(election))
	}
	return httptransport.ActiveElectionsResponse{Items: mapped}, nil
}

func (h Handler) StatusTransitionsHandler(ctx context.Context, electionID string) (httptransport.StatusTransitionsResponse, error) {
	items, err := h.Config.ListStatusTransitions(ctx, electionID)
	if err != nil {
		return httptransport.StatusTransitionsResponse{}, err
	}
	mapped := make([]httptransport.StatusTransitionResponse, 0, len(items))
	for _, transition := range items {
		mapped = append(mapped, httptransport.StatusTransitionResponse{
			TransitionID: transition.TransitionID,
			ElectionID:   transition.ElectionID,
			FromStatus:   string(transition.FromStatus),
			ToStatus:     string(transition.ToStatus),
			ActorID:      transition.ActorID,
			OccurredAt:   transition.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.StatusTransitionsResponse{Items: mapped}, nil
}

func (h Handler) AddAdminHandler(ctx context.Context, req httptransport.AddAdminRequest) (httptransport.AdminResponse, error) {
	admin, err := h.Registry.AddAdmin(ctx, req.Principal, req.AddedBy)
	if err != nil {
		return httptransport.AdminResponse{}, err
	}
	return mapAdmin(admin), nil
}

func (h Handler) ListAdminsHandler(ctx context.Context) (httptransport.AdminsResponse, error) {
	items, err := h.Config.ListAdmins(ctx)
	if err != nil {
		return httptransport.AdminsResponse{}, err
	}
	mapped := make([]httptransport.AdminResponse, 0, len(items))
	for _, admin := range items {
		mapped = append(mapped, mapAdmin(admin))
	}
	return httptransport.AdminsResponse{Items: mapped}, nil
}

func (h Handler) RegistryStatsHandler(ctx context.Context) (httptransport.RegistryStatsResponse, error) {
	stats, err := h.Config.GetRegistryStats(ctx)
	if err != nil {
		return httptransport.RegistryStatsResponse{}, err
	}
	return httptransport.RegistryStatsResponse{
		TotalElections:     stats.TotalElections,
		DraftElections:     stats.DraftElections,
		ActiveElections:    stats.ActiveElections,
		CompletedElections: stats.CompletedElections,
		CancelledElections: stats.CancelledElections,
		NationalElections:  stats.NationalElections,
		BranchElections:    stats.BranchElections,
	}, nil
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:  election.ElectionID,
		Title:       election.Title,
		Description: election.Description,
		Type:        string(election.Type),
		BranchScope: election.BranchScope,
		StartAt:     election.StartAt.UTC().Format(time.RFC3339),
		EndAt:       election.EndAt.UTC().Format(time.RFC3339),
		Status:      string(election.Status),
		CreatedBy:   election.CreatedBy,
		PositionIDs: election.PositionIDs,
		CreatedAt:   election.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   election.UpdatedAt.UTC().Format(time.RFC3339),
		ActivatedAt: formatOptionalTime(election.ActivatedAt),
		ClosedAt:    formatOptionalTime(election.ClosedAt),
	}
}

func mapAdmin(admin entities.Admin) httptransport.AdminResponse {
	return httptransport.AdminResponse{
		Principal: admin.Principal,
		AddedBy:   admin.AddedBy,
		AddedAt:   admin.AddedAt.UTC().Format(time.RFC3339),
	}
}

func formatOptionalTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(time.RFC3339)
	return &formatted
}

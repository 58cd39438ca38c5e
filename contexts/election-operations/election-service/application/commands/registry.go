package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/application"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/ports"
)

// CandidateInput is the registry-facing candidate shape before IDs exist.
type CandidateInput struct {
	Name     string
	Bio      *string
	PhotoURL *string
}

// PositionInput is the registry-facing position shape before IDs exist.
type PositionInput struct {
	Title            string
	Description      string
	MaxVotesPerVoter int
	Candidates       []CandidateInput
}

type CreateElectionCommand struct {
	Title       string
	Description string
	Owner       string
	Type        entities.ElectionType
	BranchScope *string
	StartAt     string
	EndAt       string
	Positions   []PositionInput
}

// RegistryUseCase is the election factory: it allocates identifiers and
// delegates initial configuration to the lifecycle use case. It also owns
// the admin principal set that collaborators consult before calling mutating
// operations; the registry exposes the set but does not enforce it.
type RegistryUseCase struct {
	Lifecycle LifecycleUseCase
	Admins    ports.AdminRegistry
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc RegistryUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("registry create election started",
		"event", "registry_create_election_started",
		"module", "election-operations/election-service",
		"layer", "application",
		"owner", strings.TrimSpace(cmd.Owner),
		"election_type", string(cmd.Type),
	)

	startAt, endAt, err := parseWindow(cmd.StartAt, cmd.EndAt)
	if err != nil {
		logger.Warn("registry create election window parse failed",
			"event", "registry_create_election_window_invalid",
			"module", "election-operations/election-service",
			"layer", "application",
			"owner", strings.TrimSpace(cmd.Owner),
		)
		return entities.Election{}, domainerrors.ErrInvalidConfig
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}

	config := entities.ElectionConfig{
		Election: entities.Election{
			ElectionID:  electionID,
			Title:       strings.TrimSpace(cmd.Title),
			Description: strings.TrimSpace(cmd.Description),
			Type:        cmd.Type,
			BranchScope: cmd.BranchScope,
			StartAt:     startAt,
			EndAt:       endAt,
			CreatedBy:   strings.TrimSpace(cmd.Owner),
		},
	}
	for _, position := range cmd.Positions {
		positionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Election{}, err
		}
		candidateIDs := make([]string, 0, len(position.Candidates))
		for _, candidate := range position.Candidates {
			candidateID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return entities.Election{}, err
			}
			candidateIDs = append(candidateIDs, candidateID)
			config.Candidates = append(config.Candidates, entities.Candidate{
				CandidateID: candidateID,
				PositionID:  positionID,
				Name:        strings.TrimSpace(candidate.Name),
				Bio:         candidate.Bio,
				PhotoURL:    candidate.PhotoURL,
			})
		}
		config.Positions = append(config.Positions, entities.Position{
			PositionID:       positionID,
			ElectionID:       electionID,
			Title:            strings.TrimSpace(position.Title),
			Description:      strings.TrimSpace(position.Description),
			MaxVotesPerVoter: position.MaxVotesPerVoter,
			CandidateIDs:     candidateIDs,
		})
	}

	election, err := uc.Lifecycle.InitElection(ctx, InitElectionCommand{Config: config})
	if err != nil {
		return entities.Election{}, err
	}
	logger.Info("registry election created",
		"event", "registry_election_created",
		"module", "election-operations/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"owner", election.CreatedBy,
	)
	return election, nil
}

func (uc RegistryUseCase) AddAdmin(ctx context.Context, principal string, addedBy string) (entities.Admin, error) {
	logger := application.ResolveLogger(uc.Logger)
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return entities.Admin{}, domainerrors.ErrInvalidPrincipal
	}
	already, err := uc.Admins.IsAdmin(ctx, principal)
	if err != nil {
		return entities.Admin{}, err
	}
	if already {
		return entities.Admin{}, domainerrors.ErrAdminExists
	}
	admin := entities.Admin{
		Principal: principal,
		AddedBy:   strings.TrimSpace(addedBy),
		AddedAt:   uc.Lifecycle.now(),
	}
	if err := uc.Admins.AddAdmin(ctx, admin); err != nil {
		return entities.Admin{}, err
	}
	logger.Info("registry admin added",
		"event", "registry_admin_added",
		"module", "election-operations/election-service",
		"layer", "application",
		"principal", principal,
	)
	return admin, nil
}

func parseWindow(startRaw string, endRaw string) (time.Time, time.Time, error) {
	startAt, err := time.Parse(time.RFC3339, strings.TrimSpace(startRaw))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endAt, err := time.Parse(time.RFC3339, strings.TrimSpace(endRaw))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startAt.UTC(), endAt.UTC(), nil
}

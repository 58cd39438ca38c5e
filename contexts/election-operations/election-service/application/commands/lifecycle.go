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

// InitElectionCommand carries a fully specified election configuration,
// including its positions and candidates, keyed by pre-allocated IDs.
type InitElectionCommand struct {
	Config entities.ElectionConfig
	// Status may be empty or draft; anything else is rejected so a caller
	// cannot skip activation validation.
	Status entities.ElectionStatus
}

// LifecycleUseCase owns the election state machine: configuration validation,
// creation in draft, and audited status transitions.
type LifecycleUseCase struct {
	Elections ports.ElectionRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// InitElection validates and persists a new election in draft. It is
// rejected with ErrAlreadyExists when the election ID is already taken;
// nothing is persisted on any validation failure.
func (uc LifecycleUseCase) InitElection(ctx context.Context, cmd InitElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	election := cmd.Config.Election
	logger.Info("election init processing started",
		"event", "election_init_started",
		"module", "election-operations/election-service",
		"layer", "application",
		"election_id", strings.TrimSpace(election.ElectionID),
		"election_type", string(election.Type),
	)

	if cmd.Status != "" && cmd.Status != entities.ElectionStatusDraft {
		logger.Warn("election init rejected non-draft initial status",
			"event", "election_init_invalid_status",
			"module", "election-operations/election-service",
			"layer", "application",
			"election_id", strings.TrimSpace(election.ElectionID),
			"requested_status", string(cmd.Status),
		)
		return entities.Election{}, domainerrors.ErrInvalidConfig
	}
	if strings.TrimSpace(election.ElectionID) == "" || !cmd.Config.ValidateConfig() {
		logger.Warn("election init validation failed",
			"event", "election_init_validation_failed",
			"module", "election-operations/election-service",
			"layer", "application",
			"election_id", strings.TrimSpace(election.ElectionID),
		)
		return entities.Election{}, domainerrors.ErrInvalidConfig
	}
	now := uc.now()
	election.Status = entities.ElectionStatusDraft
	election.CreatedAt = now
	election.UpdatedAt = now
	election.PositionIDs = make([]string, 0, len(cmd.Config.Positions))
	for _, position := range cmd.Config.Positions {
		election.PositionIDs = append(election.PositionIDs, position.PositionID)
	}

	// Plain insert: concurrent initializations of the same ID lose the race
	// with ErrAlreadyExists instead of overwriting each other.
	if err := uc.Elections.CreateElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	for _, position := range cmd.Config.Positions {
		position.CreatedAt = now
		if err := uc.Elections.SavePosition(ctx, position); err != nil {
			return entities.Election{}, err
		}
	}
	for _, candidate := range cmd.Config.Candidates {
		candidate.CreatedAt = now
		if err := uc.Elections.SaveCandidate(ctx, candidate); err != nil {
			return entities.Election{}, err
		}
	}
	if err := uc.appendTransition(ctx, election.ElectionID, "", entities.ElectionStatusDraft, election.CreatedBy, now); err != nil {
		return entities.Election{}, err
	}
	if err := uc.appendElectionEvent(ctx, "election.created", election, now); err != nil {
		return entities.Election{}, err
	}

	logger.Info("election created",
		"event", "election_created",
		"module", "election-operations/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"position_count", len(election.PositionIDs),
	)
	return election, nil
}

// UpdateElectionStatus applies one edge of the lifecycle state machine.
// Activation revalidates configuration completeness against the store, not
// against whatever the caller last saw.
func (uc LifecycleUseCase) UpdateElectionStatus(
	ctx context.Context,
	electionID string,
	newStatus entities.ElectionStatus,
	actorID string,
) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("election status transition started",
		"event", "election_transition_started",
		"module", "election-operations/election-service",
		"layer", "application",
		"election_id", strings.TrimSpace(electionID),
		"to_status", string(newStatus),
	)
	if !entities.IsSupportedElectionStatus(newStatus) {
		return entities.Election{}, domainerrors.ErrIllegalTransition
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, err
	}
	if !election.CanTransitionTo(newStatus) {
		logger.Warn("election status transition rejected",
			"event", "election_transition_rejected",
			"module", "election-operations/election-service",
			"layer", "application",
			"election_id", election.ElectionID,
			"from_status", string(election.Status),
			"to_status", string(newStatus),
		)
		return entities.Election{}, domainerrors.ErrIllegalTransition
	}

	now := uc.now()
	if newStatus == entities.ElectionStatusActive {
		if err := uc.revalidate(ctx, election); err != nil {
			return entities.Election{}, err
		}
		activatedAt := now
		election.ActivatedAt = &activatedAt
	}
	if newStatus == entities.ElectionStatusCompleted || newStatus == entities.ElectionStatusCancelled {
		closedAt := now
		election.ClosedAt = &closedAt
	}

	fromStatus := election.Status
	election.Status = newStatus
	election.UpdatedAt = now
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	if err := uc.appendTransition(ctx, election.ElectionID, fromStatus, newStatus, actorID, now); err != nil {
		return entities.Election{}, err
	}
	if err := uc.appendElectionEvent(ctx, "election.status_changed", election, now); err != nil {
		return entities.Election{}, err
	}

	logger.Info("election status transitioned",
		"event", "election_transitioned",
		"module", "election-operations/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"from_status", string(fromStatus),
		"to_status", string(newStatus),
	)
	return election, nil
}

// revalidate re-reads positions and candidates from the store. A draft may
// have been persisted valid and edited into an incomplete shape since.
func (uc LifecycleUseCase) revalidate(ctx context.Context, election entities.Election) error {
	positions, err := uc.Elections.ListPositionsByElection(ctx, election.ElectionID)
	if err != nil {
		return err
	}
	candidates, err := uc.Elections.ListCandidatesByElection(ctx, election.ElectionID)
	if err != nil {
		return err
	}
	config := entities.ElectionConfig{
		Election:   election,
		Positions:  positions,
		Candidates: candidates,
	}
	if !config.ValidateConfig() {
		return domainerrors.ErrInvalidConfig
	}
	return nil
}

func (uc LifecycleUseCase) appendTransition(
	ctx context.Context,
	electionID string,
	from entities.ElectionStatus,
	to entities.ElectionStatus,
	actorID string,
	occurredAt time.Time,
) error {
	transitionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return uc.Elections.AppendStatusTransition(ctx, entities.StatusTransition{
		TransitionID: transitionID,
		ElectionID:   electionID,
		FromStatus:   from,
		ToStatus:     to,
		ActorID:      strings.TrimSpace(actorID),
		OccurredAt:   occurredAt,
	})
}

func (uc LifecycleUseCase) appendElectionEvent(
	ctx context.Context,
	eventType string,
	election entities.Election,
	occurredAt time.Time,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	// Every lifecycle event carries the full ballot shape so consumers can
	// build their position projections from the event stream alone.
	positions, err := uc.Elections.ListPositionsByElection(ctx, election.ElectionID)
	if err != nil {
		return err
	}
	candidates, err := uc.Elections.ListCandidatesByElection(ctx, election.ElectionID)
	if err != nil {
		return err
	}
	candidatesByPosition := make(map[string][]string, len(positions))
	for _, candidate := range candidates {
		candidatesByPosition[candidate.PositionID] = append(candidatesByPosition[candidate.PositionID], candidate.CandidateID)
	}
	ballot := make([]map[string]any, 0, len(positions))
	for _, position := range positions {
		ballot = append(ballot, map[string]any{
			"position_id":   position.PositionID,
			"candidate_ids": candidatesByPosition[position.PositionID],
		})
	}
	envelope, err := newElectionEnvelope(eventID, eventType, election.ElectionID, occurredAt, map[string]any{
		"election_id":   election.ElectionID,
		"election_type": string(election.Type),
		"status":        string(election.Status),
		"start_at":      election.StartAt.UTC().Format(time.RFC3339),
		"end_at":        election.EndAt.UTC().Format(time.RFC3339),
		"positions":     ballot,
		"occurred_at":   occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc LifecycleUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/application"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/ports"
)

// SetOverrideCommand carries an administrator's result override for one
// position. At least one of ForcedWinnerID or VoteLimit must be set.
type SetOverrideCommand struct {
	PositionID            string
	ForcedWinnerID        *string
	CollectRemainingVotes bool
	EligibleTurnout       int
	VoteLimit             *int
	SetBy                 string
}

// OverrideUseCase validates and persists result overrides. Overrides never
// touch the vote ledger; the results query resolves them at read time.
type OverrideUseCase struct {
	Directory ports.CandidateDirectory
	Overrides ports.OverrideRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc OverrideUseCase) SetOverride(ctx context.Context, cmd SetOverrideCommand) (entities.ResultOverride, error) {
	logger := application.ResolveLogger(uc.Logger)
	positionID := strings.TrimSpace(cmd.PositionID)
	logger.Info("result override set started",
		"event", "tally_override_set_started",
		"module", "election-operations/tally-service",
		"layer", "application",
		"position_id", positionID,
	)

	if cmd.ForcedWinnerID == nil && cmd.VoteLimit == nil {
		return entities.ResultOverride{}, domainerrors.ErrInvalidOverride
	}
	if cmd.VoteLimit != nil && *cmd.VoteLimit < 1 {
		return entities.ResultOverride{}, domainerrors.ErrInvalidOverride
	}
	if cmd.CollectRemainingVotes && cmd.ForcedWinnerID == nil {
		return entities.ResultOverride{}, domainerrors.ErrInvalidOverride
	}
	if cmd.CollectRemainingVotes && cmd.EligibleTurnout < 0 {
		return entities.ResultOverride{}, domainerrors.ErrInvalidOverride
	}

	position, err := uc.Directory.GetPosition(ctx, positionID)
	if err != nil {
		return entities.ResultOverride{}, err
	}
	if cmd.ForcedWinnerID != nil {
		winnerID := strings.TrimSpace(*cmd.ForcedWinnerID)
		if !positionHasCandidate(position, winnerID) {
			logger.Warn("result override winner rejected",
				"event", "tally_override_winner_rejected",
				"module", "election-operations/tally-service",
				"layer", "application",
				"position_id", positionID,
				"candidate_id", winnerID,
			)
			return entities.ResultOverride{}, domainerrors.ErrCandidateNotFound
		}
		cmd.ForcedWinnerID = &winnerID
	}

	override := entities.ResultOverride{
		PositionID:            positionID,
		ForcedWinnerID:        cmd.ForcedWinnerID,
		CollectRemainingVotes: cmd.CollectRemainingVotes,
		EligibleTurnout:       cmd.EligibleTurnout,
		VoteLimit:             cmd.VoteLimit,
		SetBy:                 strings.TrimSpace(cmd.SetBy),
		UpdatedAt:             uc.now(),
	}
	if err := uc.Overrides.SaveOverride(ctx, override); err != nil {
		return entities.ResultOverride{}, err
	}
	logger.Info("result override set",
		"event", "tally_override_set",
		"module", "election-operations/tally-service",
		"layer", "application",
		"position_id", positionID,
		"collect_remaining", cmd.CollectRemainingVotes,
	)
	return override, nil
}

func (uc OverrideUseCase) ClearOverride(ctx context.Context, positionID string) error {
	logger := application.ResolveLogger(uc.Logger)
	positionID = strings.TrimSpace(positionID)
	if _, err := uc.Directory.GetPosition(ctx, positionID); err != nil {
		return err
	}
	if err := uc.Overrides.DeleteOverride(ctx, positionID); err != nil {
		return err
	}
	logger.Info("result override cleared",
		"event", "tally_override_cleared",
		"module", "election-operations/tally-service",
		"layer", "application",
		"position_id", positionID,
	)
	return nil
}

func (uc OverrideUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func positionHasCandidate(position entities.PositionSummary, candidateID string) bool {
	for _, candidate := range position.Candidates {
		if candidate.CandidateID == candidateID {
			return true
		}
	}
	return false
}

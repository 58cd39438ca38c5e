package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
)

const maxAppendAttempts = 3

// CastVoteCommand is the write-model input for vote casting. VoterHash is the
// caller-supplied anonymized identity; the raw identity never reaches this
// service.
type CastVoteCommand struct {
	ElectionID  string
	PositionID  string
	CandidateID string
	VoterHash   string
}

// CastVoteUseCase enforces the casting rules: the election must be active and
// inside its voting window, the candidate must stand for the position, and a
// voter hash gets exactly one vote per position.
type CastVoteUseCase struct {
	Votes     ports.VoteRepository
	Directory ports.ElectionDirectory
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CastVoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("vote cast processing started",
		"event", "voting_cast_started",
		"module", "election-operations/voting-engine",
		"layer", "application",
		"election_id", strings.TrimSpace(cmd.ElectionID),
		"position_id", strings.TrimSpace(cmd.PositionID),
	)

	electionID := strings.TrimSpace(cmd.ElectionID)
	positionID := strings.TrimSpace(cmd.PositionID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	voterHash := strings.ToLower(strings.TrimSpace(cmd.VoterHash))
	if electionID == "" || positionID == "" || candidateID == "" {
		logger.Warn("vote cast validation failed",
			"event", "voting_cast_validation_failed",
			"module", "election-operations/voting-engine",
			"layer", "application",
			"election_id", electionID,
			"position_id", positionID,
		)
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}
	if !isValidVoterHash(voterHash) {
		logger.Warn("vote cast voter hash rejected",
			"event", "voting_cast_voter_hash_invalid",
			"module", "election-operations/voting-engine",
			"layer", "application",
			"election_id", electionID,
		)
		return entities.Vote{}, domainerrors.ErrInvalidVoterHash
	}

	election, err := uc.Directory.GetElectionProjection(ctx, electionID)
	if err != nil {
		return entities.Vote{}, err
	}
	now := uc.now()
	if election.Status != "active" {
		logger.Warn("vote cast rejected on election status",
			"event", "voting_cast_election_inactive",
			"module", "election-operations/voting-engine",
			"layer", "application",
			"election_id", electionID,
			"status", election.Status,
		)
		return entities.Vote{}, domainerrors.ErrElectionNotActive
	}
	if now.Before(election.StartAt) || !now.Before(election.EndAt) {
		logger.Warn("vote cast rejected outside window",
			"event", "voting_cast_outside_window",
			"module", "election-operations/voting-engine",
			"layer", "application",
			"election_id", electionID,
		)
		return entities.Vote{}, domainerrors.ErrOutsideVotingWindow
	}

	position, err := uc.Directory.GetPositionProjection(ctx, positionID)
	if err != nil {
		return entities.Vote{}, err
	}
	if position.ElectionID != electionID {
		return entities.Vote{}, domainerrors.ErrPositionNotFound
	}
	if !position.HasCandidate(candidateID) {
		logger.Warn("vote cast candidate rejected",
			"event", "voting_cast_candidate_rejected",
			"module", "election-operations/voting-engine",
			"layer", "application",
			"election_id", electionID,
			"position_id", positionID,
			"candidate_id", candidateID,
		)
		return entities.Vote{}, domainerrors.ErrCandidateNotFound
	}

	// Fast-path duplicate check before paying for the write. The append below
	// still enforces the same rule atomically.
	record, found, err := uc.Votes.GetVoterRecord(ctx, voterHash)
	if err != nil {
		return entities.Vote{}, err
	}
	if found && record.HasVoted(positionID) {
		logger.Warn("vote cast duplicate rejected",
			"event", "voting_cast_duplicate",
			"module", "election-operations/voting-engine",
			"layer", "application",
			"election_id", electionID,
			"position_id", positionID,
		)
		return entities.Vote{}, domainerrors.ErrDuplicateVote
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	vote := entities.Vote{
		VoteID:      voteID,
		ElectionID:  electionID,
		PositionID:  positionID,
		CandidateID: candidateID,
		VoterHash:   voterHash,
		CastAt:      now,
	}

	// The repository re-checks the duplicate rule atomically with the append,
	// so a stale fast-path read above cannot let a second vote through.
	for attempt := 1; ; attempt++ {
		err = uc.Votes.AppendVote(ctx, vote)
		if err == nil {
			break
		}
		if errors.Is(err, domainerrors.ErrContention) && attempt < maxAppendAttempts {
			logger.Warn("vote append contention; retrying",
				"event", "voting_cast_contention_retry",
				"module", "election-operations/voting-engine",
				"layer", "application",
				"election_id", electionID,
				"position_id", positionID,
				"attempt", attempt,
			)
			continue
		}
		return entities.Vote{}, err
	}

	if err := uc.appendVoteEvent(ctx, "vote.cast", vote, now); err != nil {
		return entities.Vote{}, err
	}

	logger.Info("vote cast accepted",
		"event", "voting_cast_accepted",
		"module", "election-operations/voting-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"election_id", vote.ElectionID,
		"position_id", vote.PositionID,
		"candidate_id", vote.CandidateID,
	)
	return vote, nil
}

func (uc CastVoteUseCase) appendVoteEvent(
	ctx context.Context,
	eventType string,
	vote entities.Vote,
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
	// The voter hash is deliberately absent from event payloads; downstream
	// consumers only need ballot coordinates.
	envelope, err := newVotingEnvelope(eventID, eventType, vote.ElectionID, occurredAt, map[string]any{
		"vote_id":      vote.VoteID,
		"election_id":  vote.ElectionID,
		"position_id":  vote.PositionID,
		"candidate_id": vote.CandidateID,
		"cast_at":      vote.CastAt.UTC().Format(time.RFC3339),
		"occurred_at":  occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc CastVoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// isValidVoterHash accepts lowercase hex digests between 16 and 128 chars,
// covering truncated through sha512-sized hashes.
func isValidVoterHash(value string) bool {
	if len(value) < 16 || len(value) > 128 {
		return false
	}
	for _, char := range value {
		switch {
		case char >= '0' && char <= '9':
		case char >= 'a' && char <= 'f':
		default:
			return false
		}
	}
	return true
}

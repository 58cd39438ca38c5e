package workers

import (
	"context"
	"log/slog"
	"time"

	application "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
)

// VoteVerifier sweeps unverified ledger entries, marks them verified, and
// emits vote.verified so downstream tallies can distinguish settled votes.
type VoteVerifier struct {
	Votes     ports.VoteRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce verifies a bounded batch of pending votes. Marking happens before
// event emission so a crash re-emits at most, never re-verifies.
func (w VoteVerifier) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := w.Votes.ListUnverifiedVotes(ctx, limit)
	if err != nil {
		logger.Error("vote verifier list failed",
			"event", "voting_verifier_list_failed",
			"module", "election-operations/voting-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := w.now()
	for _, vote := range pending {
		if err := w.Votes.MarkVoteVerified(ctx, vote.VoteID, now); err != nil {
			logger.Error("vote verifier mark failed",
				"event", "voting_verifier_mark_failed",
				"module", "election-operations/voting-engine",
				"layer", "worker",
				"vote_id", vote.VoteID,
				"error", err.Error(),
			)
			return err
		}
		if w.Outbox == nil {
			continue
		}
		eventID, err := w.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newVotingEnvelope(
			eventID,
			"vote.verified",
			vote.ElectionID,
			"election_id",
			now,
			map[string]any{
				"vote_id":      vote.VoteID,
				"election_id":  vote.ElectionID,
				"position_id":  vote.PositionID,
				"candidate_id": vote.CandidateID,
				"verified_at":  now.Format(time.RFC3339),
			},
		)
		if err != nil {
			return err
		}
		if err := w.Outbox.AppendOutbox(ctx, envelope); err != nil {
			logger.Error("vote verifier outbox append failed",
				"event", "voting_verifier_outbox_failed",
				"module", "election-operations/voting-engine",
				"layer", "worker",
				"vote_id", vote.VoteID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("vote verifier cycle completed",
		"event", "voting_verifier_completed",
		"module", "election-operations/voting-engine",
		"layer", "worker",
		"verified_count", len(pending),
	)
	return nil
}

func (w VoteVerifier) now() time.Time {
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}
	return now
}

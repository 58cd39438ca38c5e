package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/errors"
)

func TestAppendVoteRechecksDuplicateUnderLock(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	first := entities.Vote{
		VoteID:      "vote-1",
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-1",
		VoterHash:   "aaaa1111bbbb2222",
		CastAt:      now,
	}
	if err := store.AppendVote(context.Background(), first); err != nil {
		t.Fatalf("first append failed: %v", err)
	}

	// A second append for the same voter and position fails even though the
	// caller's fast-path read happened before the first append landed.
	second := first
	second.VoteID = "vote-2"
	second.CandidateID = "candidate-2"
	if err := store.AppendVote(context.Background(), second); !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	// Reusing a vote ID for a different position is a conflict, not a duplicate.
	reused := first
	reused.PositionID = "position-2"
	if err := store.AppendVote(context.Background(), reused); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected vote id conflict, got %v", err)
	}
}

func TestAppendVoteMergesRecordAcrossPositions(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	// Two casts by the same voter on different positions, racing so neither
	// append sees the other in its pre-commit read. The stored record must end
	// up covering both positions.
	var wg sync.WaitGroup
	appendErrs := make([]error, 2)
	for i, positionID := range []string{"position-1", "position-2"} {
		wg.Add(1)
		go func(slot int, positionID string) {
			defer wg.Done()
			appendErrs[slot] = store.AppendVote(context.Background(), entities.Vote{
				VoteID:      "vote-" + positionID,
				ElectionID:  "election-1",
				PositionID:  positionID,
				CandidateID: "candidate-1",
				VoterHash:   "aaaa1111bbbb2222",
				CastAt:      now,
			})
		}(i, positionID)
	}
	wg.Wait()
	for slot, err := range appendErrs {
		if err != nil {
			t.Fatalf("append %d failed: %v", slot, err)
		}
	}

	record, found, err := store.GetVoterRecord(context.Background(), "aaaa1111bbbb2222")
	if err != nil || !found {
		t.Fatalf("load record failed: found=%v err=%v", found, err)
	}
	if record.TotalVotes != 2 || len(record.VotedPositions) != 2 {
		t.Fatalf("expected record to cover both positions, got %+v", record)
	}
	for _, positionID := range []string{"position-1", "position-2"} {
		if record.VotedPositions[positionID] != "vote-"+positionID {
			t.Fatalf("expected %s in record, got %+v", positionID, record.VotedPositions)
		}
	}

	// With both positions retained, a repeat on either one is a duplicate.
	repeat := entities.Vote{
		VoteID:      "vote-3",
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-2",
		VoterHash:   "aaaa1111bbbb2222",
		CastAt:      now,
	}
	if err := store.AppendVote(context.Background(), repeat); !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate rejection after merge, got %v", err)
	}
	votes, err := store.ListVotesByElection(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(votes))
	}
}

func TestVoterRecordIsCopiedOnRead(t *testing.T) {
	store := NewStore(nil)
	now := time.Now().UTC()
	vote := entities.Vote{
		VoteID:      "vote-1",
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-1",
		VoterHash:   "cccc3333dddd4444",
		CastAt:      now,
	}
	if err := store.AppendVote(context.Background(), vote); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	loaded, found, err := store.GetVoterRecord(context.Background(), "cccc3333dddd4444")
	if err != nil || !found {
		t.Fatalf("load record failed: found=%v err=%v", found, err)
	}
	loaded.VotedPositions["position-99"] = "vote-99"

	reloaded, _, err := store.GetVoterRecord(context.Background(), "cccc3333dddd4444")
	if err != nil {
		t.Fatalf("reload record failed: %v", err)
	}
	if _, mutated := reloaded.VotedPositions["position-99"]; mutated {
		t.Fatalf("expected stored record isolated from caller mutation")
	}
}

func TestReserveEventHonorsExpiry(t *testing.T) {
	store := NewStore(nil)
	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return base })

	already, err := store.ReserveEvent(context.Background(), "event-1", "hash-1", base.Add(time.Hour))
	if err != nil || already {
		t.Fatalf("first reserve should succeed fresh: already=%v err=%v", already, err)
	}
	already, err = store.ReserveEvent(context.Background(), "event-1", "hash-1", base.Add(time.Hour))
	if err != nil || !already {
		t.Fatalf("second reserve should report already processed: already=%v err=%v", already, err)
	}

	// Once the store's clock passes the reservation expiry, the event ID is
	// reclaimable for reprocessing.
	store.SetNow(func() time.Time { return base.Add(2 * time.Hour) })
	already, err = store.ReserveEvent(context.Background(), "event-1", "hash-1", base.Add(3*time.Hour))
	if err != nil || already {
		t.Fatalf("expected expired reservation to be reclaimable: already=%v err=%v", already, err)
	}
}

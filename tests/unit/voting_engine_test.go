package unit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	votingengine "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/errors"
	httptransport "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/transport/http"
)

func seedActiveBallot(module votingengine.Module) {
	now := time.Now().UTC()
	module.Store.SetElectionProjection(entities.ElectionProjection{
		ElectionID: "election-1",
		Status:     "active",
		StartAt:    now.Add(-time.Hour),
		EndAt:      now.Add(time.Hour),
		UpdatedAt:  now,
	})
	module.Store.SetPositionProjection(entities.PositionProjection{
		PositionID:   "position-1",
		ElectionID:   "election-1",
		CandidateIDs: []string{"candidate-1", "candidate-2"},
	})
}

func TestCastVoteHappyPathAndVerification(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil, nil, nil)
	seedActiveBallot(module)
	voterHash := strings.Repeat("ab", 16)

	vote, err := module.Handler.CastVoteHandler(context.Background(), voterHash, httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-1",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if vote.VoteID == "" {
		t.Fatalf("expected vote id to be assigned")
	}
	if vote.Verified {
		t.Fatalf("expected freshly cast vote to be unverified")
	}

	verification, err := module.Handler.VerifyVoteHandler(context.Background(), vote.VoteID)
	if err != nil {
		t.Fatalf("verify vote failed: %v", err)
	}
	if !verification.Found || verification.Vote == nil {
		t.Fatalf("expected cast vote to be found in ledger")
	}
	if verification.Vote.CandidateID != "candidate-1" {
		t.Fatalf("unexpected candidate on verified vote: %s", verification.Vote.CandidateID)
	}

	missing, err := module.Handler.VerifyVoteHandler(context.Background(), "vote-that-never-was")
	if err != nil {
		t.Fatalf("verify missing vote failed: %v", err)
	}
	if missing.Found {
		t.Fatalf("expected unknown vote id to report not found")
	}

	record, err := module.Handler.VoterRecordHandler(context.Background(), voterHash)
	if err != nil {
		t.Fatalf("voter record failed: %v", err)
	}
	if record.TotalVotes != 1 {
		t.Fatalf("expected 1 vote on record, got %d", record.TotalVotes)
	}
	if record.VotedPositions["position-1"] != vote.VoteID {
		t.Fatalf("expected record to map position-1 to %s", vote.VoteID)
	}
}

func TestCastVoteDuplicateRejected(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil, nil, nil)
	seedActiveBallot(module)
	voterHash := strings.Repeat("cd", 16)

	if _, err := module.Handler.CastVoteHandler(context.Background(), voterHash, httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-1",
	}); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}

	// Voting for a different candidate on the same position is still a
	// duplicate; the rule is one vote per voter per position.
	_, err := module.Handler.CastVoteHandler(context.Background(), voterHash, httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-2",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote rejection, got %v", err)
	}
}

func TestCastVoteGuards(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil, nil, nil)
	now := time.Now().UTC()
	module.Store.SetElectionProjection(entities.ElectionProjection{
		ElectionID: "election-draft",
		Status:     "draft",
		StartAt:    now.Add(-time.Hour),
		EndAt:      now.Add(time.Hour),
	})
	module.Store.SetElectionProjection(entities.ElectionProjection{
		ElectionID: "election-early",
		Status:     "active",
		StartAt:    now.Add(time.Hour),
		EndAt:      now.Add(2 * time.Hour),
	})
	module.Store.SetElectionProjection(entities.ElectionProjection{
		ElectionID: "election-1",
		Status:     "active",
		StartAt:    now.Add(-time.Hour),
		EndAt:      now.Add(time.Hour),
	})
	module.Store.SetPositionProjection(entities.PositionProjection{
		PositionID:   "position-1",
		ElectionID:   "election-1",
		CandidateIDs: []string{"candidate-1"},
	})
	module.Store.SetPositionProjection(entities.PositionProjection{
		PositionID:   "position-other",
		ElectionID:   "election-other",
		CandidateIDs: []string{"candidate-9"},
	})
	voterHash := strings.Repeat("ef", 16)

	cases := []struct {
		name      string
		hash      string
		req       httptransport.CastVoteRequest
		expectErr error
	}{
		{
			name:      "invalid voter hash",
			hash:      "not-hex!",
			req:       httptransport.CastVoteRequest{ElectionID: "election-1", PositionID: "position-1", CandidateID: "candidate-1"},
			expectErr: domainerrors.ErrInvalidVoterHash,
		},
		{
			name:      "blank ballot coordinates",
			hash:      voterHash,
			req:       httptransport.CastVoteRequest{ElectionID: "election-1", PositionID: " ", CandidateID: "candidate-1"},
			expectErr: domainerrors.ErrInvalidVoteInput,
		},
		{
			name:      "unknown election",
			hash:      voterHash,
			req:       httptransport.CastVoteRequest{ElectionID: "election-ghost", PositionID: "position-1", CandidateID: "candidate-1"},
			expectErr: domainerrors.ErrElectionNotFound,
		},
		{
			name:      "election not active",
			hash:      voterHash,
			req:       httptransport.CastVoteRequest{ElectionID: "election-draft", PositionID: "position-1", CandidateID: "candidate-1"},
			expectErr: domainerrors.ErrElectionNotActive,
		},
		{
			name:      "before voting window",
			hash:      voterHash,
			req:       httptransport.CastVoteRequest{ElectionID: "election-early", PositionID: "position-1", CandidateID: "candidate-1"},
			expectErr: domainerrors.ErrOutsideVotingWindow,
		},
		{
			name:      "position from another election",
			hash:      voterHash,
			req:       httptransport.CastVoteRequest{ElectionID: "election-1", PositionID: "position-other", CandidateID: "candidate-9"},
			expectErr: domainerrors.ErrPositionNotFound,
		},
		{
			name:      "candidate not on ballot",
			hash:      voterHash,
			req:       httptransport.CastVoteRequest{ElectionID: "election-1", PositionID: "position-1", CandidateID: "candidate-99"},
			expectErr: domainerrors.ErrCandidateNotFound,
		},
	}
	for _, testCase := range cases {
		_, err := module.Handler.CastVoteHandler(context.Background(), testCase.hash, testCase.req)
		if !errors.Is(err, testCase.expectErr) {
			t.Fatalf("%s: expected %v, got %v", testCase.name, testCase.expectErr, err)
		}
	}
}

func TestCastVoteUppercaseHashNormalized(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil, nil, nil)
	seedActiveBallot(module)

	upper := strings.Repeat("AB", 16)
	if _, err := module.Handler.CastVoteHandler(context.Background(), upper, httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-1",
	}); err != nil {
		t.Fatalf("cast with uppercase hash failed: %v", err)
	}

	// The lowercase form is the same voter.
	_, err := module.Handler.CastVoteHandler(context.Background(), strings.ToLower(upper), httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-2",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate after case normalization, got %v", err)
	}
}

func TestCastVoteConcurrentDistinctVoters(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil, nil, nil)
	seedActiveBallot(module)

	const voters = 50
	hexDigits := "0123456789abcdef"
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		voterHash := strings.Repeat(string(hexDigits[i%16]), 14) + strings.Repeat(string(hexDigits[i/16]), 14)
		wg.Add(1)
		go func(hash string) {
			defer wg.Done()
			_, err := module.Handler.CastVoteHandler(context.Background(), hash, httptransport.CastVoteRequest{
				ElectionID:  "election-1",
				PositionID:  "position-1",
				CandidateID: "candidate-1",
			})
			errs <- err
		}(voterHash)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent cast failed: %v", err)
		}
	}

	votes, err := module.Store.ListVotesByElection(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != voters {
		t.Fatalf("expected %d ledger entries, got %d", voters, len(votes))
	}
}

func TestCastVoteEventOmitsVoterHash(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil, nil, nil)
	seedActiveBallot(module)

	vote, err := module.Handler.CastVoteHandler(context.Background(), strings.Repeat("12", 16), httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "position-1",
		CandidateID: "candidate-2",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}

	outbox, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(outbox) != 1 {
		t.Fatalf("expected 1 outbox message, got %d", len(outbox))
	}
	var envelope struct {
		EventType    string          `json:"event_type"`
		PartitionKey string          `json:"partition_key"`
		Data         json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(outbox[0].Payload, &envelope); err != nil {
		t.Fatalf("decode outbox envelope failed: %v", err)
	}
	if envelope.EventType != "vote.cast" {
		t.Fatalf("expected vote.cast event, got %s", envelope.EventType)
	}
	if envelope.PartitionKey != "election-1" {
		t.Fatalf("expected election partition key, got %s", envelope.PartitionKey)
	}
	var payload map[string]any
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode event payload failed: %v", err)
	}
	if _, leaked := payload["voter_hash"]; leaked {
		t.Fatalf("vote.cast payload must not carry the voter hash")
	}
	if payload["vote_id"] != vote.VoteID {
		t.Fatalf("expected payload vote_id %s, got %v", vote.VoteID, payload["vote_id"])
	}
}

package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	electionservice "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/errors"
	httptransport "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/transport/http"
)

func validCreateElectionRequest() httptransport.CreateElectionRequest {
	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(24 * time.Hour)
	return httptransport.CreateElectionRequest{
		Title:   "National Delegates 2026",
		Owner:   "chairperson-1",
		Type:    "national",
		StartAt: start.Format(time.RFC3339),
		EndAt:   end.Format(time.RFC3339),
		Positions: []httptransport.PositionInput{
			{
				Title:            "Chairperson",
				MaxVotesPerVoter: 1,
				Candidates: []httptransport.CandidateInput{
					{Name: "Alice Wanjiru"},
					{Name: "Brian Otieno"},
				},
			},
		},
	}
}

func TestElectionCreateDraftAndLifecycleTransitions(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil, nil)

	created, err := module.Handler.CreateElectionHandler(context.Background(), validCreateElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if created.Status != "draft" {
		t.Fatalf("expected draft status after creation, got %s", created.Status)
	}
	if len(created.PositionIDs) != 1 {
		t.Fatalf("expected 1 position id, got %d", len(created.PositionIDs))
	}

	activated, err := module.Handler.UpdateElectionStatusHandler(context.Background(), created.ElectionID, httptransport.UpdateElectionStatusRequest{
		Status:  "active",
		ActorID: "chairperson-1",
	})
	if err != nil {
		t.Fatalf("activate election failed: %v", err)
	}
	if activated.Status != "active" {
		t.Fatalf("expected active status, got %s", activated.Status)
	}
	if activated.ActivatedAt == nil {
		t.Fatalf("expected activated_at to be set on activation")
	}

	completed, err := module.Handler.UpdateElectionStatusHandler(context.Background(), created.ElectionID, httptransport.UpdateElectionStatusRequest{
		Status:  "completed",
		ActorID: "chairperson-1",
	})
	if err != nil {
		t.Fatalf("complete election failed: %v", err)
	}
	if completed.ClosedAt == nil {
		t.Fatalf("expected closed_at to be set on completion")
	}

	_, err = module.Handler.UpdateElectionStatusHandler(context.Background(), created.ElectionID, httptransport.UpdateElectionStatusRequest{
		Status:  "active",
		ActorID: "chairperson-1",
	})
	if !errors.Is(err, domainerrors.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition from completed, got %v", err)
	}

	transitions, err := module.Handler.StatusTransitionsHandler(context.Background(), created.ElectionID)
	if err != nil {
		t.Fatalf("list transitions failed: %v", err)
	}
	if len(transitions.Items) != 3 {
		t.Fatalf("expected 3 recorded transitions, got %d", len(transitions.Items))
	}
	if transitions.Items[0].FromStatus != "" || transitions.Items[0].ToStatus != "draft" {
		t.Fatalf("expected initial transition into draft, got %+v", transitions.Items[0])
	}
}

func TestElectionCreateValidationFailures(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil, nil)

	cases := map[string]func(*httptransport.CreateElectionRequest){
		"missing title": func(req *httptransport.CreateElectionRequest) {
			req.Title = "  "
		},
		"missing owner": func(req *httptransport.CreateElectionRequest) {
			req.Owner = ""
		},
		"unsupported type": func(req *httptransport.CreateElectionRequest) {
			req.Type = "regional"
		},
		"branch type without scope": func(req *httptransport.CreateElectionRequest) {
			req.Type = "branch"
			req.BranchScope = nil
		},
		"national type with scope": func(req *httptransport.CreateElectionRequest) {
			scope := "nairobi"
			req.BranchScope = &scope
		},
		"end before start": func(req *httptransport.CreateElectionRequest) {
			req.EndAt = req.StartAt
		},
		"no positions": func(req *httptransport.CreateElectionRequest) {
			req.Positions = nil
		},
		"position without candidates": func(req *httptransport.CreateElectionRequest) {
			req.Positions[0].Candidates = nil
		},
		"zero max votes": func(req *httptransport.CreateElectionRequest) {
			req.Positions[0].MaxVotesPerVoter = 0
		},
		"unparseable window": func(req *httptransport.CreateElectionRequest) {
			req.StartAt = "next tuesday"
		},
	}
	for name, mutate := range cases {
		req := validCreateElectionRequest()
		mutate(&req)
		if _, err := module.Handler.CreateElectionHandler(context.Background(), req); !errors.Is(err, domainerrors.ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config, got %v", name, err)
		}
	}
}

func TestElectionActivationRevalidatesStoredConfig(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil, nil)

	created, err := module.Handler.CreateElectionHandler(context.Background(), validCreateElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}

	// Blank out the stored position title after creation; activation must
	// re-read the store and reject the now-incomplete draft.
	position, err := module.Store.GetPosition(context.Background(), created.PositionIDs[0])
	if err != nil {
		t.Fatalf("load position failed: %v", err)
	}
	position.Title = ""
	if err := module.Store.SavePosition(context.Background(), position); err != nil {
		t.Fatalf("save position failed: %v", err)
	}

	_, err = module.Handler.UpdateElectionStatusHandler(context.Background(), created.ElectionID, httptransport.UpdateElectionStatusRequest{
		Status:  "active",
		ActorID: "chairperson-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config on activation revalidation, got %v", err)
	}
}

func TestElectionOutboxCarriesLifecycleEvents(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil, nil)

	created, err := module.Handler.CreateElectionHandler(context.Background(), validCreateElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if _, err := module.Handler.UpdateElectionStatusHandler(context.Background(), created.ElectionID, httptransport.UpdateElectionStatusRequest{
		Status:  "active",
		ActorID: "chairperson-1",
	}); err != nil {
		t.Fatalf("activate election failed: %v", err)
	}

	outbox, err := module.Store.ListPendingOutbox(context.Background(), 20)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	seen := map[string]bool{}
	for _, message := range outbox {
		var envelope struct {
			EventType    string `json:"event_type"`
			PartitionKey string `json:"partition_key"`
			Data         struct {
				ElectionID string `json:"election_id"`
				Status     string `json:"status"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode outbox envelope failed: %v", err)
		}
		seen[envelope.EventType] = true
		if envelope.PartitionKey != created.ElectionID {
			t.Fatalf("expected partition key %s, got %s", created.ElectionID, envelope.PartitionKey)
		}
		if envelope.Data.ElectionID != created.ElectionID {
			t.Fatalf("expected election id in payload, got %s", envelope.Data.ElectionID)
		}
	}
	if !seen["election.created"] || !seen["election.status_changed"] {
		t.Fatalf("expected election.created and election.status_changed in outbox, got %v", seen)
	}
}

func TestElectionAdminRegistry(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil, nil)

	admin, err := module.Handler.AddAdminHandler(context.Background(), httptransport.AddAdminRequest{
		Principal: "secretary-general",
		AddedBy:   "chairperson-1",
	})
	if err != nil {
		t.Fatalf("add admin failed: %v", err)
	}
	if admin.Principal != "secretary-general" {
		t.Fatalf("unexpected admin principal %s", admin.Principal)
	}

	_, err = module.Handler.AddAdminHandler(context.Background(), httptransport.AddAdminRequest{
		Principal: "secretary-general",
		AddedBy:   "chairperson-1",
	})
	if !errors.Is(err, domainerrors.ErrAdminExists) {
		t.Fatalf("expected duplicate admin rejection, got %v", err)
	}

	_, err = module.Handler.AddAdminHandler(context.Background(), httptransport.AddAdminRequest{
		Principal: "   ",
		AddedBy:   "chairperson-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidPrincipal) {
		t.Fatalf("expected invalid principal rejection, got %v", err)
	}

	admins, err := module.Handler.ListAdminsHandler(context.Background())
	if err != nil {
		t.Fatalf("list admins failed: %v", err)
	}
	if len(admins.Items) != 1 {
		t.Fatalf("expected 1 admin, got %d", len(admins.Items))
	}
}

func TestElectionStatsAndRegistryStats(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil, nil)

	created, err := module.Handler.CreateElectionHandler(context.Background(), validCreateElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	scope := "mombasa"
	branchReq := validCreateElectionRequest()
	branchReq.Title = "Mombasa Branch Officials"
	branchReq.Type = "branch"
	branchReq.BranchScope = &scope
	if _, err := module.Handler.CreateElectionHandler(context.Background(), branchReq); err != nil {
		t.Fatalf("create branch election failed: %v", err)
	}

	module.Store.SetVoteProjection("vote-1", created.ElectionID, "aaaa1111bbbb2222")
	module.Store.SetVoteProjection("vote-2", created.ElectionID, "aaaa1111bbbb2222")
	module.Store.SetVoteProjection("vote-3", created.ElectionID, "cccc3333dddd4444")

	stats, err := module.Handler.ElectionStatsHandler(context.Background(), created.ElectionID)
	if err != nil {
		t.Fatalf("election stats failed: %v", err)
	}
	if stats.TotalVotes != 3 {
		t.Fatalf("expected 3 total votes, got %d", stats.TotalVotes)
	}
	if stats.TotalVoters != 2 {
		t.Fatalf("expected 2 distinct voters, got %d", stats.TotalVoters)
	}
	if stats.PositionCount != 1 || stats.CandidateCount != 2 {
		t.Fatalf("unexpected config counts: %+v", stats)
	}

	registry, err := module.Handler.RegistryStatsHandler(context.Background())
	if err != nil {
		t.Fatalf("registry stats failed: %v", err)
	}
	if registry.TotalElections != 2 || registry.DraftElections != 2 {
		t.Fatalf("unexpected registry totals: %+v", registry)
	}
	if registry.NationalElections != 1 || registry.BranchElections != 1 {
		t.Fatalf("unexpected type split: %+v", registry)
	}
}

func TestActiveElectionsListing(t *testing.T) {
	now := time.Now().UTC()
	module := electionservice.NewInMemoryModule([]entities.Election{
		{
			ElectionID: "election-active",
			Title:      "Active One",
			Type:       entities.ElectionTypeNational,
			StartAt:    now.Add(-time.Hour),
			EndAt:      now.Add(time.Hour),
			Status:     entities.ElectionStatusActive,
			CreatedBy:  "chairperson-1",
			CreatedAt:  now.Add(-2 * time.Hour),
			UpdatedAt:  now.Add(-time.Hour),
		},
		{
			ElectionID: "election-draft",
			Title:      "Draft One",
			Type:       entities.ElectionTypeNational,
			StartAt:    now.Add(time.Hour),
			EndAt:      now.Add(2 * time.Hour),
			Status:     entities.ElectionStatusDraft,
			CreatedBy:  "chairperson-1",
			CreatedAt:  now.Add(-2 * time.Hour),
			UpdatedAt:  now.Add(-2 * time.Hour),
		},
	}, nil, nil)

	active, err := module.Handler.ActiveElectionsHandler(context.Background())
	if err != nil {
		t.Fatalf("active elections failed: %v", err)
	}
	if len(active.Items) != 1 || active.Items[0].ElectionID != "election-active" {
		t.Fatalf("expected only the active election, got %+v", active.Items)
	}
}

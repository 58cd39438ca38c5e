package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/errors"
)

func TestCreateElectionRejectsTakenID(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	first := entities.Election{
		ElectionID: "election-1",
		Title:      "National Delegates 2026",
		Type:       entities.ElectionTypeNational,
		StartAt:    now.Add(time.Hour),
		EndAt:      now.Add(25 * time.Hour),
		Status:     entities.ElectionStatusDraft,
		CreatedBy:  "chairperson-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.CreateElection(context.Background(), first); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// A second create on the same ID loses the race outright; the stored row
	// is untouched.
	second := first
	second.Title = "Imposter Election"
	if err := store.CreateElection(context.Background(), second); !errors.Is(err, domainerrors.ErrAlreadyExists) {
		t.Fatalf("expected already-exists rejection, got %v", err)
	}
	stored, err := store.GetElection(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("load election failed: %v", err)
	}
	if stored.Title != first.Title {
		t.Fatalf("expected original title retained, got %s", stored.Title)
	}

	// SaveElection remains the upsert path for mutating the existing row.
	stored.Status = entities.ElectionStatusActive
	if err := store.SaveElection(context.Background(), stored); err != nil {
		t.Fatalf("save election failed: %v", err)
	}
	reloaded, err := store.GetElection(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("reload election failed: %v", err)
	}
	if reloaded.Status != entities.ElectionStatusActive {
		t.Fatalf("expected active status after save, got %s", reloaded.Status)
	}
}

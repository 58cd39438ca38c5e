package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/ports"
)

type Store struct {
	mu sync.RWMutex

	elections map[string]entities.ElectionSummary
	positions map[string]entities.PositionSummary
	ballots   []entities.BallotEntry
	overrides map[string]entities.ResultOverride
}

func NewStore(seed []entities.BallotEntry) *Store {
	return &Store{
		elections: make(map[string]entities.ElectionSummary),
		positions: make(map[string]entities.PositionSummary),
		ballots:   append([]entities.BallotEntry(nil), seed...),
		overrides: make(map[string]entities.ResultOverride),
	}
}

// SetElection seeds the directory read model.
func (s *Store) SetElection(summary entities.ElectionSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(summary.ElectionID)] = summary
}

// SetPosition seeds the ballot shape for a position.
func (s *Store) SetPosition(summary entities.PositionSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[strings.TrimSpace(summary.PositionID)] = summary
}

// AppendBallot seeds one ledger entry.
func (s *Store) AppendBallot(ballot entities.BallotEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballots = append(s.ballots, ballot)
}

func (s *Store) ListVotesByElection(_ context.Context, electionID string) ([]entities.BallotEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.BallotEntry, 0)
	for _, ballot := range s.ballots {
		if ballot.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, ballot)
		}
	}
	return items, nil
}

func (s *Store) ListVotesByPosition(_ context.Context, positionID string) ([]entities.BallotEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.BallotEntry, 0)
	for _, ballot := range s.ballots {
		if ballot.PositionID == strings.TrimSpace(positionID) {
			items = append(items, ballot)
		}
	}
	return items, nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.ElectionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.ElectionSummary{}, domainerrors.ErrElectionNotFound
	}
	return summary, nil
}

func (s *Store) GetPosition(_ context.Context, positionID string) (entities.PositionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.positions[strings.TrimSpace(positionID)]
	if !ok {
		return entities.PositionSummary{}, domainerrors.ErrPositionNotFound
	}
	return summary, nil
}

func (s *Store) ListPositionsByElection(_ context.Context, electionID string) ([]entities.PositionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PositionSummary, 0)
	for _, summary := range s.positions {
		if summary.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, summary)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PositionID < items[j].PositionID
	})
	return items, nil
}

func (s *Store) SaveOverride(_ context.Context, override entities.ResultOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[strings.TrimSpace(override.PositionID)] = override
	return nil
}

func (s *Store) GetOverride(_ context.Context, positionID string) (entities.ResultOverride, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	override, ok := s.overrides[strings.TrimSpace(positionID)]
	return override, ok, nil
}

func (s *Store) DeleteOverride(_ context.Context, positionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(positionID)
	if _, ok := s.overrides[key]; !ok {
		return domainerrors.ErrOverrideNotFound
	}
	delete(s.overrides, key)
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.VoteReader = (*Store)(nil)
var _ ports.CandidateDirectory = (*Store)(nil)
var _ ports.OverrideRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)

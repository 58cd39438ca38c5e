package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type voteProjection struct {
	voteID     string
	electionID string
	voterHash  string
}

type Store struct {
	mu sync.RWMutex

	elections   map[string]entities.Election
	positions   map[string]entities.Position
	candidates  map[string]entities.Candidate
	transitions map[string][]entities.StatusTransition
	admins      map[string]entities.Admin
	outbox      map[string]outboxRecord

	votes map[string]voteProjection
}

func NewStore(seed []entities.Election) *Store {
	elections := make(map[string]entities.Election, len(seed))
	for _, election := range seed {
		elections[election.ElectionID] = election
	}
	return &Store{
		elections:   elections,
		positions:   make(map[string]entities.Position),
		candidates:  make(map[string]entities.Candidate),
		transitions: make(map[string][]entities.StatusTransition),
		admins:      make(map[string]entities.Admin),
		outbox:      make(map[string]outboxRecord),
		votes:       make(map[string]voteProjection),
	}
}

// SetVoteProjection seeds the vote figures read by GetElectionStats. The
// authoritative ledger lives in the voting engine; stats reads only need the
// (vote, election, voter) triple.
func (s *Store) SetVoteProjection(voteID string, electionID string, voterHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[strings.TrimSpace(voteID)] = voteProjection{
		voteID:     strings.TrimSpace(voteID),
		electionID: strings.TrimSpace(electionID),
		voterHash:  strings.TrimSpace(voterHash),
	}
}

func (s *Store) CreateElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(election.ElectionID)
	if _, ok := s.elections[key]; ok {
		return domainerrors.ErrAlreadyExists
	}
	s.elections[key] = election
	return nil
}

func (s *Store) SaveElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(election.ElectionID)] = election
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		items = append(items, election)
	}
	sortElectionsByCreation(items)
	return items, nil
}

func (s *Store) ListElectionsByStatus(_ context.Context, status entities.ElectionStatus) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0)
	for _, election := range s.elections {
		if election.Status == status {
			items = append(items, election)
		}
	}
	sortElectionsByCreation(items)
	return items, nil
}

func (s *Store) SavePosition(_ context.Context, position entities.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[strings.TrimSpace(position.PositionID)] = position
	return nil
}

func (s *Store) GetPosition(_ context.Context, positionID string) (entities.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	position, ok := s.positions[strings.TrimSpace(positionID)]
	if !ok {
		return entities.Position{}, domainerrors.ErrPositionNotFound
	}
	return position, nil
}

func (s *Store) ListPositionsByElection(_ context.Context, electionID string) ([]entities.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Position, 0)
	for _, position := range s.positions {
		if position.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, position)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PositionID < items[j].PositionID
	})
	return items, nil
}

func (s *Store) SaveCandidate(_ context.Context, candidate entities.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[strings.TrimSpace(candidate.CandidateID)] = candidate
	return nil
}

func (s *Store) ListCandidatesByPosition(_ context.Context, positionID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.PositionID == strings.TrimSpace(positionID) {
			items = append(items, candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CandidateID < items[j].CandidateID
	})
	return items, nil
}

func (s *Store) ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	positions, err := s.ListPositionsByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	byPosition := make(map[string]bool, len(positions))
	for _, position := range positions {
		byPosition[position.PositionID] = true
	}
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if byPosition[candidate.PositionID] {
			items = append(items, candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CandidateID < items[j].CandidateID
	})
	return items, nil
}

func (s *Store) AppendStatusTransition(_ context.Context, transition entities.StatusTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(transition.ElectionID)
	s.transitions[key] = append(s.transitions[key], transition)
	return nil
}

func (s *Store) ListStatusTransitions(_ context.Context, electionID string) ([]entities.StatusTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]entities.StatusTransition(nil), s.transitions[strings.TrimSpace(electionID)]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].OccurredAt.Before(items[j].OccurredAt)
	})
	return items, nil
}

func (s *Store) CountVotesByElection(_ context.Context, electionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, vote := range s.votes {
		if vote.electionID == strings.TrimSpace(electionID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountDistinctVotersByElection(_ context.Context, electionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voters := make(map[string]bool)
	for _, vote := range s.votes {
		if vote.electionID == strings.TrimSpace(electionID) {
			voters[vote.voterHash] = true
		}
	}
	return len(voters), nil
}

func (s *Store) AddAdmin(_ context.Context, admin entities.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[strings.TrimSpace(admin.Principal)] = admin
	return nil
}

func (s *Store) ListAdmins(_ context.Context) ([]entities.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Admin, 0, len(s.admins))
	for _, admin := range s.admins {
		items = append(items, admin)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Principal < items[j].Principal
	})
	return items, nil
}

func (s *Store) IsAdmin(_ context.Context, principal string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[strings.TrimSpace(principal)]
	return ok, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortElectionsByCreation(items []entities.Election) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ElectionID < items[j].ElectionID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.VoteScanner = (*Store)(nil)
var _ ports.AdminRegistry = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)

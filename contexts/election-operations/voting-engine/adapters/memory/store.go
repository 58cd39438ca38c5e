package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type Store struct {
	mu sync.RWMutex

	votes        map[string]entities.Vote
	voterRecords map[string]entities.VoterRecord
	elections    map[string]entities.ElectionProjection
	positions    map[string]entities.PositionProjection
	outbox       map[string]outboxRecord
	dedup        map[string]dedupRecord

	castSeq []string

	nowFn func() time.Time
}

func NewStore(seed []entities.Vote) *Store {
	store := &Store{
		votes:        make(map[string]entities.Vote, len(seed)),
		voterRecords: make(map[string]entities.VoterRecord),
		elections:    make(map[string]entities.ElectionProjection),
		positions:    make(map[string]entities.PositionProjection),
		outbox:       make(map[string]outboxRecord),
		dedup:        make(map[string]dedupRecord),
	}
	for _, vote := range seed {
		store.votes[vote.VoteID] = vote
		store.castSeq = append(store.castSeq, vote.VoteID)
	}
	return store
}

// SetElectionProjection seeds the election read model without going through
// the event consumer.
func (s *Store) SetElectionProjection(projection entities.ElectionProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(projection.ElectionID)] = projection
}

// SetPositionProjection seeds the ballot shape for a position.
func (s *Store) SetPositionProjection(projection entities.PositionProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[strings.TrimSpace(projection.PositionID)] = projection
}

func (s *Store) AppendVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The duplicate rule is checked against current store state under the
	// write lock, and the vote is merged into the stored record rather than
	// replacing it, so concurrent appends on other positions survive.
	current, ok := s.voterRecords[vote.VoterHash]
	if ok {
		if _, voted := current.VotedPositions[vote.PositionID]; voted {
			return domainerrors.ErrDuplicateVote
		}
		current = cloneVoterRecord(current)
	} else {
		current = entities.VoterRecord{
			VoterHash:      vote.VoterHash,
			VotedPositions: make(map[string]string, 1),
		}
	}
	if _, exists := s.votes[vote.VoteID]; exists {
		return domainerrors.ErrConflict
	}

	current.VotedPositions[vote.PositionID] = vote.VoteID
	current.TotalVotes = len(current.VotedPositions)
	current.LastVoteAt = vote.CastAt
	s.votes[vote.VoteID] = vote
	s.castSeq = append(s.castSeq, vote.VoteID)
	s.voterRecords[vote.VoterHash] = current
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) GetVoterRecord(_ context.Context, voterHash string) (entities.VoterRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.voterRecords[strings.TrimSpace(voterHash)]
	if !ok {
		return entities.VoterRecord{}, false, nil
	}
	return cloneVoterRecord(record), true, nil
}

func (s *Store) ListVotesByElection(_ context.Context, electionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, voteID := range s.castSeq {
		vote := s.votes[voteID]
		if vote.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, vote)
		}
	}
	return items, nil
}

func (s *Store) ListVotesByPosition(_ context.Context, positionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, voteID := range s.castSeq {
		vote := s.votes[voteID]
		if vote.PositionID == strings.TrimSpace(positionID) {
			items = append(items, vote)
		}
	}
	return items, nil
}

func (s *Store) ListUnverifiedVotes(_ context.Context, limit int) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Vote, 0)
	for _, voteID := range s.castSeq {
		vote := s.votes[voteID]
		if vote.Verified {
			continue
		}
		items = append(items, vote)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkVoteVerified(_ context.Context, voteID string, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	stamp := verifiedAt.UTC()
	vote.Verified = true
	vote.VerifiedAt = &stamp
	s.votes[strings.TrimSpace(voteID)] = vote
	return nil
}

func (s *Store) GetElectionProjection(_ context.Context, electionID string) (entities.ElectionProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projection, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.ElectionProjection{}, domainerrors.ErrElectionNotFound
	}
	return projection, nil
}

func (s *Store) GetPositionProjection(_ context.Context, positionID string) (entities.PositionProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projection, ok := s.positions[strings.TrimSpace(positionID)]
	if !ok {
		return entities.PositionProjection{}, domainerrors.ErrPositionNotFound
	}
	return projection, nil
}

func (s *Store) UpsertElectionProjection(_ context.Context, projection entities.ElectionProjection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(projection.ElectionID)] = projection
	return nil
}

func (s *Store) UpsertPositionProjection(_ context.Context, projection entities.PositionProjection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[strings.TrimSpace(projection.PositionID)] = projection
	return nil
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

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(eventID)
	// Expiry is judged on the store's own time source so consumers that run
	// on an injected clock see consistent reservation lifetimes.
	if existing, ok := s.dedup[key]; ok && existing.expiresAt.After(s.clock()) {
		return true, nil
	}
	s.dedup[key] = dedupRecord{
		payloadHash: payloadHash,
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

// SetNow overrides the store's time source for Clock reads and dedupe expiry
// checks.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock()
}

// clock must be called with the store lock held.
func (s *Store) clock() time.Time {
	if s.nowFn != nil {
		return s.nowFn().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneVoterRecord(record entities.VoterRecord) entities.VoterRecord {
	positions := make(map[string]string, len(record.VotedPositions))
	for positionID, voteID := range record.VotedPositions {
		positions[positionID] = voteID
	}
	record.VotedPositions = positions
	return record
}

var _ ports.VoteRepository = (*Store)(nil)
var _ ports.ElectionDirectory = (*Store)(nil)
var _ ports.ElectionDirectoryWriter = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)

package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AppendVote inserts the ledger row inside a transaction. The unique index on
// (voter_hash, position_id) is the authoritative duplicate guard; serialization
// failures surface as ErrContention so the use case can retry.
func (r *Repository) AppendVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateVote
		}
		if isSerializationFailure(err) {
			return domainerrors.ErrContention
		}
		return r.logError("voting_repo_append_vote_failed", err,
			"vote_id", strings.TrimSpace(vote.VoteID),
			"election_id", strings.TrimSpace(vote.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("voting_repo_get_vote_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return row.toEntity(), nil
}

// GetVoterRecord derives the participation index from the ledger itself, so
// the record can never drift from the votes table.
func (r *Repository) GetVoterRecord(ctx context.Context, voterHash string) (entities.VoterRecord, bool, error) {
	var rows []voteModel
	err := r.db.WithContext(ctx).
		Where("voter_hash = ?", strings.TrimSpace(voterHash)).
		Order("cast_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return entities.VoterRecord{}, false, r.logError("voting_repo_get_voter_record_failed", err)
	}
	if len(rows) == 0 {
		return entities.VoterRecord{}, false, nil
	}
	record := entities.VoterRecord{
		VoterHash:      strings.TrimSpace(voterHash),
		VotedPositions: make(map[string]string, len(rows)),
	}
	for _, row := range rows {
		record.VotedPositions[row.PositionID] = row.ID
		record.TotalVotes++
		if row.CastAt.After(record.LastVoteAt) {
			record.LastVoteAt = row.CastAt.UTC()
		}
	}
	return record, true, nil
}

func (r *Repository) ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_votes_by_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListVotesByPosition(ctx context.Context, positionID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_votes_by_position_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListUnverifiedVotes(ctx context.Context, limit int) ([]entities.Vote, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("verified = ?", false).
		Order("cast_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_unverified_failed", err, "limit", limit)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) MarkVoteVerified(ctx context.Context, voteID string, verifiedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("id = ?", strings.TrimSpace(voteID)).
		Updates(map[string]any{
			"verified":    true,
			"verified_at": verifiedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_repo_mark_verified_failed", result.Error,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoteNotFound
	}
	return nil
}

func (r *Repository) GetElectionProjection(ctx context.Context, electionID string) (entities.ElectionProjection, error) {
	var row electionProjectionModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ElectionProjection{}, domainerrors.ErrElectionNotFound
		}
		return entities.ElectionProjection{}, r.logError("voting_repo_get_election_projection_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return entities.ElectionProjection{
		ElectionID: row.ElectionID,
		Status:     row.Status,
		StartAt:    row.StartAt.UTC(),
		EndAt:      row.EndAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}, nil
}

func (r *Repository) GetPositionProjection(ctx context.Context, positionID string) (entities.PositionProjection, error) {
	var row positionProjectionModel
	err := r.db.WithContext(ctx).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PositionProjection{}, domainerrors.ErrPositionNotFound
		}
		return entities.PositionProjection{}, r.logError("voting_repo_get_position_projection_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	var candidateIDs []string
	if len(row.CandidateIDs) > 0 {
		if err := json.Unmarshal(row.CandidateIDs, &candidateIDs); err != nil {
			return entities.PositionProjection{}, r.logError("voting_repo_position_projection_decode_failed", err,
				"position_id", strings.TrimSpace(positionID),
			)
		}
	}
	return entities.PositionProjection{
		PositionID:   row.PositionID,
		ElectionID:   row.ElectionID,
		CandidateIDs: candidateIDs,
	}, nil
}

func (r *Repository) UpsertElectionProjection(ctx context.Context, projection entities.ElectionProjection) error {
	row := electionProjectionModel{
		ElectionID: strings.TrimSpace(projection.ElectionID),
		Status:     strings.TrimSpace(projection.Status),
		StartAt:    projection.StartAt.UTC(),
		EndAt:      projection.EndAt.UTC(),
		UpdatedAt:  projection.UpdatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "election_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     row.Status,
			"start_at":   row.StartAt,
			"end_at":     row.EndAt,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("voting_repo_upsert_election_projection_failed", create.Error,
			"election_id", row.ElectionID,
		)
	}
	return nil
}

func (r *Repository) UpsertPositionProjection(ctx context.Context, projection entities.PositionProjection) error {
	candidateIDs, err := json.Marshal(projection.CandidateIDs)
	if err != nil {
		return r.logError("voting_repo_position_projection_encode_failed", err,
			"position_id", strings.TrimSpace(projection.PositionID),
		)
	}
	row := positionProjectionModel{
		PositionID:   strings.TrimSpace(projection.PositionID),
		ElectionID:   strings.TrimSpace(projection.ElectionID),
		CandidateIDs: candidateIDs,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "position_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"election_id":   row.ElectionID,
			"candidate_ids": row.CandidateIDs,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("voting_repo_upsert_position_projection_failed", create.Error,
			"position_id", row.PositionID,
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("voting_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("voting_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("voting_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	row := processedEventModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("voting_repo_reserve_event_failed", create.Error,
			"event_id", row.EventID,
		)
	}
	return create.RowsAffected == 0, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-operations/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote repository operation failed", fields...)
	return err
}

type voteModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	ElectionID  string     `gorm:"column:election_id"`
	PositionID  string     `gorm:"column:position_id;uniqueIndex:idx_votes_voter_position,priority:2"`
	CandidateID string     `gorm:"column:candidate_id"`
	VoterHash   string     `gorm:"column:voter_hash;uniqueIndex:idx_votes_voter_position,priority:1"`
	Verified    bool       `gorm:"column:verified"`
	VerifiedAt  *time.Time `gorm:"column:verified_at"`
	CastAt      time.Time  `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:          strings.TrimSpace(vote.VoteID),
		ElectionID:  strings.TrimSpace(vote.ElectionID),
		PositionID:  strings.TrimSpace(vote.PositionID),
		CandidateID: strings.TrimSpace(vote.CandidateID),
		VoterHash:   strings.TrimSpace(vote.VoterHash),
		Verified:    vote.Verified,
		VerifiedAt:  vote.VerifiedAt,
		CastAt:      vote.CastAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:      m.ID,
		ElectionID:  m.ElectionID,
		PositionID:  m.PositionID,
		CandidateID: m.CandidateID,
		VoterHash:   m.VoterHash,
		Verified:    m.Verified,
		VerifiedAt:  m.VerifiedAt,
		CastAt:      m.CastAt.UTC(),
	}
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type electionProjectionModel struct {
	ElectionID string    `gorm:"column:election_id;primaryKey"`
	Status     string    `gorm:"column:status"`
	StartAt    time.Time `gorm:"column:start_at"`
	EndAt      time.Time `gorm:"column:end_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (electionProjectionModel) TableName() string {
	return "vote_election_projections"
}

type positionProjectionModel struct {
	PositionID   string `gorm:"column:position_id;primaryKey"`
	ElectionID   string `gorm:"column:election_id"`
	CandidateIDs []byte `gorm:"column:candidate_ids"`
}

func (positionProjectionModel) TableName() string {
	return "vote_position_projections"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "vote_outbox"
}

type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (processedEventModel) TableName() string {
	return "vote_processed_events"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.ElectionDirectory = (*Repository)(nil)
var _ ports.ElectionDirectoryWriter = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)

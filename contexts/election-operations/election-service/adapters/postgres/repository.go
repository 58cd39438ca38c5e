package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/ports"

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

// CreateElection is a plain insert so two concurrent initializations of the
// same ID race on the primary key instead of silently upserting.
func (r *Repository) CreateElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return r.logError("election_repo_create_election_failed", err,
			"election_id", strings.TrimSpace(election.ElectionID),
		)
	}
	return nil
}

func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":        row.Title,
			"description":  row.Description,
			"type":         row.Type,
			"branch_scope": row.BranchScope,
			"start_at":     row.StartAt,
			"end_at":       row.EndAt,
			"status":       row.Status,
			"activated_at": row.ActivatedAt,
			"closed_at":    row.ClosedAt,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadyExists
		}
		return r.logError("election_repo_save_election_failed", create.Error,
			"election_id", strings.TrimSpace(election.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("election_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	election := row.toEntity()
	positionIDs, err := r.listPositionIDs(ctx, election.ElectionID)
	if err != nil {
		return entities.Election{}, err
	}
	election.PositionIDs = positionIDs
	return election, nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_elections_failed", err)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) ListElectionsByStatus(ctx context.Context, status entities.ElectionStatus) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("start_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_elections_by_status_failed", err,
			"status", string(status),
		)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) SavePosition(ctx context.Context, position entities.Position) error {
	row := positionModelFromEntity(position)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":               row.Title,
			"description":         row.Description,
			"max_votes_per_voter": row.MaxVotesPerVoter,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_save_position_failed", create.Error,
			"position_id", strings.TrimSpace(position.PositionID),
			"election_id", strings.TrimSpace(position.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetPosition(ctx context.Context, positionID string) (entities.Position, error) {
	var row positionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(positionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Position{}, domainerrors.ErrPositionNotFound
		}
		return entities.Position{}, r.logError("election_repo_get_position_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	position := row.toEntity()
	candidateIDs, err := r.listCandidateIDs(ctx, position.PositionID)
	if err != nil {
		return entities.Position{}, err
	}
	position.CandidateIDs = candidateIDs
	return position, nil
}

func (r *Repository) ListPositionsByElection(ctx context.Context, electionID string) ([]entities.Position, error) {
	var rows []positionModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_positions_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Position, 0, len(rows))
	for _, row := range rows {
		position := row.toEntity()
		candidateIDs, err := r.listCandidateIDs(ctx, position.PositionID)
		if err != nil {
			return nil, err
		}
		position.CandidateIDs = candidateIDs
		items = append(items, position)
	}
	return items, nil
}

func (r *Repository) SaveCandidate(ctx context.Context, candidate entities.Candidate) error {
	row := candidateModelFromEntity(candidate)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":      row.Name,
			"bio":       row.Bio,
			"photo_url": row.PhotoURL,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_save_candidate_failed", create.Error,
			"candidate_id", strings.TrimSpace(candidate.CandidateID),
			"position_id", strings.TrimSpace(candidate.PositionID),
		)
	}
	return nil
}

func (r *Repository) ListCandidatesByPosition(ctx context.Context, positionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_candidates_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return toCandidateEntities(rows), nil
}

func (r *Repository) ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	err := r.db.WithContext(ctx).
		Table("candidates AS c").
		Select("c.*").
		Joins("JOIN positions AS p ON p.id = c.position_id").
		Where("p.election_id = ?", strings.TrimSpace(electionID)).
		Order("c.id ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("election_repo_list_election_candidates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toCandidateEntities(rows), nil
}

func (r *Repository) AppendStatusTransition(ctx context.Context, transition entities.StatusTransition) error {
	row := transitionModel{
		ID:         strings.TrimSpace(transition.TransitionID),
		ElectionID: strings.TrimSpace(transition.ElectionID),
		FromStatus: string(transition.FromStatus),
		ToStatus:   string(transition.ToStatus),
		ActorID:    strings.TrimSpace(transition.ActorID),
		OccurredAt: transition.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("election_repo_append_transition_failed", err,
			"election_id", row.ElectionID,
			"to_status", row.ToStatus,
		)
	}
	return nil
}

func (r *Repository) ListStatusTransitions(ctx context.Context, electionID string) ([]entities.StatusTransition, error) {
	var rows []transitionModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_transitions_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.StatusTransition, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.StatusTransition{
			TransitionID: row.ID,
			ElectionID:   row.ElectionID,
			FromStatus:   entities.ElectionStatus(row.FromStatus),
			ToStatus:     entities.ElectionStatus(row.ToStatus),
			ActorID:      row.ActorID,
			OccurredAt:   row.OccurredAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) CountVotesByElection(ctx context.Context, electionID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("votes").
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("election_repo_count_votes_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return int(count), nil
}

func (r *Repository) CountDistinctVotersByElection(ctx context.Context, electionID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("votes").
		Distinct("voter_hash").
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("election_repo_count_voters_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return int(count), nil
}

func (r *Repository) AddAdmin(ctx context.Context, admin entities.Admin) error {
	row := adminModel{
		Principal: strings.TrimSpace(admin.Principal),
		AddedBy:   strings.TrimSpace(admin.AddedBy),
		AddedAt:   admin.AddedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_add_admin_failed", create.Error,
			"principal", row.Principal,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAdminExists
	}
	return nil
}

func (r *Repository) ListAdmins(ctx context.Context) ([]entities.Admin, error) {
	var rows []adminModel
	if err := r.db.WithContext(ctx).
		Order("principal ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_admins_failed", err)
	}
	items := make([]entities.Admin, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Admin{
			Principal: row.Principal,
			AddedBy:   row.AddedBy,
			AddedAt:   row.AddedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) IsAdmin(ctx context.Context, principal string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&adminModel{}).
		Where("principal = ?", strings.TrimSpace(principal)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("election_repo_is_admin_failed", err,
			"principal", strings.TrimSpace(principal),
		)
	}
	return count > 0, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("election_repo_append_outbox_marshal_failed", err,
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
		return r.logError("election_repo_append_outbox_insert_failed", create.Error,
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
		return r.logError("election_repo_append_outbox_load_existing_failed", err,
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
		return nil, r.logError("election_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) listPositionIDs(ctx context.Context, electionID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&positionModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("id ASC").
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, r.logError("election_repo_list_position_ids_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return ids, nil
}

func (r *Repository) listCandidateIDs(ctx context.Context, positionID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Order("id ASC").
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, r.logError("election_repo_list_candidate_ids_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return ids, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-operations/election-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

type electionModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Title       string     `gorm:"column:title"`
	Description string     `gorm:"column:description"`
	Type        string     `gorm:"column:type"`
	BranchScope *string    `gorm:"column:branch_scope"`
	StartAt     time.Time  `gorm:"column:start_at"`
	EndAt       time.Time  `gorm:"column:end_at"`
	Status      string     `gorm:"column:status"`
	CreatedBy   string     `gorm:"column:created_by"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	ActivatedAt *time.Time `gorm:"column:activated_at"`
	ClosedAt    *time.Time `gorm:"column:closed_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	row := electionModel{
		ID:          strings.TrimSpace(election.ElectionID),
		Title:       strings.TrimSpace(election.Title),
		Description: strings.TrimSpace(election.Description),
		Type:        string(election.Type),
		BranchScope: election.BranchScope,
		StartAt:     election.StartAt.UTC(),
		EndAt:       election.EndAt.UTC(),
		Status:      string(election.Status),
		CreatedBy:   strings.TrimSpace(election.CreatedBy),
		CreatedAt:   election.CreatedAt.UTC(),
		UpdatedAt:   election.UpdatedAt.UTC(),
		ActivatedAt: normalizeOptionalTime(election.ActivatedAt),
		ClosedAt:    normalizeOptionalTime(election.ClosedAt),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:  m.ID,
		Title:       m.Title,
		Description: m.Description,
		Type:        entities.ElectionType(m.Type),
		BranchScope: m.BranchScope,
		StartAt:     m.StartAt.UTC(),
		EndAt:       m.EndAt.UTC(),
		Status:      entities.ElectionStatus(m.Status),
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
		ActivatedAt: normalizeOptionalTime(m.ActivatedAt),
		ClosedAt:    normalizeOptionalTime(m.ClosedAt),
	}
}

type positionModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	ElectionID       string    `gorm:"column:election_id"`
	Title            string    `gorm:"column:title"`
	Description      string    `gorm:"column:description"`
	MaxVotesPerVoter int       `gorm:"column:max_votes_per_voter"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (positionModel) TableName() string {
	return "positions"
}

func positionModelFromEntity(position entities.Position) positionModel {
	row := positionModel{
		ID:               strings.TrimSpace(position.PositionID),
		ElectionID:       strings.TrimSpace(position.ElectionID),
		Title:            strings.TrimSpace(position.Title),
		Description:      strings.TrimSpace(position.Description),
		MaxVotesPerVoter: position.MaxVotesPerVoter,
		CreatedAt:        position.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m positionModel) toEntity() entities.Position {
	return entities.Position{
		PositionID:       m.ID,
		ElectionID:       m.ElectionID,
		Title:            m.Title,
		Description:      m.Description,
		MaxVotesPerVoter: m.MaxVotesPerVoter,
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

type candidateModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	PositionID string    `gorm:"column:position_id"`
	Name       string    `gorm:"column:name"`
	Bio        *string   `gorm:"column:bio"`
	PhotoURL   *string   `gorm:"column:photo_url"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	row := candidateModel{
		ID:         strings.TrimSpace(candidate.CandidateID),
		PositionID: strings.TrimSpace(candidate.PositionID),
		Name:       strings.TrimSpace(candidate.Name),
		Bio:        candidate.Bio,
		PhotoURL:   candidate.PhotoURL,
		CreatedAt:  candidate.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func toCandidateEntities(rows []candidateModel) []entities.Candidate {
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Candidate{
			CandidateID: row.ID,
			PositionID:  row.PositionID,
			Name:        row.Name,
			Bio:         row.Bio,
			PhotoURL:    row.PhotoURL,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return items
}

type transitionModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status"`
	ActorID    string    `gorm:"column:actor_id"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (transitionModel) TableName() string {
	return "election_status_transitions"
}

type adminModel struct {
	Principal string    `gorm:"column:principal;primaryKey"`
	AddedBy   string    `gorm:"column:added_by"`
	AddedAt   time.Time `gorm:"column:added_at"`
}

func (adminModel) TableName() string {
	return "election_admins"
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
	return "election_outbox"
}

func toElectionEntities(rows []electionModel) []entities.Election {
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.VoteScanner = (*Repository)(nil)
var _ ports.AdminRegistry = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)

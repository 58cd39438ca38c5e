package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
	domainerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/errors"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads the shared votes/elections/positions/candidates tables and
// owns only the result_overrides table.
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

func (r *Repository) ListVotesByElection(ctx context.Context, electionID string) ([]entities.BallotEntry, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Table("votes").
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("cast_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_votes_by_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toBallotEntries(rows), nil
}

func (r *Repository) ListVotesByPosition(ctx context.Context, positionID string) ([]entities.BallotEntry, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Table("votes").
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Order("cast_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_votes_by_position_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return toBallotEntries(rows), nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.ElectionSummary, error) {
	var row struct {
		ID     string `gorm:"column:id"`
		Status string `gorm:"column:status"`
	}
	err := r.db.WithContext(ctx).
		Table("elections").
		Select("id", "status").
		Where("id = ?", strings.TrimSpace(electionID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ElectionSummary{}, domainerrors.ErrElectionNotFound
		}
		return entities.ElectionSummary{}, r.logError("tally_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return entities.ElectionSummary{
		ElectionID: row.ID,
		Status:     row.Status,
	}, nil
}

func (r *Repository) GetPosition(ctx context.Context, positionID string) (entities.PositionSummary, error) {
	var row struct {
		ID         string `gorm:"column:id"`
		ElectionID string `gorm:"column:election_id"`
		Title      string `gorm:"column:title"`
	}
	err := r.db.WithContext(ctx).
		Table("positions").
		Select("id", "election_id", "title").
		Where("id = ?", strings.TrimSpace(positionID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PositionSummary{}, domainerrors.ErrPositionNotFound
		}
		return entities.PositionSummary{}, r.logError("tally_repo_get_position_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	candidates, err := r.listCandidates(ctx, row.ID)
	if err != nil {
		return entities.PositionSummary{}, err
	}
	return entities.PositionSummary{
		PositionID: row.ID,
		ElectionID: row.ElectionID,
		Title:      row.Title,
		Candidates: candidates,
	}, nil
}

func (r *Repository) ListPositionsByElection(ctx context.Context, electionID string) ([]entities.PositionSummary, error) {
	var rows []struct {
		ID         string `gorm:"column:id"`
		ElectionID string `gorm:"column:election_id"`
		Title      string `gorm:"column:title"`
	}
	if err := r.db.WithContext(ctx).
		Table("positions").
		Select("id", "election_id", "title").
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("id ASC").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_positions_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.PositionSummary, 0, len(rows))
	for _, row := range rows {
		candidates, err := r.listCandidates(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, entities.PositionSummary{
			PositionID: row.ID,
			ElectionID: row.ElectionID,
			Title:      row.Title,
			Candidates: candidates,
		})
	}
	return items, nil
}

func (r *Repository) SaveOverride(ctx context.Context, override entities.ResultOverride) error {
	row := overrideModel{
		PositionID:            strings.TrimSpace(override.PositionID),
		ForcedWinnerID:        override.ForcedWinnerID,
		CollectRemainingVotes: override.CollectRemainingVotes,
		EligibleTurnout:       override.EligibleTurnout,
		VoteLimit:             override.VoteLimit,
		SetBy:                 strings.TrimSpace(override.SetBy),
		UpdatedAt:             override.UpdatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "position_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"forced_winner_id":        row.ForcedWinnerID,
			"collect_remaining_votes": row.CollectRemainingVotes,
			"eligible_turnout":        row.EligibleTurnout,
			"vote_limit":              row.VoteLimit,
			"set_by":                  row.SetBy,
			"updated_at":              row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("tally_repo_save_override_failed", create.Error,
			"position_id", row.PositionID,
		)
	}
	return nil
}

func (r *Repository) GetOverride(ctx context.Context, positionID string) (entities.ResultOverride, bool, error) {
	var row overrideModel
	err := r.db.WithContext(ctx).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ResultOverride{}, false, nil
		}
		return entities.ResultOverride{}, false, r.logError("tally_repo_get_override_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return entities.ResultOverride{
		PositionID:            row.PositionID,
		ForcedWinnerID:        row.ForcedWinnerID,
		CollectRemainingVotes: row.CollectRemainingVotes,
		EligibleTurnout:       row.EligibleTurnout,
		VoteLimit:             row.VoteLimit,
		SetBy:                 row.SetBy,
		UpdatedAt:             row.UpdatedAt.UTC(),
	}, true, nil
}

func (r *Repository) DeleteOverride(ctx context.Context, positionID string) error {
	result := r.db.WithContext(ctx).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Delete(&overrideModel{})
	if result.Error != nil {
		return r.logError("tally_repo_delete_override_failed", result.Error,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOverrideNotFound
	}
	return nil
}

func (r *Repository) listCandidates(ctx context.Context, positionID string) ([]entities.CandidateSummary, error) {
	var rows []struct {
		ID   string `gorm:"column:id"`
		Name string `gorm:"column:name"`
	}
	if err := r.db.WithContext(ctx).
		Table("candidates").
		Select("id", "name").
		Where("position_id = ?", positionID).
		Order("id ASC").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_candidates_failed", err,
			"position_id", positionID,
		)
	}
	items := make([]entities.CandidateSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.CandidateSummary{
			CandidateID: row.ID,
			Name:        row.Name,
		})
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-operations/tally-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("tally repository operation failed", fields...)
	return err
}

type ballotModel struct {
	ID          string    `gorm:"column:id"`
	ElectionID  string    `gorm:"column:election_id"`
	PositionID  string    `gorm:"column:position_id"`
	CandidateID string    `gorm:"column:candidate_id"`
	CastAt      time.Time `gorm:"column:cast_at"`
}

func toBallotEntries(rows []ballotModel) []entities.BallotEntry {
	items := make([]entities.BallotEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.BallotEntry{
			VoteID:      row.ID,
			ElectionID:  row.ElectionID,
			PositionID:  row.PositionID,
			CandidateID: row.CandidateID,
			CastAt:      row.CastAt.UTC(),
		})
	}
	return items
}

type overrideModel struct {
	PositionID            string    `gorm:"column:position_id;primaryKey"`
	ForcedWinnerID        *string   `gorm:"column:forced_winner_id"`
	CollectRemainingVotes bool      `gorm:"column:collect_remaining_votes"`
	EligibleTurnout       int       `gorm:"column:eligible_turnout"`
	VoteLimit             *int      `gorm:"column:vote_limit"`
	SetBy                 string    `gorm:"column:set_by"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (overrideModel) TableName() string {
	return "result_overrides"
}

var _ ports.VoteReader = (*Repository)(nil)
var _ ports.CandidateDirectory = (*Repository)(nil)
var _ ports.OverrideRepository = (*Repository)(nil)

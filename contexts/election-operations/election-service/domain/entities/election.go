package entities

import (
	"strings"
	"time"
)

type ElectionStatus string
type ElectionType string

const (
	ElectionStatusDraft     ElectionStatus = "draft"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusCompleted ElectionStatus = "completed"
	ElectionStatusCancelled ElectionStatus = "cancelled"

	ElectionTypeNational ElectionType = "national"
	ElectionTypeBranch   ElectionType = "branch"
)

type Election struct {
	ElectionID  string
	Title       string
	Description string
	Type        ElectionType
	BranchScope *string
	StartAt     time.Time
	EndAt       time.Time
	Status      ElectionStatus
	CreatedBy   string
	PositionIDs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ActivatedAt *time.Time
	ClosedAt    *time.Time
}

// IsTerminal reports whether no further status mutation is permitted.
func (e Election) IsTerminal() bool {
	return e.Status == ElectionStatusCompleted || e.Status == ElectionStatusCancelled
}

// CanTransitionTo encodes the lifecycle state machine. Terminal states have
// no outgoing edges.
func (e Election) CanTransitionTo(to ElectionStatus) bool {
	switch e.Status {
	case ElectionStatusDraft:
		return to == ElectionStatusActive || to == ElectionStatusCancelled
	case ElectionStatusActive:
		return to == ElectionStatusCompleted || to == ElectionStatusCancelled
	default:
		return false
	}
}

func IsSupportedElectionType(value ElectionType) bool {
	switch value {
	case ElectionTypeNational, ElectionTypeBranch:
		return true
	default:
		return false
	}
}

func IsSupportedElectionStatus(value ElectionStatus) bool {
	switch value {
	case ElectionStatusDraft, ElectionStatusActive, ElectionStatusCompleted, ElectionStatusCancelled:
		return true
	default:
		return false
	}
}

type Position struct {
	PositionID       string
	ElectionID       string
	Title            string
	Description      string
	MaxVotesPerVoter int
	CandidateIDs     []string
	CreatedAt        time.Time
}

type Candidate struct {
	CandidateID string
	PositionID  string
	Name        string
	Bio         *string
	PhotoURL    *string
	CreatedAt   time.Time
}

// StatusTransition is the audit record appended on every accepted lifecycle
// change, including initial creation (from "").
type StatusTransition struct {
	TransitionID string
	ElectionID   string
	FromStatus   ElectionStatus
	ToStatus     ElectionStatus
	ActorID      string
	OccurredAt   time.Time
}

type ElectionConfig struct {
	Election   Election
	Positions  []Position
	Candidates []Candidate
}

// ValidateConfig checks configuration completeness before persisting and
// again on activation, defending against partial updates made in draft.
func (c ElectionConfig) ValidateConfig() bool {
	title := strings.TrimSpace(c.Election.Title)
	if title == "" || strings.TrimSpace(c.Election.CreatedBy) == "" {
		return false
	}
	if !IsSupportedElectionType(c.Election.Type) {
		return false
	}
	if (c.Election.Type == ElectionTypeBranch) != (c.Election.BranchScope != nil) {
		return false
	}
	if c.Election.BranchScope != nil && strings.TrimSpace(*c.Election.BranchScope) == "" {
		return false
	}
	if !c.Election.EndAt.After(c.Election.StartAt) {
		return false
	}
	if len(c.Positions) == 0 {
		return false
	}
	candidatesByPosition := make(map[string]int, len(c.Positions))
	for _, candidate := range c.Candidates {
		candidatesByPosition[candidate.PositionID]++
		if strings.TrimSpace(candidate.Name) == "" {
			return false
		}
	}
	for _, position := range c.Positions {
		if strings.TrimSpace(position.Title) == "" {
			return false
		}
		if position.MaxVotesPerVoter < 1 {
			return false
		}
		if position.ElectionID != c.Election.ElectionID {
			return false
		}
		if candidatesByPosition[position.PositionID] == 0 {
			return false
		}
	}
	return true
}

type ElectionStats struct {
	ElectionID     string
	Status         ElectionStatus
	TotalVoters    int
	TotalVotes     int
	PositionCount  int
	CandidateCount int
}

type RegistryStats struct {
	TotalElections     int
	DraftElections     int
	ActiveElections    int
	CompletedElections int
	CancelledElections int
	NationalElections  int
	BranchElections    int
}

type Admin struct {
	Principal string
	AddedBy   string
	AddedAt   time.Time
}

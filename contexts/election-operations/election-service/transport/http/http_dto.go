package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CandidateInput struct {
	Name     string  `json:"name"`
	Bio      *string `json:"bio,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

type PositionInput struct {
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	MaxVotesPerVoter int              `json:"max_votes_per_voter"`
	Candidates       []CandidateInput `json:"candidates"`
}

type CreateElectionRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Owner       string          `json:"owner"`
	Type        string          `json:"type"`
	BranchScope *string         `json:"branch_scope,omitempty"`
	StartAt     string          `json:"start_at"`
	EndAt       string          `json:"end_at"`
	Positions   []PositionInput `json:"positions"`
}

type UpdateElectionStatusRequest struct {
	Status  string `json:"status"`
	ActorID string `json:"actor_id"`
}

type ElectionResponse struct {
	ElectionID  string   `json:"election_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	BranchScope *string  `json:"branch_scope,omitempty"`
	StartAt     string   `json:"start_at"`
	EndAt       string   `json:"end_at"`
	Status      string   `json:"status"`
	CreatedBy   string   `json:"created_by"`
	PositionIDs []string `json:"position_ids"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	ActivatedAt *string  `json:"activated_at,omitempty"`
	ClosedAt    *string  `json:"closed_at,omitempty"`
}

type PositionResponse struct {
	PositionID       string   `json:"position_id"`
	ElectionID       string   `json:"election_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	MaxVotesPerVoter int      `json:"max_votes_per_voter"`
	CandidateIDs     []string `json:"candidate_ids"`
}

type CandidateResponse struct {
	CandidateID string  `json:"candidate_id"`
	PositionID  string  `json:"position_id"`
	Name        string  `json:"name"`
	Bio         *string `json:"bio,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

type ElectionConfigResponse struct {
	Election   ElectionResponse    `json:"election"`
	Positions  []PositionResponse  `json:"positions"`
	Candidates []CandidateResponse `json:"candidates"`
}

type ElectionStatsResponse struct {
	ElectionID     string `json:"election_id"`
	Status         string `json:"status"`
	TotalVoters    int    `json:"total_voters"`
	TotalVotes     int    `json:"total_votes"`
	PositionCount  int    `json:"position_count"`
	CandidateCount int    `json:"candidate_count"`
}

type ActiveElectionsResponse struct {
	Items []ElectionResponse `json:"items"`
}

type StatusTransitionResponse struct {
	TransitionID string `json:"transition_id"`
	ElectionID   string `json:"election_id"`
	FromStatus   string `json:"from_status,omitempty"`
	ToStatus     string `json:"to_status"`
	ActorID      string `json:"actor_id,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

type StatusTransitionsResponse struct {
	Items []StatusTransitionResponse `json:"items"`
}

type AddAdminRequest struct {
	Principal string `json:"principal"`
	AddedBy   string `json:"added_by"`
}

type AdminResponse struct {
	Principal string `json:"principal"`
	AddedBy   string `json:"added_by,omitempty"`
	AddedAt   string `json:"added_at"`
}

type AdminsResponse struct {
	Items []AdminResponse `json:"items"`
}

type RegistryStatsResponse struct {
	TotalElections     int `json:"total_elections"`
	DraftElections     int `json:"draft_elections"`
	ActiveElections    int `json:"active_elections"`
	CompletedElections int `json:"completed_elections"`
	CancelledElections int `json:"cancelled_elections"`
	NationalElections  int `json:"national_elections"`
	BranchElections    int `json:"branch_elections"`
}

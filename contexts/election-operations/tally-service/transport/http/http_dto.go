package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CandidateTallyResponse struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
}

type PositionResultResponse struct {
	PositionID string                   `json:"position_id"`
	ElectionID string                   `json:"election_id"`
	Title      string                   `json:"title"`
	TotalVotes int                      `json:"total_votes"`
	Tallies    []CandidateTallyResponse `json:"tallies"`
	WinnerID   string                   `json:"winner_id,omitempty"`
	Tie        bool                     `json:"tie"`
	Overridden bool                     `json:"overridden"`
}

type ElectionResultResponse struct {
	ElectionID string                   `json:"election_id"`
	Status     string                   `json:"status"`
	TotalVotes int                      `json:"total_votes"`
	Positions  []PositionResultResponse `json:"positions"`
	ComputedAt string                   `json:"computed_at"`
}

type SetOverrideRequest struct {
	ForcedWinnerID        *string `json:"forced_winner_id,omitempty"`
	CollectRemainingVotes bool    `json:"collect_remaining_votes,omitempty"`
	EligibleTurnout       int     `json:"eligible_turnout,omitempty"`
	VoteLimit             *int    `json:"vote_limit,omitempty"`
	SetBy                 string  `json:"set_by"`
}

type OverrideResponse struct {
	PositionID            string  `json:"position_id"`
	ForcedWinnerID        *string `json:"forced_winner_id,omitempty"`
	CollectRemainingVotes bool    `json:"collect_remaining_votes"`
	EligibleTurnout       int     `json:"eligible_turnout"`
	VoteLimit             *int    `json:"vote_limit,omitempty"`
	SetBy                 string  `json:"set_by,omitempty"`
	UpdatedAt             string  `json:"updated_at"`
}

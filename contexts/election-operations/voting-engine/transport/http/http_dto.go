package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastVoteRequest struct {
	ElectionID  string `json:"election_id"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
}

type VoteResponse struct {
	VoteID      string  `json:"vote_id"`
	ElectionID  string  `json:"election_id"`
	PositionID  string  `json:"position_id"`
	CandidateID string  `json:"candidate_id"`
	Verified    bool    `json:"verified"`
	VerifiedAt  *string `json:"verified_at,omitempty"`
	CastAt      string  `json:"cast_at"`
}

type VoteVerificationResponse struct {
	VoteID string        `json:"vote_id"`
	Found  bool          `json:"found"`
	Vote   *VoteResponse `json:"vote,omitempty"`
}

type VoterRecordResponse struct {
	VoterHash      string            `json:"voter_hash"`
	VotedPositions map[string]string `json:"voted_positions"`
	TotalVotes     int               `json:"total_votes"`
	LastVoteAt     *string           `json:"last_vote_at,omitempty"`
}

package errors

import "errors"

var (
	ErrInvalidVoteInput    = errors.New("invalid vote input")
	ErrInvalidVoterHash    = errors.New("voter hash is malformed")
	ErrElectionNotFound    = errors.New("election not found")
	ErrElectionNotActive   = errors.New("election is not active")
	ErrOutsideVotingWindow = errors.New("outside the voting window")
	ErrPositionNotFound    = errors.New("position not found")
	ErrCandidateNotFound   = errors.New("candidate not found for position")
	ErrDuplicateVote       = errors.New("voter already voted for this position")
	ErrVoteNotFound        = errors.New("vote not found")
	ErrContention          = errors.New("vote write contention")
	ErrConflict            = errors.New("vote store conflict")
)

package errors

import "errors"

var (
	ErrElectionNotFound  = errors.New("election not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrCandidateNotFound = errors.New("candidate not found for position")
	ErrInvalidOverride   = errors.New("invalid result override")
	ErrOverrideNotFound  = errors.New("result override not found")
	ErrConflict          = errors.New("tally store conflict")
)

package errors

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid or incomplete election configuration")
	ErrAlreadyExists     = errors.New("election already exists")
	ErrElectionNotFound  = errors.New("election not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrIllegalTransition = errors.New("illegal election status transition")
	ErrInvalidPrincipal  = errors.New("invalid admin principal")
	ErrAdminExists       = errors.New("admin principal already registered")
	ErrConflict          = errors.New("election store conflict")
)

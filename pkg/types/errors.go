package types

import "errors"

// Referential errors are expected under concurrent edits (an idea deleted by
// one user while another votes on it) and are handled as silent no-ops by the
// router rather than surfaced to clients.
var (
	ErrIdeaNotFound   = errors.New("idea not found in session")
	ErrIdeaExists     = errors.New("idea id already exists in session")
	ErrUserNotFound   = errors.New("user not found in session")
	ErrSelfConnection = errors.New("idea cannot connect to itself")
)

// Validation errors for client-supplied identifiers and fields.
var (
	ErrInvalidSessionID   = errors.New("session id must be 1-64 characters, alphanumeric plus underscore/hyphen")
	ErrInvalidSessionName = errors.New("session name must be 1-200 characters")
	ErrInvalidUserID      = errors.New("user id must be 1-64 characters, alphanumeric plus underscore/hyphen")
	ErrInvalidIdeaText    = errors.New("idea text must be 1-2000 characters")
)

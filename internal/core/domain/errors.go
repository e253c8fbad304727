package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when no ledger is stored for a user.
	ErrNotFound = errors.New("domain: not found")

	// ErrEmptyCandidateSet is returned when a draw is requested over no
	// candidates or over weights that sum to zero.
	ErrEmptyCandidateSet = errors.New("domain: empty candidate set")

	// ErrMalformedLedger is returned when stored history does not decode into
	// a complete ledger.
	ErrMalformedLedger = errors.New("domain: malformed ledger")
)

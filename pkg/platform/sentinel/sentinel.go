package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors with the right
// classification code.
//
// These represent factual states about stored records, not validation
// failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a record with the same key already exists
// - ErrConsumed: single-use record (creation request) already consumed
// - ErrInvalidState: record in the wrong lifecycle phase for the write
// - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors (bad input, wrong magnitudes), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrConsumed     = errors.New("already consumed")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

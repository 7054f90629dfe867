package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped) so
// services can translate them into domain errors.
//
// - ErrNotFound: edge does not exist or is soft-deleted
// - ErrConflict: a live edge already occupies the (primary, related, type) key
// - ErrInvalidState: edge is in the wrong state for the requested mutation
// - ErrUnavailable: backing store or remote dependency temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

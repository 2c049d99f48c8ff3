package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and outbound clients return
// these (optionally wrapped) so callers can branch without string matching.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: no aggregate row (or sub-row) exists for the given key
// - ErrConflict: an insert lost a unique-constraint race
// - ErrUnavailable: a collaborator (elector, cache, downstream API) cannot be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and transport clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist (store row, registry entry, or a title
//     version the eCFR service has not published for the requested date)
//   - ErrConflict: natural-key conflict the caller did not expect
//   - ErrUnavailable: backend temporarily unavailable; safe to retry
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

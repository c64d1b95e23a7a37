package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, transports, and session
// persistence return these (optionally wrapped) so the state layer can
// translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist (store or remote)
// - ErrNoSession: no persisted session record is present
// - ErrSuperseded: a newer operation replaced this one before completion
// - ErrNotPending: completion delivered to a lifecycle that is not in flight
// - ErrUnavailable: transport or backing store temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrNoSession   = errors.New("no session")
	ErrSuperseded  = errors.New("superseded")
	ErrNotPending  = errors.New("not pending")
	ErrUnavailable = errors.New("unavailable")
)

package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Cache stores return these
// (optionally wrapped) so callers can tell an ordinary miss from a failing
// backend without knowing which backend is configured.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)

package assessment

import "errors"

// Common errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session has expired")
	ErrInvalidWeights   = errors.New("invalid weights")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSaveFailed       = errors.New("failed to save assessment")
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
)

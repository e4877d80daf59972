package persist

import "errors"

// Errors returned by gateways.
var (
	// ErrInvalidProfile indicates a profile name that cannot name a document.
	ErrInvalidProfile = errors.New("invalid profile name")

	// ErrClosed indicates a write after the gateway was closed.
	ErrClosed = errors.New("gateway is closed")
)

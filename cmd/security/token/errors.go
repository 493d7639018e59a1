package token

import "errors"

var (
	// ErrInvalidToken is returned for any token that fails verification:
	// bad signature, expired, malformed, or wrong token class.
	// Untrusted input never produces a more specific error.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid codec configuration.
	ErrConfig = errors.New("invalid token config")
)

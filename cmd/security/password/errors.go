package password

import "errors"

var (
	// ErrInvalidHash is returned when an encoded hash is malformed or uses
	// unsupported parameters.
	ErrInvalidHash = errors.New("invalid argon2id hash")

	// ErrPasswordTooShort is returned by CheckStrength.
	ErrPasswordTooShort = errors.New("password too short")

	// ErrPasswordTooLong is returned by CheckStrength.
	ErrPasswordTooLong = errors.New("password too long")

	// ErrWeakPassword is returned when a password fails the diversity policy.
	ErrWeakPassword = errors.New("password too weak")
)

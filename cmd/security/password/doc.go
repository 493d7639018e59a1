// Package password implements Argon2id password hashing with PHC-encoded
// hashes, plus the registration strength policy.
package password

// Package token implements the Hub token codec: signed access/refresh token
// pairs (JWT HS256 with disjoint claim sets) and one-way digests used to store
// refresh tokens and API keys without retaining the secret material.
package token

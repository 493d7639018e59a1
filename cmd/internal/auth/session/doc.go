// Package session persists refresh-token lineages.
//
// One session row anchors exactly one refresh-token lineage: the stored hash
// is always the digest of the most recently issued refresh token for that
// lineage. Rotation replaces the hash and expiry in place; it never appends.
package session

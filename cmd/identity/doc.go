// Package identity holds the Hub user model and its persistence stores.
//
// Users are created at registration and never physically deleted; login
// updates last_login_at. Email addresses are unique after case-folding.
package identity

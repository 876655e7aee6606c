// Package auth issues and validates the JWT access tokens that identify an
// account on every request, and hashes account passwords with bcrypt.
package auth

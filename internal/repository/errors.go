// Package repository defines the persistence layer: a MySQL implementation
// used in production and an in-memory one used in development and tests.
// The sentinel errors below are shared by both so higher layers can tell
// the failure scenarios apart.
package repository

import "errors"

// ErrNotFound is returned when a show, booking or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a write collides with existing state, such
// as a booking code that is already in use.
var ErrConflict = errors.New("conflict")

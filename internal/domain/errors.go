// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist or is not
// visible to the requesting tenant.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the request payload failed domain validation.
var ErrValidation = errors.New("validation failed")

// ErrSlotConflict indicates a reservation lost the race for its interval.
// The caller must re-query slots; the server never picks a different time.
var ErrSlotConflict = errors.New("slot conflict: interval is no longer available")

// ErrInvalidTransition indicates a booking status change that the state
// machine does not permit.
var ErrInvalidTransition = errors.New("invalid status transition")

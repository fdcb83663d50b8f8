// Package caseengine owns criminal-case records, their status workflow and the
// attached sub-records (evidence items, internal notes, court hearings). It is
// the single API surface external callers use; HTTP handlers, schedulers and
// scripts all go through the Engine facade.
package caseengine

import "errors"

// Error kinds surfaced by the engine. Callers match with errors.Is; the HTTP
// layer maps ErrNotFound to 404 and ErrInvalidInput to 400.
var (
	// ErrNotFound means the case, or a sub-record of it, does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means a required field was empty or a value was
	// outside its allowed set.
	ErrInvalidInput = errors.New("invalid input")
)

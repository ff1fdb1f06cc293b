package models

import "errors"

// Domain-level sentinel errors for business logic.
// These errors should not contain HTTP-specific information.

var (
	// ErrSessionNotFound indicates that the user has no active session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists indicates that an active session already exists
	// for the user and a new one must not be created over it.
	ErrSessionExists = errors.New("active session already exists")

	// ErrSessionConflict indicates that the session revision expected
	// by a writer no longer matches the stored revision. The losing
	// event is discarded, never merged.
	ErrSessionConflict = errors.New("session revision conflict")

	// ErrBriefingNotFound indicates that no briefing record exists for
	// the given identifier.
	ErrBriefingNotFound = errors.New("briefing not found")

	// ErrMissingRequiredField indicates that a briefing record is
	// missing one of its mandatory fields.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrPhotoRejected indicates that an image payload failed the
	// storage-side checks (size, format, dimensions).
	ErrPhotoRejected = errors.New("photo rejected")
)

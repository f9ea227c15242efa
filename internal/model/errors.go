package model

import (
	"github.com/cockroachdb/errors"
)

// Base errors, each rendered with a fixed http status code by the handlers.
var (
	// ErrValidation is rendered with the http status code 400
	ErrValidation = errors.New("validation failed")

	// ErrAccessDenied is rendered with the http status code 401
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is rendered with the http status code 404
	ErrNotFound = errors.New("not found")

	// ErrConflict is rendered with the http status code 409
	ErrConflict = errors.New("conflict")

	// ErrNotificationDelivery is only ever logged.
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// List workflow errors
var (
	ErrNotListOwner     = errors.Wrap(ErrAccessDenied, "this list cannot be edited by this user")
	ErrListIsPrivate    = errors.Wrap(ErrAccessDenied, "this list is private")
	ErrCopyOwnList      = errors.Wrap(ErrAccessDenied, "you cannot copy your own list")
	ErrAlreadyCopied    = errors.Wrap(ErrConflict, "you already have a copy of this list")
	ErrAlreadyFinished  = errors.Wrap(ErrConflict, "this list is already finished")
	ErrCompletionTarget = errors.Wrap(ErrNotFound, "cannot resolve completion target")
	ErrNoListsForAuthor = errors.Wrap(ErrNotFound, "no lists found for this user")
)

package reconcile

import "errors"

var (
	// ErrSourceUnavailable indicates a source fetch failed; the pipeline
	// degrades that source to an empty batch and continues with the others
	ErrSourceUnavailable = errors.New("reconcile: source unavailable")
	// ErrSourceInvalidResponse indicates a source returned an undecodable payload
	ErrSourceInvalidResponse = errors.New("reconcile: invalid source response")
	// ErrUnknownSource indicates a source kind with no registered adapter
	ErrUnknownSource = errors.New("reconcile: unknown source")
)

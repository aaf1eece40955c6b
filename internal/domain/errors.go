package domain

import "errors"

var (
	// ErrNotFound signals the requested baseline, record or config does not
	// exist. Callers treat it as "needs initialization", not as failure.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyArchived is returned when an archive attempt hits an
	// existing record for the same (player, period label). The stored record
	// is untouched.
	ErrAlreadyArchived = errors.New("period already archived")

	// ErrLookbackExceeded is returned when a viewer requests a historical
	// record older than their tier's lookback window.
	ErrLookbackExceeded = errors.New("requested period outside lookback window")
)

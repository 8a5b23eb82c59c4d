package workflow

import "errors"

// Business-rule errors are surfaced to the caller verbatim and never retried.
// Infrastructure errors (ErrConflict after the internal retry budget,
// ErrStoreUnavailable) are the caller's signal to back off and retry.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAlreadyTerminal   = errors.New("record is in a terminal state")
	ErrForbidden         = errors.New("role not permitted for this transition")
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("concurrent modification")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrUnknownKind       = errors.New("unknown entity kind")
)

// IsBusinessError reports whether err is a rule rejection rather than an
// infrastructure failure. The sweeper uses this to count skips instead of
// failures.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyTerminal) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound)
}

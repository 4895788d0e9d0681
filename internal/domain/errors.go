package domain

import "errors"

var (
	// ErrInvalidHierarchy indicates a WBS structural violation: a disallowed
	// child type, a root that is not a phase, or a code whose depth does not
	// match its type.
	ErrInvalidHierarchy = errors.New("invalid wbs hierarchy")

	// ErrProgressOverrun indicates a percentage or quantity invariant was violated.
	ErrProgressOverrun = errors.New("progress overrun")

	// ErrImmutableDocument indicates a mutation was attempted on a document
	// that is no longer editable.
	ErrImmutableDocument = errors.New("document is immutable")

	// ErrStaleBaseline indicates the approved baseline changed after the
	// certification computed its figures. Callers re-fetch and re-submit.
	ErrStaleBaseline = errors.New("stale baseline")

	// ErrEmptyDocument indicates a submit with zero lines.
	ErrEmptyDocument = errors.New("document has no lines")

	// ErrSealMismatch indicates the recomputed integrity seal differs from the stored one.
	ErrSealMismatch = errors.New("integrity seal mismatch")

	// ErrNotSealed indicates a seal verification on a never-issued certification.
	ErrNotSealed = errors.New("certification has no integrity seal")

	// ErrInvalidTransition indicates a state transition whose source status
	// is not accepted, without the document being immutable.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNodeReferenced indicates a hard delete of a WBS node that budget or
	// certification lines still reference.
	ErrNodeReferenced = errors.New("wbs node is referenced")

	// ErrPersistence wraps storage failures so callers can tell them apart
	// from invariant violations.
	ErrPersistence = errors.New("persistence failure")
)

// IsRetryable reports whether err is expected under normal concurrent use
// and can be resolved by re-reading state and retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleBaseline)
}

package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPersistenceConflict marks a storage-level uniqueness violation.
	// Callers racing on the same (target, fingerprint) key convert this
	// into a duplicate-suppressed outcome instead of failing the item.
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrReferenceDataStale means a snapshot refresh failed and the prior
	// snapshot is still being served.
	ErrReferenceDataStale = errors.New("reference data stale")

	// ErrConfigurationDefect marks states that are impossible with a
	// correct rule set, e.g. a HOLD assignment without a reason code.
	// This is the only category that aborts a batch run.
	ErrConfigurationDefect = errors.New("configuration defect")
)

package types

import "errors"

// Storage errors.
var (
	// ErrMissingPreimage is returned when a batch writes a value for a
	// key hash that has no preimage in the index. The batch must not be
	// applied, in whole or in part.
	ErrMissingPreimage = errors.New("no preimage for key hash")

	// ErrPreimageMismatch is returned when a different preimage is
	// supplied for a key hash that is already mapped.
	ErrPreimageMismatch = errors.New("conflicting preimage for key hash")

	// ErrInvariantViolation is returned when an ordered seek produces an
	// entry newer than the requested version. It indicates a bug in the
	// codec or the seek primitive, not a missing key, and must never be
	// collapsed into a not-found result.
	ErrInvariantViolation = errors.New("versioned seek invariant violated")

	// ErrInvalidKeyHash is returned when raw bytes are not a valid key hash.
	ErrInvalidKeyHash = errors.New("invalid key hash")

	// ErrInvalidNode is returned when a node payload cannot be decoded.
	ErrInvalidNode = errors.New("invalid node payload")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("store is closed")
)

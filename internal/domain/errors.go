package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is a role-based rejection.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidIndex means a criterion index is outside [0, len(items)).
	ErrInvalidIndex = errors.New("invalid criterion index")

	// ErrEntryMismatch means a progress entry does not belong to the stated
	// skill and criterion. Callers should surface it as forbidden.
	ErrEntryMismatch = errors.New("progress entry does not belong to this criterion")

	// ErrImmutable means the target state forbids the mutation.
	ErrImmutable = errors.New("immutable")

	// ErrValidation marks rejected field input.
	ErrValidation = errors.New("validation failed")
)

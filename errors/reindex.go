package errors

import "fmt"

// ConflictError is returned when an optimistic-concurrency write loses a race
// against a newer version of the same record, or when a lease is already
// held by another worker.
type ConflictError struct {
	Resource string
	Reason   string
}

// NewConflictError returns a ConflictError for the named resource.
func NewConflictError(resource, reason string) *ConflictError {
	return &ConflictError{resource, reason}
}

func (c *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", c.Resource, c.Reason)
}

// NotFoundError is returned when a precondition requires a resource that
// does not exist, e.g. an index or an operation record.
type NotFoundError struct {
	Resource string
}

// NewNotFoundError returns a NotFoundError for the named resource.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{resource}
}

func (n *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", n.Resource)
}

// PreconditionError is returned when a request is well-formed but violates
// a state invariant, such as requesting a state transition the operation
// isn't eligible for.
type PreconditionError struct {
	Reason string
}

// NewPreconditionError returns a PreconditionError with the given reason.
func NewPreconditionError(reason string) *PreconditionError {
	return &PreconditionError{reason}
}

func (p *PreconditionError) Error() string {
	return p.Reason
}

// TransientError is returned when a step body sees a non-acknowledged
// write-block, index-creation or alias-swap response, or a node below the
// ML upgrade-mode minimum version: nothing errored out, but the operation
// should simply be retried on the next poll tick rather than being marked
// failed.
type TransientError struct {
	Reason string
}

// NewTransientError returns a TransientError with the given reason.
func NewTransientError(reason string) *TransientError {
	return &TransientError{reason}
}

func (t *TransientError) Error() string {
	return t.Reason
}

// InternalError wraps an unexpected failure that broke an invariant the
// caller cannot recover from, such as running out of destination index
// names or a record already past the last step.
type InternalError struct {
	Reason string
	Cause  error
}

// NewInternalError returns an InternalError wrapping cause, if any.
func NewInternalError(reason string, cause error) *InternalError {
	return &InternalError{reason, cause}
}

func (i *InternalError) Error() string {
	if i.Cause != nil {
		return fmt.Sprintf("%s: %v", i.Reason, i.Cause)
	}
	return i.Reason
}

func (i *InternalError) Unwrap() error {
	return i.Cause
}

package store

import "fmt"

// NotFoundError indicates the resource was not found (or the caller holds no
// membership that would let them see it — the two are deliberately
// indistinguishable).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError indicates a client-side validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ConflictError indicates a uniqueness/conflict violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ForbiddenError indicates the caller is a member but lacks the required
// role for the mutation (e.g. renaming a group without owning it).
type ForbiddenError struct{}

func (e *ForbiddenError) Error() string {
	return "forbidden"
}

package domainerr

import "fmt"

// InvalidTransitionError is returned when a requested status change is not in
// the legal transition set for the entity.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// NotBookableError is returned when a unit is not in a bookable/holdable state
// or a precondition on the referenced payment plan fails.
type NotBookableError struct {
	UnitID uint
	Reason string
}

func (e *NotBookableError) Error() string {
	return fmt.Sprintf("unit %d not bookable: %s", e.UnitID, e.Reason)
}

// DocumentMissingError is returned when a document row exists but its file is
// absent from storage. The file is never silently regenerated.
type DocumentMissingError struct {
	Document string
	Path     string
}

func (e *DocumentMissingError) Error() string {
	return fmt.Sprintf("%s file missing from storage: %s", e.Document, e.Path)
}

// ConflictError is returned when an entity-state precondition is violated,
// e.g. re-uploading an already signed document without an override role or
// uploading a second DLD document.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// DuplicateApprovalError is returned when a role that already holds a
// non-superseded approval for the same reference approves again.
type DuplicateApprovalError struct {
	RefType string
	RefID   uint
	Role    string
}

func (e *DuplicateApprovalError) Error() string {
	return fmt.Sprintf("role %s already approved %s %d", e.Role, e.RefType, e.RefID)
}

// RoleNotAuthorizedError is returned when the acting role is not part of any
// approval path for the reference.
type RoleNotAuthorizedError struct {
	Role string
}

func (e *RoleNotAuthorizedError) Error() string {
	return fmt.Sprintf("role %s is not authorized to approve", e.Role)
}

// PlanDefinitionError is returned when a payment plan definition fails
// validation (percentage sum, duplicate dates, malformed blocks).
type PlanDefinitionError struct {
	Reason string
}

func (e *PlanDefinitionError) Error() string {
	return "invalid plan definition: " + e.Reason
}

// ConflictingDefaultError is returned when more than one plan for the same
// unit is flagged as default.
type ConflictingDefaultError struct {
	UnitID uint
}

func (e *ConflictingDefaultError) Error() string {
	return fmt.Sprintf("unit %d already has a default payment plan", e.UnitID)
}

// NotFoundError is returned when a referenced entity or signing token is
// absent or not visible to the caller.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// ExternalServiceError wraps failures of the file store, renderer or notifier
// so callers can distinguish retryable infrastructure faults from domain
// errors.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failure: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

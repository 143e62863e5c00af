// Package errors provides centralized error definitions and error handling
// utilities for the conductor codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, error
// classification helpers, and the exit-code mapping used by the CLI.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - EffortError: errors related to the effort state document
//   - SignalError: errors related to the append-only signal log
//
// Semantic errors represent the error taxonomy surfaced to operators:
//   - NotFoundError: effort or session identifier does not exist
//   - AlreadyExistsError: resource already exists
//   - PreconditionError: a transition requested on a session or effort not in
//     the required prior status
//   - MalformedDataError: a persisted document failed to parse
//   - ConflictError: a concurrent writer invalidated a read-modify-write
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewEffortError("failed to load state", errors.ErrStateCorrupted)
//
//	// Semantic error
//	err := errors.NewPreconditionError("done", "2.1", "pending", "in_progress")
//
//	// With context wrapping
//	err := errors.NewSignalError("decode failed", baseErr).WithFile("20251101T...json")
//
// Checking errors:
//
//	// Check for specific sentinel errors
//	if errors.Is(err, errors.ErrSessionNotFound) { ... }
//
//	// Check for error types
//	var precondErr *errors.PreconditionError
//	if errors.As(err, &precondErr) { ... }
//
//	// Use classification helpers
//	if errors.IsRetryable(err) { ... }
//	os.Exit(errors.ExitCode(err))
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

// Exit codes returned by the CLI, one per error kind so scripts can
// distinguish a bad command from a missing target from a storage problem.
const (
	ExitOK        = 0
	ExitFailure   = 1 // precondition violations and general failures
	ExitNotFound  = 2
	ExitConflict  = 3
	ExitMalformed = 4
)

// ExitCode maps an error to the CLI exit code for its kind.
// nil maps to ExitOK; errors of no recognized kind map to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var notFound *NotFoundError
	if As(err, &notFound) {
		return ExitNotFound
	}
	var conflict *ConflictError
	if As(err, &conflict) {
		return ExitConflict
	}
	var malformed *MalformedDataError
	if As(err, &malformed) {
		return ExitMalformed
	}
	return ExitFailure
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Effort-related sentinel errors
var (
	// ErrEffortNotFound indicates that an effort could not be found.
	ErrEffortNotFound = New("effort not found")
	// ErrSessionNotFound indicates that a session could not be found in the
	// state document.
	ErrSessionNotFound = New("session not found")
	// ErrStateCorrupted indicates that the state document failed to parse.
	ErrStateCorrupted = New("state document corrupted")
	// ErrStaleState indicates that the state document changed on disk since
	// it was loaded.
	ErrStaleState = New("state document changed since load")
	// ErrEffortIncomplete indicates sessions remain that are not completed.
	ErrEffortIncomplete = New("effort has incomplete sessions")
)

// Signal-related sentinel errors
var (
	// ErrSignalMalformed indicates that a signal file failed to parse.
	ErrSignalMalformed = New("signal file malformed")
	// ErrUnknownSignalKind indicates a signal type outside the known set.
	ErrUnknownSignalKind = New("unknown signal kind")
	// ErrNoResultForAudit indicates an audit verdict arrived with no
	// session-done result for the current iteration.
	ErrNoResultForAudit = New("no completed work to audit")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ConductorError is the base interface for all conductor errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type ConductorError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// EffortError represents errors related to the effort state document.
//
// Example:
//
//	err := errors.NewEffortError("failed to load state", errors.ErrStateCorrupted)
//	err = err.WithEffortID("auth-refactor").WithSessionID("2.1")
//	fmt.Println(err) // "effort error [effort=auth-refactor, session=2.1]: failed to load state: state document corrupted"
type EffortError struct {
	baseError
	EffortID  string
	SessionID string
}

// NewEffortError creates a new EffortError.
func NewEffortError(message string, cause error) *EffortError {
	return &EffortError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithEffortID adds an effort ID to the error context.
func (e *EffortError) WithEffortID(id string) *EffortError {
	e.EffortID = id
	return e
}

// WithSessionID adds a session ID to the error context.
func (e *EffortError) WithSessionID(id string) *EffortError {
	e.SessionID = id
	return e
}

// WithSeverity sets the error severity.
func (e *EffortError) WithSeverity(s Severity) *EffortError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *EffortError) WithRetryable(r bool) *EffortError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *EffortError) Error() string {
	var parts []string
	if e.EffortID != "" {
		parts = append(parts, fmt.Sprintf("effort=%s", e.EffortID))
	}
	if e.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.SessionID))
	}

	prefix := "effort error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("effort error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *EffortError) Is(target error) bool {
	if _, ok := target.(*EffortError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SignalError represents errors related to the append-only signal log.
//
// Example:
//
//	err := errors.NewSignalError("decode failed", baseErr)
//	err = err.WithFile("20251101T120000.000001Z-841-17-session-done.json")
type SignalError struct {
	baseError
	Kind string
	File string
}

// NewSignalError creates a new SignalError.
func NewSignalError(message string, cause error) *SignalError {
	return &SignalError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithKind adds a signal kind to the error context.
func (e *SignalError) WithKind(kind string) *SignalError {
	e.Kind = kind
	return e
}

// WithFile adds a signal filename to the error context.
func (e *SignalError) WithFile(file string) *SignalError {
	e.File = file
	return e
}

// WithSeverity sets the error severity.
func (e *SignalError) WithSeverity(s Severity) *SignalError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *SignalError) WithRetryable(r bool) *SignalError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *SignalError) Error() string {
	var parts []string
	if e.Kind != "" {
		parts = append(parts, fmt.Sprintf("kind=%s", e.Kind))
	}
	if e.File != "" {
		parts = append(parts, fmt.Sprintf("file=%s", e.File))
	}

	prefix := "signal error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("signal error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SignalError) Is(target error) bool {
	if _, ok := target.(*SignalError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents an effort or session that could not be found.
// Identifiers are never silently created on lookup; the only exception is
// loading a missing effort document, which yields a fresh one.
//
// Example:
//
//	err := errors.NewNotFoundError("session", "2.1")
//	fmt.Println(err) // "session '2.1' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if errors.Is(target, ErrEffortNotFound) || errors.Is(target, ErrSessionNotFound) {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("session", "2.1")
//	fmt.Println(err) // "session '2.1' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// PreconditionError represents a transition requested on a session or effort
// that is not in the required prior status. The message always names the
// actual and expected statuses so the operator can correct the command
// rather than guess.
//
// Example:
//
//	err := errors.NewPreconditionError("done", "2.1", "pending", "in_progress")
//	fmt.Println(err) // "precondition violation [target=2.1, op=done]: status is pending, expected in_progress"
type PreconditionError struct {
	baseError
	Op       string
	TargetID string
	Actual   string
	Expected []string
}

// NewPreconditionError creates a new PreconditionError. One or more expected
// statuses may be given; the message lists them all.
func NewPreconditionError(op, targetID, actual string, expected ...string) *PreconditionError {
	e := &PreconditionError{
		baseError: baseError{
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		Op:       op,
		TargetID: targetID,
		Actual:   actual,
		Expected: expected,
	}
	e.message = e.describe()
	return e
}

// WithCause adds a cause to the error.
func (e *PreconditionError) WithCause(cause error) *PreconditionError {
	e.cause = cause
	return e
}

func (e *PreconditionError) describe() string {
	switch len(e.Expected) {
	case 0:
		return fmt.Sprintf("status is %s", e.Actual)
	case 1:
		return fmt.Sprintf("status is %s, expected %s", e.Actual, e.Expected[0])
	default:
		return fmt.Sprintf("status is %s, expected one of [%s]", e.Actual, strings.Join(e.Expected, ", "))
	}
}

// Error returns the formatted error message.
func (e *PreconditionError) Error() string {
	var parts []string
	if e.TargetID != "" {
		parts = append(parts, fmt.Sprintf("target=%s", e.TargetID))
	}
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	prefix := "precondition violation"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("precondition violation [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.describe(), e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.describe())
}

// Is checks if this error matches the target.
func (e *PreconditionError) Is(target error) bool {
	if _, ok := target.(*PreconditionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// MalformedDataError represents a persisted document that failed to parse.
// For signal files the caller skips and warns; for the state document the
// caller fails loudly, since a corrupt canonical document cannot be safely
// guessed at.
//
// Example:
//
//	err := errors.NewMalformedDataError("/data/auth-refactor/state.json", parseErr)
type MalformedDataError struct {
	baseError
	Path string
}

// NewMalformedDataError creates a new MalformedDataError.
func NewMalformedDataError(path string, cause error) *MalformedDataError {
	return &MalformedDataError{
		baseError: baseError{
			message:    "malformed persisted data",
			cause:      cause,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: true,
		},
		Path: path,
	}
}

// WithSeverity sets the error severity. Signal-file callers downgrade to
// SeverityWarning before logging and skipping.
func (e *MalformedDataError) WithSeverity(s Severity) *MalformedDataError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *MalformedDataError) Error() string {
	prefix := "malformed persisted data"
	if e.Path != "" {
		prefix = fmt.Sprintf("malformed persisted data [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is checks if this error matches the target.
func (e *MalformedDataError) Is(target error) bool {
	if _, ok := target.(*MalformedDataError); ok {
		return true
	}
	if errors.Is(target, ErrStateCorrupted) || errors.Is(target, ErrSignalMalformed) {
		return true
	}
	return e.baseError.Is(target)
}

// ConflictError represents a concurrent mutation detected during a
// read-modify-write of the state document, surfaced only after the mutator
// has already reloaded and retried once.
//
// Example:
//
//	err := errors.NewConflictError("/data/auth-refactor/state.json", 2)
type ConflictError struct {
	baseError
	Path     string
	Attempts int
}

// NewConflictError creates a new ConflictError.
func NewConflictError(path string, attempts int) *ConflictError {
	return &ConflictError{
		baseError: baseError{
			message:    "state document changed underneath writer",
			severity:   SeverityWarning,
			retryable:  true, // a later attempt sees the new state
			userFacing: true,
		},
		Path:     path,
		Attempts: attempts,
	}
}

// WithCause adds a cause to the error.
func (e *ConflictError) WithCause(cause error) *ConflictError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ConflictError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.Attempts > 0 {
		parts = append(parts, fmt.Sprintf("attempts=%d", e.Attempts))
	}

	prefix := "concurrent mutation conflict"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("concurrent mutation conflict [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ConflictError) Is(target error) bool {
	if _, ok := target.(*ConflictError); ok {
		return true
	}
	if errors.Is(target, ErrStaleState) {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("session ID must match phase.session")
//	err = err.WithField("session").WithValue("abc")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing ConductorError with IsRetryable() returning true
//   - ConflictError instances (a later attempt sees the new state)
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    return retry(operation)
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements ConductorError
	var conductorErr ConductorError
	if As(err, &conductorErr) {
		return conductorErr.IsRetryable()
	}

	// Check for known retryable sentinel errors
	if Is(err, ErrStaleState) {
		return true
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end
// users. This checks for:
//   - Errors implementing ConductorError with IsUserFacing() returning true
//   - Semantic errors (NotFoundError, AlreadyExistsError, PreconditionError,
//     MalformedDataError, ConflictError, ValidationError)
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    displayToUser(err.Error())
//	} else {
//	    displayToUser("An internal error occurred")
//	    log.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements ConductorError
	var conductorErr ConductorError
	if As(err, &conductorErr) {
		return conductorErr.IsUserFacing()
	}

	return IsSemanticError(err)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ConductorError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    log.Error("canonical data at risk", "err", err)
//	case errors.SeverityWarning:
//	    log.Warn("warning", "err", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	// Check if error implements ConductorError
	var conductorErr ConductorError
	if As(err, &conductorErr) {
		return conductorErr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// IsNotFound returns true if the error is a NotFoundError of any
// resource type.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return As(err, &notFound)
}

// IsPrecondition returns true if the error is a PreconditionError.
func IsPrecondition(err error) bool {
	var precondition *PreconditionError
	return As(err, &precondition)
}

// IsConflict returns true if the error is a ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return As(err, &conflict)
}

// IsMalformedData returns true if the error is a MalformedDataError.
func IsMalformedData(err error) bool {
	var malformed *MalformedDataError
	return As(err, &malformed)
}

// IsDomainError returns true if the error is a domain-specific error
// (EffortError or SignalError).
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}

	var effortErr *EffortError
	var signalErr *SignalError

	return As(err, &effortErr) || As(err, &signalErr)
}

// IsSemanticError returns true if the error is a semantic error
// (NotFoundError, AlreadyExistsError, PreconditionError, MalformedDataError,
// ConflictError, or ValidationError).
func IsSemanticError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var precondition *PreconditionError
	var malformed *MalformedDataError
	var conflict *ConflictError
	var validation *ValidationError

	return As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &precondition) || As(err, &malformed) ||
		As(err, &conflict) || As(err, &validation)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to reconcile")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to start session %s", sessionID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

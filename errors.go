package unisem

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the fatal failure classes of a composition.
var (
	// ErrParse is matched by every ParseError.
	ErrParse = errors.New("unisem: parse error")

	// ErrDuplicateModelName is returned when two models of one composition
	// share a name.
	ErrDuplicateModelName = errors.New("unisem: duplicate model name")

	// ErrEmptyComposition is returned when no source model was selected.
	ErrEmptyComposition = errors.New("unisem: empty composition")

	// ErrNotFound is returned when a stored document does not exist.
	ErrNotFound = errors.New("unisem: document not found")
)

// ParseError is returned when a document is not valid structured text or
// breaks the structural rules of a semantic model.
type ParseError struct {
	Source  string // Document label (file name, model id), optional.
	Path    string // Location inside the document, e.g. "tables.orders.orders".
	Message string
	Cause   error
}

// Error returns the error string.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("unisem: parse error")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError returns a new ParseError.
func NewParseError(path, message string, cause error) *ParseError {
	return &ParseError{Path: path, Message: message, Cause: cause}
}

// WithSource returns a copy of the error labeled with the given source.
func (e *ParseError) WithSource(source string) *ParseError {
	c := *e
	c.Source = source
	return &c
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	var e *ParseError
	return errors.As(err, &e)
}

// DuplicateModelNameError is returned when two input models share a name.
type DuplicateModelNameError struct {
	Name   string
	First  int // Position of the first model with the name.
	Second int // Position of the repeated model.
}

// Error returns the error string.
func (e *DuplicateModelNameError) Error() string {
	return fmt.Sprintf("unisem: duplicate model name %q (positions %d and %d)", e.Name, e.First, e.Second)
}

// Is reports whether the target matches ErrDuplicateModelName.
func (e *DuplicateModelNameError) Is(target error) bool {
	return target == ErrDuplicateModelName
}

// NewDuplicateModelNameError returns a new DuplicateModelNameError.
func NewDuplicateModelNameError(name string, first, second int) *DuplicateModelNameError {
	return &DuplicateModelNameError{Name: name, First: first, Second: second}
}

// IsDuplicateModelName returns true if the error is a DuplicateModelNameError.
func IsDuplicateModelName(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateModelNameError
	return errors.As(err, &e)
}

// EmptyCompositionError is returned when a composition has no source model.
type EmptyCompositionError struct{}

// Error returns the error string.
func (e *EmptyCompositionError) Error() string {
	return "unisem: empty composition: at least one model must be selected"
}

// Is reports whether the target matches ErrEmptyComposition.
func (e *EmptyCompositionError) Is(target error) bool {
	return target == ErrEmptyComposition
}

// IsEmptyComposition returns true if the error is an EmptyCompositionError.
func IsEmptyComposition(err error) bool {
	if err == nil {
		return false
	}
	var e *EmptyCompositionError
	return errors.As(err, &e)
}

// IsFatal reports whether err belongs to one of the fatal classes that must
// abort a composition.
func IsFatal(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrDuplicateModelName) ||
		errors.Is(err, ErrEmptyComposition)
}

// NotFoundError represents an error when a stored document is not found.
type NotFoundError struct {
	kind string
	name string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unisem: %s %q not found", e.kind, e.name)
}

// Is reports whether the target error matches ErrNotFound.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Kind returns the document kind.
func (e *NotFoundError) Kind() string {
	return e.kind
}

// Name returns the document name that was searched for.
func (e *NotFoundError) Name() string {
	return e.name
}

// NewNotFoundError returns a new NotFoundError for the given document.
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{kind: kind, name: name}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "unisem: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("unisem: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

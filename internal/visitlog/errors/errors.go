package errors

import (
	"fmt"
	"strings"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrFileFormat   = fmt.Errorf("invalid file")
	ErrRemote       = fmt.Errorf("remote operation failed")
)

// FieldError names one field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned before anything is written when a record is
// not acceptable. It matches ErrInvalidInput.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

// Add records a failing field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e if any field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Has reports whether field failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// RemoteOperationError wraps a failure reported by the data store. Its
// message is shown to the user as-is and the operation is not retried.
type RemoteOperationError struct {
	Op  string
	Err error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

func (e *RemoteOperationError) Is(target error) bool {
	return target == ErrRemote
}

// Remote wraps err as a RemoteOperationError unless it is nil or already a
// domain error.
func Remote(op string, err error) error {
	if err == nil || err == ErrNotFound {
		return err
	}
	return &RemoteOperationError{Op: op, Err: err}
}

// FileFormatError blocks an import before any record is created.
type FileFormatError struct {
	Name   string
	Reason string
}

func (e *FileFormatError) Error() string {
	if e.Name == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

func (e *FileFormatError) Is(target error) bool {
	return target == ErrFileFormat
}

// PerRecordImportError describes one row that could not be imported. It
// never aborts the rest of the import.
type PerRecordImportError struct {
	Line int
	Name string
	Err  error
}

func (e *PerRecordImportError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Name, e.Err)
}

func (e *PerRecordImportError) Unwrap() error { return e.Err }

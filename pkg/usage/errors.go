package usage

import "fmt"

// StorageError is returned by ledger backends.
type StorageError struct {
	Backend   string // "memory" or "sqlite"
	Operation string // "store", "query", "count", "delete", "open"
	Cause     error
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("usage storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// RecorderError is returned when a record cannot be queued for writing.
type RecorderError struct {
	RecordID string
	Cause    error
}

// NewRecorderError creates a RecorderError.
func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{RecordID: recordID, Cause: cause}
}

// Error implements the error interface.
func (e *RecorderError) Error() string {
	return fmt.Sprintf("usage recorder error [record=%s]: %v", e.RecordID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RecorderError) Unwrap() error {
	return e.Cause
}

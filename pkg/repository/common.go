package repository

import (
	"errors"
	"strings"
)

// errCritical is passed to repeater as the terminating error, see criticalError
var errCritical = errors.New("critical")

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Unwrap() error { return e.err }

func (e *criticalError) Is(target error) bool { return target == errCritical }

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// retryable leaves lock errors for repeater to retry and marks everything else critical
func retryable(err error) error {
	if err == nil || isLockError(err) {
		return err
	}
	return &criticalError{err: err}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/recur/internal/logger"
)

// PersistError reports that a mutation was applied in memory but could not be
// written to the record store. The in-memory state is kept; callers decide
// whether to surface or retry.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("saved in memory but not persisted (%s): %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Persist wraps err in a PersistError for key. A nil err returns nil.
func Persist(key string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistError{Key: key, Err: err}
}

// IsPersistFailure reports whether err (or anything it wraps) is a PersistError
func IsPersistFailure(err error) bool {
	var pe *PersistError
	return stderrors.As(err, &pe)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Report prints a non-fatal error. Persistence failures are shown as warnings
// since the change is still visible for the rest of the session.
func Report(err error) {
	if err == nil {
		return
	}
	if IsPersistFailure(err) {
		logger.Warn("Change not persisted", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	logger.Error("Operation failed", "error", err)
	fmt.Fprintf(os.Stderr, "%s\n", Format(err))
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

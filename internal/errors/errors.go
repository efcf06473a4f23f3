package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Process exit codes.
const (
	ExitSuccess = 0
	// ExitUser covers bad input: flags, arguments, config and missing sites.
	ExitUser = 1
	// ExitSystem covers failures of the environment: I/O, parse and exec errors.
	ExitSystem = 2
)

// Sentinel errors shared across packages.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Re-exported helpers so callers only import one errors package.
var (
	New      = errors.New
	Newf     = errors.Newf
	Wrap     = errors.Wrap
	Wrapf    = errors.Wrapf
	Mark     = errors.Mark
	Is       = errors.Is
	As       = errors.As
	Join     = errors.Join
	Unwrap   = errors.Unwrap
	WithHint = errors.WithHint
)

// ExitError attaches a process exit code to an error. Suggestions travel
// as cockroachdb hints on Err, so a hint added anywhere below the command
// layer is printed too.
type ExitError struct {
	Err  error
	Code int
}

// NewExitError creates an ExitError with the given underlying error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// NewExitErrorWithSuggestion creates an ExitError whose error carries
// suggestion as a hint. An empty suggestion adds nothing.
func NewExitErrorWithSuggestion(err error, code int, suggestion string) *ExitError {
	if suggestion != "" && err != nil {
		err = errors.WithHint(err, suggestion)
	}
	return &ExitError{Err: err, Code: code}
}

// NewUserError returns an ExitUser error with an optional suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return NewExitErrorWithSuggestion(err, ExitUser, suggestion)
}

// NewSystemError returns an ExitSystem error with an optional suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return NewExitErrorWithSuggestion(err, ExitSystem, suggestion)
}

// NewConfigError reports a config file that failed to load or validate.
func NewConfigError(err error) *ExitError {
	return NewUserError(err, "Check your drupaldbg config.yaml, or run: drupaldbg drupal:doctor")
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code carried by err. Errors without an
// ExitError in their chain map to ExitUser; nil maps to ExitSuccess.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUser
}

// Suggestion returns every hint in err's chain, one per line.
func Suggestion(err error) string {
	if err == nil {
		return ""
	}
	return errors.FlattenHints(err)
}

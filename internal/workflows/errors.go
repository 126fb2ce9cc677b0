package workflows

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"
)

// Application error types returned by activities.
const (
	// ErrTypeCallNotFound marks a call that no longer exists. Not retried.
	ErrTypeCallNotFound = "CallNotFound"
	// ErrTypeConversationPending marks a finished call whose conversation is
	// not listed yet. Retried.
	ErrTypeConversationPending = "ConversationPending"
)

// FormatErrorForResult formats an error for FollowUpResult.Errors.
func FormatErrorForResult(operation string, err error) string {
	return fmt.Sprintf("%s: %v", operation, err)
}

// WrapActivityError wraps an activity error with operation context.
func WrapActivityError(operation string, err error) error {
	return fmt.Errorf("%s: %w", operation, err)
}

// isErrorType reports whether err carries an application error of typ.
func isErrorType(err error, typ string) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == typ
}

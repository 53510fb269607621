// ABOUTME: Error taxonomy for the chat client core
// ABOUTME: Sentinel errors classify validation, fetch, send and auth failures

package chat

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrFetch        = errors.New("fetch failed")
	ErrSend         = errors.New("send failed")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoConversation is returned when sending with no peer selected.
	ErrNoConversation = fmt.Errorf("%w: no conversation selected", ErrValidation)
)

// validationError builds an error matching ErrValidation.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

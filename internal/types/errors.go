package types

import "errors"

// Error taxonomy shared by every provider adapter. Adapters wrap these with
// call-site context via fmt.Errorf("...: %w", ...) and callers classify with
// errors.Is.
var (
	// ErrValidation marks a bad or missing argument. Handled locally,
	// produces a user-facing message, never ends the session.
	ErrValidation = errors.New("validation error")

	// ErrTransport marks a network failure, timeout, or non-2xx status
	// from a provider.
	ErrTransport = errors.New("transport error")

	// ErrSchema marks a provider response missing expected fields. It is
	// propagated like a transport error.
	ErrSchema = errors.New("schema error")
)
